// internal/services/context_service.go
package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
	"github.com/satireworks/greenroom/internal/utils"
)

const (
	maxSnapshotsPerProject = 20
	maxHistoryMessages     = 50
	maxKeyDecisions        = 10
)

// capitalizedName matches two or more adjacent capitalized words, which is
// how persona replies tend to introduce recurring characters.
var capitalizedName = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)+)\b`)

// shotReference matches "shot 4" / "panel 12" style references.
var shotReference = regexp.MustCompile(`(?i)\b(shot|panel)\s+\d+`)

// thematicKeywords are the markers tracked across a conversation. Matching
// is plain substring scanning; the score below is a documented rubric, not a
// measurement.
var thematicKeywords = []string{
	"character", "audience", "visual", "tone", "pacing", "sound", "punchline",
}

// decisionCues flag sentences that read like a creative commitment.
var decisionCues = []string{
	"let's go with", "we'll go with", "agreed:", "decision:", "locking in", "final call:",
}

// ContextService keeps persona conversations consistent across workflow
// stages. All of its state is process-local bookkeeping: character profiles
// and context snapshots, both scoped per project so concurrent projects
// cannot contaminate each other.
type ContextService struct {
	mu         sync.RWMutex
	store      *store.Store
	characters map[string]map[string]*models.CharacterProfile // projectID -> name -> profile
	snapshots  map[string][]models.ContextSnapshot            // projectID -> snapshots, newest last
	decisions  map[string][]models.KeyDecision                // projectID -> decisions, newest last
	logger     *utils.Logger
}

// NewContextService creates the tracker.
func NewContextService(s *store.Store) *ContextService {
	return &ContextService{
		store:      s,
		characters: make(map[string]map[string]*models.CharacterProfile),
		snapshots:  make(map[string][]models.ContextSnapshot),
		decisions:  make(map[string][]models.KeyDecision),
		logger:     utils.GetLogger(),
	}
}

// CreateEnhancedContext merges the most recent snapshot for this project and
// persona with live lookups. It never returns an error: when nothing has
// been tracked yet the caller's base context is passed through untouched.
func (cs *ContextService) CreateEnhancedContext(projectID, persona, baseContext, conversationID string) *models.EnhancedContext {
	enhanced := &models.EnhancedContext{BaseContext: baseContext}

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if profiles, ok := cs.characters[projectID]; ok && len(profiles) > 0 {
		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			profile := profiles[name]
			note := profile.Name
			if profile.Description != "" {
				note += ": " + profile.Description
			}
			if len(profile.Traits) > 0 {
				note += " (" + strings.Join(profile.Traits, ", ") + ")"
			}
			enhanced.CharacterNotes = append(enhanced.CharacterNotes, note)
		}
	}

	if project, err := cs.store.GetProject(projectID); err == nil {
		if constraint := formatConstraint(project.Format); constraint != "" {
			enhanced.FormatConstraints = append(enhanced.FormatConstraints, constraint)
		}
		if project.Lens != "" {
			enhanced.FormatConstraints = append(enhanced.FormatConstraints,
				"Satirical lens: "+project.Lens+".")
		}
	}

	decisions := cs.decisions[projectID]
	start := 0
	if len(decisions) > maxKeyDecisions {
		start = len(decisions) - maxKeyDecisions
	}
	for _, d := range decisions[start:] {
		source := d.Persona
		if source == persona {
			source = "your earlier call"
		}
		enhanced.KeyDecisions = append(enhanced.KeyDecisions,
			fmt.Sprintf("[%s] %s", source, d.Summary))
	}

	if conversationID != "" {
		enhanced.HistorySummary = cs.summarizeHistory(conversationID)
	}

	return enhanced
}

// summarizeHistory compresses the tracked message tail into a short digest.
func (cs *ContextService) summarizeHistory(conversationID string) string {
	messages := cs.store.ListMessages(conversationID, maxHistoryMessages)
	if len(messages) == 0 {
		return ""
	}

	userTurns := 0
	for _, m := range messages {
		if m.Sender == models.SenderUser {
			userTurns++
		}
	}

	last := messages[len(messages)-1]
	excerpt := last.Content
	if len(excerpt) > 200 {
		excerpt = excerpt[:200] + "..."
	}
	return fmt.Sprintf("%d messages exchanged (%d from the user). Most recent: %s",
		len(messages), userTurns, excerpt)
}

// UpdateContextAfterInteraction scans a persona reply, updates the project's
// character profiles and decision list, and records a snapshot. It never
// fails; a reply that yields nothing simply records an empty snapshot.
func (cs *ContextService) UpdateContextAfterInteraction(projectID, persona, conversationID, response string) models.ContextSnapshot {
	characters := extractCharacterNames(response)
	markers := extractMarkers(response)
	decisionSummaries := extractDecisions(response)
	score := scoreResponse(response, markers)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := time.Now()

	profiles, ok := cs.characters[projectID]
	if !ok {
		profiles = make(map[string]*models.CharacterProfile)
		cs.characters[projectID] = profiles
	}
	for _, name := range characters {
		if profile, seen := profiles[name]; seen {
			profile.LastUpdated = now
		} else {
			profiles[name] = &models.CharacterProfile{
				Name:        name,
				FirstSeen:   persona,
				LastUpdated: now,
			}
		}
	}

	var decisions []models.KeyDecision
	for _, summary := range decisionSummaries {
		decisions = append(decisions, models.KeyDecision{
			Persona:   persona,
			Summary:   summary,
			Timestamp: now,
		})
	}
	if len(decisions) > 0 {
		cs.decisions[projectID] = append(cs.decisions[projectID], decisions...)
		if extra := len(cs.decisions[projectID]) - 4*maxKeyDecisions; extra > 0 {
			cs.decisions[projectID] = cs.decisions[projectID][extra:]
		}
	}

	snapshot := models.ContextSnapshot{
		ProjectID:      projectID,
		Persona:        persona,
		ConversationID: conversationID,
		Characters:     characters,
		Markers:        markers,
		Decisions:      decisions,
		QualityScore:   score,
		CreatedAt:      now,
	}

	cs.snapshots[projectID] = append(cs.snapshots[projectID], snapshot)
	if extra := len(cs.snapshots[projectID]) - maxSnapshotsPerProject; extra > 0 {
		cs.snapshots[projectID] = cs.snapshots[projectID][extra:]
	}

	return snapshot
}

// PrepareContextTransfer builds the handoff summary shown when the user
// switches from one persona to another mid-project.
func (cs *ContextService) PrepareContextTransfer(projectID, fromPersona, toPersona string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Handing off from %s to %s.\n", personaDisplayName(fromPersona), personaDisplayName(toPersona)))

	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if profiles := cs.characters[projectID]; len(profiles) > 0 {
		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		sb.WriteString("Established characters: " + strings.Join(names, ", ") + ".\n")
	}

	decisions := cs.decisions[projectID]
	if len(decisions) > 0 {
		sb.WriteString("Standing decisions:\n")
		start := 0
		if len(decisions) > maxKeyDecisions {
			start = len(decisions) - maxKeyDecisions
		}
		for _, d := range decisions[start:] {
			sb.WriteString("- " + d.Summary + "\n")
		}
	}

	if to, err := GetPersona(toPersona); err == nil && to.ContinuityPrompt != "" {
		sb.WriteString(to.ContinuityPrompt + "\n")
	}

	return sb.String()
}

// GetSnapshots returns the tracked snapshots for a project, oldest first.
func (cs *ContextService) GetSnapshots(projectID string) []models.ContextSnapshot {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	snapshots := make([]models.ContextSnapshot, len(cs.snapshots[projectID]))
	copy(snapshots, cs.snapshots[projectID])
	return snapshots
}

// GetCharacterProfiles returns a project's tracked characters, sorted by name.
func (cs *ContextService) GetCharacterProfiles(projectID string) []models.CharacterProfile {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	profiles := make([]models.CharacterProfile, 0, len(cs.characters[projectID]))
	for _, p := range cs.characters[projectID] {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles
}

// ForgetProject drops all tracked state for a project. Called on project
// deletion so the tracker never outlives the datastore rows.
func (cs *ContextService) ForgetProject(projectID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.characters, projectID)
	delete(cs.snapshots, projectID)
	delete(cs.decisions, projectID)
}

func personaDisplayName(id string) string {
	if persona, err := GetPersona(id); err == nil {
		return persona.Name
	}
	return id
}

// extractCharacterNames guesses character names from capitalized multi-word
// runs and filters the obvious sentence-start false positives.
func extractCharacterNames(text string) []string {
	matches := capitalizedName.FindAllString(text, -1)
	seen := make(map[string]struct{})
	var names []string
	for _, match := range matches {
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		names = append(names, match)
	}
	return names
}

func extractMarkers(text string) []string {
	lower := strings.ToLower(text)
	var markers []string
	for _, keyword := range thematicKeywords {
		if strings.Contains(lower, keyword) {
			markers = append(markers, keyword)
		}
	}
	return markers
}

// extractDecisions pulls out sentences that contain a commitment cue.
func extractDecisions(text string) []string {
	var decisions []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, cue := range decisionCues {
			if strings.Contains(lower, cue) {
				trimmed := strings.TrimSpace(line)
				if len(trimmed) > 240 {
					trimmed = trimmed[:240] + "..."
				}
				decisions = append(decisions, trimmed)
				break
			}
		}
	}
	return decisions
}

// scoreResponse applies a fixed rubric and clamps to [0,100]:
//
//	50  base
//	+15 substantial reply (>400 chars), +5 more past 1200
//	+5  per thematic marker, capped at +20
//	+10 references shots or panels by number
//	-20 near-empty reply (<50 chars)
//
// The number is advisory; nothing gates on it.
func scoreResponse(text string, markers []string) int {
	score := 50

	switch {
	case len(text) < 50:
		score -= 20
	case len(text) > 1200:
		score += 20
	case len(text) > 400:
		score += 15
	}

	markerBonus := 5 * len(markers)
	if markerBonus > 20 {
		markerBonus = 20
	}
	score += markerBonus

	if shotReference.MatchString(text) {
		score += 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
