// internal/services/director_service.go
package services

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

// Stage weights for the project health score. They sum to 100 so a fully
// complete project scores exactly 100.
const (
	weightStrategy   = 30
	weightScript     = 40
	weightSoundscape = 30
)

// DirectorService produces the Project Director's health report: a weighted
// completion score per workflow stage plus plain-text advisories. The score
// is a documented rubric over what exists in the datastore, not an LLM
// judgment.
type DirectorService struct {
	store *store.Store
}

func NewDirectorService(s *store.Store) *DirectorService {
	return &DirectorService{store: s}
}

// AssessProject computes the health report for one project.
func (ds *DirectorService) AssessProject(projectID string) (*models.ProjectHealth, error) {
	if _, err := ds.store.GetProject(projectID); err != nil {
		return nil, err
	}

	health := &models.ProjectHealth{
		ProjectID:   projectID,
		GeneratedAt: time.Now(),
	}

	strategyScore, strategyAdvisories := ds.assessStrategy(projectID)
	scriptScore, scriptAdvisories := ds.assessScript(projectID)
	soundScore, soundAdvisories := ds.assessSoundscape(projectID)

	health.Stages = []models.StageScore{strategyScore, scriptScore, soundScore}
	health.Advisories = append(health.Advisories, strategyAdvisories...)
	health.Advisories = append(health.Advisories, scriptAdvisories...)
	health.Advisories = append(health.Advisories, soundAdvisories...)

	total := 0.0
	for _, stage := range health.Stages {
		total += stage.Weight * stage.Score
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	health.Score = total

	return health, nil
}

// assessStrategy scores the strategy stage: 0 with no strategy, partial for
// a draft, full only when a strategy is approved and filled in.
func (ds *DirectorService) assessStrategy(projectID string) (models.StageScore, []string) {
	stage := models.StageScore{Stage: "strategy", Weight: weightStrategy}
	var advisories []string

	strategies := ds.store.ListStrategies(projectID)
	if len(strategies) == 0 {
		stage.Missing = []string{"no creative strategy yet"}
		return stage, advisories
	}

	best := strategies[0]
	for _, st := range strategies[1:] {
		if st.Status == models.StrategyApproved {
			best = st
			break
		}
	}

	score := 0.4
	if best.Status == models.StrategyApproved {
		score = 1.0
	} else if best.Status == models.StrategyInReview {
		score = 0.7
	}

	if len(best.SatiricalAngles) == 0 {
		score -= 0.15
		stage.Missing = append(stage.Missing, "no satirical angles")
	}
	if len(best.Archetypes) == 0 {
		score -= 0.15
		stage.Missing = append(stage.Missing, "no character archetypes")
	}
	if best.Status == models.StrategyNeedsRevision {
		advisories = append(advisories, "strategy was sent back for revision and has not been updated")
	}

	if score < 0 {
		score = 0
	}
	stage.Score = score
	stage.Complete = best.Status == models.StrategyApproved
	return stage, advisories
}

// assessScript scores the script stage on shot coverage and flags shots
// past the soft length cap.
func (ds *DirectorService) assessScript(projectID string) (models.StageScore, []string) {
	stage := models.StageScore{Stage: "script", Weight: weightScript}
	var advisories []string

	scripts := ds.store.ListScripts(projectID)
	if len(scripts) == 0 {
		stage.Missing = []string{"no script yet"}
		return stage, advisories
	}

	totalShots := 0
	longShots := 0
	for _, script := range scripts {
		shots := ds.store.ListShots(script.ID)
		totalShots += len(shots)
		for _, shot := range shots {
			if shot.ExceedsSoftCap() {
				longShots++
				advisories = append(advisories, fmt.Sprintf(
					"script %q shot %d runs %.1fs, past the %.0fs soft cap",
					script.Title, shot.PanelNumber, shot.LengthSeconds, models.ShotSoftMaxSeconds))
			}
		}
	}

	switch {
	case totalShots == 0:
		stage.Score = 0.3
		stage.Missing = []string{"script has no shots"}
	case totalShots < 4:
		stage.Score = 0.6
		stage.Missing = []string{"fewer than four shots"}
	default:
		stage.Score = 1.0
		stage.Complete = true
	}

	// Long shots dent the stage without failing it.
	if longShots > 0 {
		stage.Score -= 0.1 * float64(longShots)
		if stage.Score < 0.2 {
			stage.Score = 0.2
		}
		stage.Complete = false
	}

	return stage, advisories
}

// assessSoundscape scores sound-note coverage across all shots.
func (ds *DirectorService) assessSoundscape(projectID string) (models.StageScore, []string) {
	stage := models.StageScore{Stage: "soundscape", Weight: weightSoundscape}
	var advisories []string

	totalShots := 0
	covered := 0
	for _, script := range ds.store.ListScripts(projectID) {
		for _, shot := range ds.store.ListShots(script.ID) {
			totalShots++
			if len(ds.store.ListSoundNotes(shot.ID)) > 0 {
				covered++
			}
		}
	}

	if totalShots == 0 {
		stage.Missing = []string{"no shots to score sound coverage against"}
		return stage, advisories
	}

	stage.Score = float64(covered) / float64(totalShots)
	stage.Complete = covered == totalShots
	if covered < totalShots {
		stage.Missing = append(stage.Missing,
			fmt.Sprintf("%d of %d shots have no sound notes", totalShots-covered, totalShots))
	}

	return stage, advisories
}

// AddNote records a director's note against a workflow stage.
func (ds *DirectorService) AddNote(projectID, stage, content string) (*models.DirectorNote, error) {
	if _, err := ds.store.GetProject(projectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("note content is required", nil)
	}

	note := &models.DirectorNote{
		ProjectID: projectID,
		Stage:     stage,
		Content:   content,
	}
	if err := ds.store.CreateDirectorNote(note); err != nil {
		return nil, err
	}
	return note, nil
}

// ListNotes returns a project's director notes.
func (ds *DirectorService) ListNotes(projectID string) []models.DirectorNote {
	return ds.store.ListDirectorNotes(projectID)
}
