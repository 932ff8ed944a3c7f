// internal/services/personas.go
package services

import (
	"fmt"
	"sort"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
)

// Persona IDs. These are stable identifiers stored in conversations and
// messages; display names live on the Persona struct.
const (
	PersonaCreativeStrategist = "creative_strategist"
	PersonaStoryboarder       = "storyboarder"
	PersonaSoundscape         = "soundscape_architect"
	PersonaProjectDirector    = "project_director"
)

// Persona is one of the studio's AI collaborators. The system prompt fixes
// its voice; the continuity instruction keeps long conversations on-register.
type Persona struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Role                string  `json:"role"`
	SystemPrompt        string  `json:"-"`
	ContinuityPrompt    string  `json:"-"`
	DefaultTemperature  float32 `json:"default_temperature"`
	WorkflowStage       string  `json:"workflow_stage"`
	ShortDescription    string  `json:"description"`
	SuggestedFirststeps string  `json:"suggested_first_steps,omitempty"`
}

var personaRegistry = map[string]Persona{
	PersonaCreativeStrategist: {
		ID:                 PersonaCreativeStrategist,
		Name:               "Creative Strategist",
		Role:               "satirical concept development",
		WorkflowStage:      "strategy",
		DefaultTemperature: 0.9,
		ShortDescription:   "Turns a news article into a satirical concept, angles and archetypes.",
		SystemPrompt: "You are the Creative Strategist of a satirical video studio. " +
			"You take real news articles and develop them into satirical video concepts. " +
			"For each article you propose a central comedic concept, a set of satirical angles, " +
			"character archetypes and a visual style. You never mock victims; your targets are " +
			"institutions, power and absurd systems. Keep suggestions concrete and producible " +
			"as short-form video.",
		ContinuityPrompt: "Stay consistent with the concept, angles and archetypes already " +
			"agreed in this project. If the user pivots the concept, acknowledge the change " +
			"explicitly before building on it.",
		SuggestedFirststeps: "Paste a news article and ask for three satirical takes on it.",
	},
	PersonaStoryboarder: {
		ID:                 PersonaStoryboarder,
		Name:               "Storyboarder",
		Role:               "script and shot breakdown",
		WorkflowStage:      "script",
		DefaultTemperature: 0.7,
		ShortDescription:   "Breaks an approved strategy into a script of numbered shots.",
		SystemPrompt: "You are the Storyboarder of a satirical video studio. " +
			"You turn approved creative strategies into shot-by-shot scripts. Every shot gets " +
			"a panel number, a length in seconds, camera direction, the visual, the action and " +
			"lighting notes. Keep individual shots short; anything past eight seconds should be " +
			"flagged and justified. Write visuals a generative video model could execute.",
		ContinuityPrompt: "Respect the approved strategy's concept and archetypes. Keep panel " +
			"numbering contiguous and refer to existing shots by panel number.",
		SuggestedFirststeps: "Ask for a six-shot opening sequence from the approved strategy.",
	},
	PersonaSoundscape: {
		ID:                 PersonaSoundscape,
		Name:               "Soundscape Architect",
		Role:               "audio direction",
		WorkflowStage:      "soundscape",
		DefaultTemperature: 0.8,
		ShortDescription:   "Designs ambience, effects and music per shot.",
		SystemPrompt: "You are the Soundscape Architect of a satirical video studio. " +
			"For each shot in a script you specify ambience, sound effects and music direction. " +
			"Sound should carry part of the joke: ironic counterpoint, overblown stingers, " +
			"or deadpan silence where the visual does the work. Reference shots by panel number.",
		ContinuityPrompt: "Keep a coherent sonic palette across the whole script. Reuse motifs " +
			"you have already established rather than inventing new ones per shot.",
	},
	PersonaProjectDirector: {
		ID:                 PersonaProjectDirector,
		Name:               "Project Director",
		Role:               "workflow review and health scoring",
		WorkflowStage:      "review",
		DefaultTemperature: 0.4,
		ShortDescription:   "Reviews the whole project, scores its health and flags gaps.",
		SystemPrompt: "You are the Project Director of a satirical video studio. " +
			"You review the full project state: strategy, script, shots and sound notes. " +
			"You point out missing stages, weak or inconsistent material, and shots that run " +
			"long. You are direct and specific; every note names the artifact it concerns.",
		ContinuityPrompt: "Base every note on the current project state supplied in context, " +
			"not on earlier drafts that may have been revised since.",
	},
}

// GetPersona looks up a persona by ID.
func GetPersona(id string) (Persona, error) {
	persona, exists := personaRegistry[id]
	if !exists {
		return Persona{}, apperrors.NewNotFoundError("unknown persona: "+id, nil)
	}
	return persona, nil
}

// ListPersonas returns all personas in a stable order.
func ListPersonas() []Persona {
	personas := make([]Persona, 0, len(personaRegistry))
	for _, p := range personaRegistry {
		personas = append(personas, p)
	}
	sort.Slice(personas, func(i, j int) bool {
		return personas[i].ID < personas[j].ID
	})
	return personas
}

// IsPersona reports whether id names a registered persona.
func IsPersona(id string) bool {
	_, exists := personaRegistry[id]
	return exists
}

// formatConstraint describes how a satirical format should bias generation.
func formatConstraint(format models.SatiricalFormat) string {
	switch format {
	case models.FormatNewsParody:
		return "Format: news parody. Anchor-desk framing, chyron jokes, straight-faced delivery."
	case models.FormatMockumentary:
		return "Format: mockumentary. Talking-head interviews, handheld b-roll, earnest subjects."
	case models.FormatSketchComedy:
		return "Format: sketch comedy. Fast scene turnover, heightened characters, hard punchlines."
	case models.FormatExplainer:
		return "Format: satirical explainer. Whiteboard energy, confident wrong diagrams, escalating logic."
	case models.FormatInfomercial:
		return "Format: fake infomercial. Overclaiming host, before/after cuts, fine-print gags."
	case "":
		return ""
	default:
		return fmt.Sprintf("Format: %s.", format)
	}
}
