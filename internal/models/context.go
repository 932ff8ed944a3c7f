// internal/models/context.go
package models

import (
	"time"
)

// CharacterProfile is what the context manager knows about one recurring
// character. Profiles are scoped to a project; they never leak across
// projects.
type CharacterProfile struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Traits      []string  `json:"traits,omitempty"`
	FirstSeen   string    `json:"first_seen,omitempty"` // persona that introduced it
	LastUpdated time.Time `json:"last_updated"`
}

// KeyDecision is a creative decision extracted from a persona response and
// carried forward into later prompts.
type KeyDecision struct {
	Persona   string    `json:"persona"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextSnapshot is a point-in-time bundle of project state used to enrich
// subsequent prompts.
type ContextSnapshot struct {
	ProjectID      string       `json:"project_id"`
	Persona        string       `json:"persona"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Characters     []string     `json:"characters,omitempty"`
	Markers        []string     `json:"markers,omitempty"`
	Decisions      []KeyDecision `json:"decisions,omitempty"`
	QualityScore   int          `json:"quality_score"`
	CreatedAt      time.Time    `json:"created_at"`
}

// EnhancedContext is the prompt enrichment handed to the LLM service before
// a persona call.
type EnhancedContext struct {
	BaseContext       string   `json:"base_context"`
	CharacterNotes    []string `json:"character_notes,omitempty"`
	FormatConstraints []string `json:"format_constraints,omitempty"`
	KeyDecisions      []string `json:"key_decisions,omitempty"`
	HistorySummary    string   `json:"history_summary,omitempty"`
}
