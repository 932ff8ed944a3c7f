// internal/models/strategy.go
package models

import (
	"time"
)

// StrategyStatus enumerates the review states of a creative strategy.
type StrategyStatus string

const (
	StrategyDraft         StrategyStatus = "DRAFT"
	StrategyInReview      StrategyStatus = "IN_REVIEW"
	StrategyApproved      StrategyStatus = "APPROVED"
	StrategyNeedsRevision StrategyStatus = "NEEDS_REVISION"
)

// CreativeStrategy holds the satirical concept produced by the Creative
// Strategist persona. Version increments by exactly one on every update.
type CreativeStrategy struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	Concept         string         `json:"concept"`
	SatiricalAngles []string       `json:"satirical_angles,omitempty"`
	Archetypes      []string       `json:"archetypes,omitempty"`
	VisualStyle     string         `json:"visual_style,omitempty"`
	Status          StrategyStatus `json:"status"`
	Version         int            `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	LastUpdated     time.Time      `json:"last_updated"`
}
