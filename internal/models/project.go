// internal/models/project.go
package models

import (
	"time"
)

// ProjectStatus enumerates the lifecycle states of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectArchived  ProjectStatus = "ARCHIVED"
)

// SatiricalFormat biases generated content toward a chosen video style.
type SatiricalFormat string

const (
	FormatNewsParody    SatiricalFormat = "NEWS_PARODY"
	FormatMockumentary  SatiricalFormat = "MOCKUMENTARY"
	FormatSketchComedy  SatiricalFormat = "SKETCH_COMEDY"
	FormatExplainer     SatiricalFormat = "SATIRICAL_EXPLAINER"
	FormatInfomercial   SatiricalFormat = "FAKE_INFOMERCIAL"
)

// Project is the root record of a script production workflow.
type Project struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      ProjectStatus   `json:"status"`
	Personas    []string        `json:"personas,omitempty"`
	Lens        string          `json:"lens,omitempty"`
	Format      SatiricalFormat `json:"format,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	LastUpdated time.Time       `json:"last_updated"`
}
