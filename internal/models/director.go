// internal/models/director.go
package models

import (
	"time"
)

// DirectorNote is advisory feedback recorded by the Project Director persona.
type DirectorNote struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Stage     string    `json:"stage"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// StageScore is the weighted contribution of one workflow stage to the
// overall project health score.
type StageScore struct {
	Stage    string   `json:"stage"`
	Weight   float64  `json:"weight"`
	Score    float64  `json:"score"`
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing,omitempty"`
}

// ProjectHealth is the Project Director's assessment of a project.
type ProjectHealth struct {
	ProjectID   string       `json:"project_id"`
	Score       float64      `json:"score"`
	Stages      []StageScore `json:"stages"`
	Advisories  []string     `json:"advisories,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}
