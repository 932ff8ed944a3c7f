// internal/models/script.go
package models

import (
	"time"
)

// ShotSoftMaxSeconds is the advisory cap on shot length. Longer shots are
// accepted and only flagged with a warning.
const ShotSoftMaxSeconds = 8.0

// Script is the storyboard-level container for a project's shots.
type Script struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Logline     string    `json:"logline,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Shot is a storyboard panel describing at most a few seconds of video.
type Shot struct {
	ID            string    `json:"id"`
	ScriptID      string    `json:"script_id"`
	PanelNumber   int       `json:"panel_number"`
	LengthSeconds float64   `json:"length_seconds"`
	Camera        string    `json:"camera,omitempty"`
	Visual        string    `json:"visual,omitempty"`
	Action        string    `json:"action,omitempty"`
	Lighting      string    `json:"lighting,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ExceedsSoftCap reports whether the shot is longer than the advisory limit.
func (s *Shot) ExceedsSoftCap() bool {
	return s.LengthSeconds > ShotSoftMaxSeconds
}

// SoundNotes carries the Soundscape Architect's audio direction for one shot.
type SoundNotes struct {
	ID          string    `json:"id"`
	ShotID      string    `json:"shot_id"`
	Ambience    string    `json:"ambience,omitempty"`
	Effects     string    `json:"effects,omitempty"`
	Music       string    `json:"music,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}
