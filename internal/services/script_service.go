// internal/services/script_service.go
package services

import (
	"fmt"
	"strings"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

// ScriptService manages scripts, their shots and per-shot sound notes.
// Shot length has a soft cap: anything longer is stored as-is and the
// response carries an advisory warning.
type ScriptService struct {
	store *store.Store
}

type ScriptRequest struct {
	Title   string `json:"title"`
	Logline string `json:"logline"`
}

type ShotRequest struct {
	PanelNumber   int     `json:"panel_number"`
	LengthSeconds float64 `json:"length_seconds"`
	Camera        string  `json:"camera"`
	Visual        string  `json:"visual"`
	Action        string  `json:"action"`
	Lighting      string  `json:"lighting"`
}

type SoundNotesRequest struct {
	Ambience string `json:"ambience"`
	Effects  string `json:"effects"`
	Music    string `json:"music"`
}

// ScriptPackage is the fully joined view of a script: every shot with its
// sound notes attached, ordered by panel.
type ScriptPackage struct {
	Script models.Script `json:"script"`
	Shots  []ShotDetail  `json:"shots"`
}

type ShotDetail struct {
	Shot       models.Shot        `json:"shot"`
	SoundNotes *models.SoundNotes `json:"sound_notes,omitempty"`
}

func NewScriptService(s *store.Store) *ScriptService {
	return &ScriptService{store: s}
}

func (ss *ScriptService) CreateScript(projectID string, req ScriptRequest) (*models.Script, error) {
	if _, err := ss.store.GetProject(projectID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.NewValidationError("script title is required", nil)
	}

	script := &models.Script{
		ProjectID: projectID,
		Title:     req.Title,
		Logline:   req.Logline,
	}
	if err := ss.store.CreateScript(script); err != nil {
		return nil, err
	}
	return script, nil
}

func (ss *ScriptService) GetScript(id string) (*models.Script, error) {
	return ss.store.GetScript(id)
}

func (ss *ScriptService) ListScripts(projectID string) []models.Script {
	return ss.store.ListScripts(projectID)
}

func (ss *ScriptService) UpdateScript(id string, req ScriptRequest) (*models.Script, error) {
	script, err := ss.store.GetScript(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) != "" {
		script.Title = req.Title
	}
	if req.Logline != "" {
		script.Logline = req.Logline
	}
	if err := ss.store.UpdateScript(script); err != nil {
		return nil, err
	}
	return script, nil
}

// AddShot stores a shot and returns advisory warnings. A shot longer than
// the soft cap is accepted, never rejected.
func (ss *ScriptService) AddShot(scriptID string, req ShotRequest) (*models.Shot, []string, error) {
	if _, err := ss.store.GetScript(scriptID); err != nil {
		return nil, nil, err
	}
	if req.PanelNumber <= 0 {
		return nil, nil, apperrors.NewValidationError("panel number must be positive", nil)
	}
	if req.LengthSeconds <= 0 {
		return nil, nil, apperrors.NewValidationError("shot length must be positive", nil)
	}

	shot := &models.Shot{
		ScriptID:      scriptID,
		PanelNumber:   req.PanelNumber,
		LengthSeconds: req.LengthSeconds,
		Camera:        req.Camera,
		Visual:        req.Visual,
		Action:        req.Action,
		Lighting:      req.Lighting,
	}
	if err := ss.store.CreateShot(shot); err != nil {
		return nil, nil, err
	}

	return shot, shotWarnings(shot), nil
}

func (ss *ScriptService) UpdateShot(id string, req ShotRequest) (*models.Shot, []string, error) {
	shot, err := ss.store.GetShot(id)
	if err != nil {
		return nil, nil, err
	}

	if req.PanelNumber > 0 {
		shot.PanelNumber = req.PanelNumber
	}
	if req.LengthSeconds > 0 {
		shot.LengthSeconds = req.LengthSeconds
	}
	if req.Camera != "" {
		shot.Camera = req.Camera
	}
	if req.Visual != "" {
		shot.Visual = req.Visual
	}
	if req.Action != "" {
		shot.Action = req.Action
	}
	if req.Lighting != "" {
		shot.Lighting = req.Lighting
	}

	if err := ss.store.UpdateShot(shot); err != nil {
		return nil, nil, err
	}
	return shot, shotWarnings(shot), nil
}

func (ss *ScriptService) ListShots(scriptID string) []models.Shot {
	return ss.store.ListShots(scriptID)
}

func (ss *ScriptService) DeleteShot(id string) error {
	return ss.store.DeleteShot(id)
}

// SetSoundNotes creates or replaces the sound notes for a shot. One shot
// carries at most one set of notes.
func (ss *ScriptService) SetSoundNotes(shotID string, req SoundNotesRequest) (*models.SoundNotes, error) {
	if _, err := ss.store.GetShot(shotID); err != nil {
		return nil, err
	}

	existing := ss.store.ListSoundNotes(shotID)
	if len(existing) > 0 {
		notes := existing[0]
		notes.Ambience = req.Ambience
		notes.Effects = req.Effects
		notes.Music = req.Music
		if err := ss.store.UpdateSoundNotes(&notes); err != nil {
			return nil, err
		}
		return &notes, nil
	}

	notes := &models.SoundNotes{
		ShotID:   shotID,
		Ambience: req.Ambience,
		Effects:  req.Effects,
		Music:    req.Music,
	}
	if err := ss.store.CreateSoundNotes(notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetScriptPackage joins a script with its shots and their sound notes.
func (ss *ScriptService) GetScriptPackage(scriptID string) (*ScriptPackage, error) {
	script, err := ss.store.GetScript(scriptID)
	if err != nil {
		return nil, err
	}

	pkg := &ScriptPackage{Script: *script}
	for _, shot := range ss.store.ListShots(scriptID) {
		detail := ShotDetail{Shot: shot}
		if notes := ss.store.ListSoundNotes(shot.ID); len(notes) > 0 {
			n := notes[0]
			detail.SoundNotes = &n
		}
		pkg.Shots = append(pkg.Shots, detail)
	}
	return pkg, nil
}

// TotalRuntime sums a script's shot lengths in seconds.
func (ss *ScriptService) TotalRuntime(scriptID string) float64 {
	var total float64
	for _, shot := range ss.store.ListShots(scriptID) {
		total += shot.LengthSeconds
	}
	return total
}

func shotWarnings(shot *models.Shot) []string {
	var warnings []string
	if shot.ExceedsSoftCap() {
		warnings = append(warnings, fmt.Sprintf(
			"shot %d runs %.1fs, past the %.0fs soft cap; generative video tends to drift on long shots",
			shot.PanelNumber, shot.LengthSeconds, models.ShotSoftMaxSeconds))
	}
	return warnings
}
