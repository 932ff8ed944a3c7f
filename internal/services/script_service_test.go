// internal/services/script_service_test.go
package services

import (
	"strings"
	"testing"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

func newScriptFixture(t *testing.T) (*ScriptService, *models.Script) {
	t.Helper()
	s := store.NewInMemory()
	project := &models.Project{Name: "Cones"}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	svc := NewScriptService(s)
	script, err := svc.CreateScript(project.ID, ScriptRequest{Title: "Opening"})
	if err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}
	return svc, script
}

func TestAddShotWithinCapHasNoWarnings(t *testing.T) {
	svc, script := newScriptFixture(t)

	shot, warnings, err := svc.AddShot(script.ID, ShotRequest{
		PanelNumber:   1,
		LengthSeconds: 4.5,
		Visual:        "anchor desk, cones stacked behind",
	})
	if err != nil {
		t.Fatalf("AddShot failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for a 4.5s shot, got %v", warnings)
	}
	if shot.ID == "" {
		t.Error("expected shot to be stored with an ID")
	}
}

func TestAddLongShotAcceptedWithWarning(t *testing.T) {
	svc, script := newScriptFixture(t)

	shot, warnings, err := svc.AddShot(script.ID, ShotRequest{
		PanelNumber:   1,
		LengthSeconds: 12,
		Visual:        "slow pan across the cone field",
	})
	if err != nil {
		t.Fatalf("expected the long shot to be accepted, got %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "soft cap") {
		t.Errorf("unexpected warning text: %q", warnings[0])
	}

	// The shot is stored with its full length, not truncated.
	stored, _, err := svc.UpdateShot(shot.ID, ShotRequest{})
	if err != nil {
		t.Fatalf("UpdateShot failed: %v", err)
	}
	if stored.LengthSeconds != 12 {
		t.Errorf("expected stored length 12s, got %.1f", stored.LengthSeconds)
	}
}

func TestAddShotValidation(t *testing.T) {
	svc, script := newScriptFixture(t)

	cases := []struct {
		name string
		req  ShotRequest
	}{
		{"zero panel", ShotRequest{PanelNumber: 0, LengthSeconds: 3}},
		{"zero length", ShotRequest{PanelNumber: 1, LengthSeconds: 0}},
		{"negative length", ShotRequest{PanelNumber: 1, LengthSeconds: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.AddShot(script.ID, tc.req)
			if !apperrors.IsValidationError(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestSetSoundNotesReplacesExisting(t *testing.T) {
	svc, script := newScriptFixture(t)

	shot, _, err := svc.AddShot(script.ID, ShotRequest{PanelNumber: 1, LengthSeconds: 3})
	if err != nil {
		t.Fatalf("AddShot failed: %v", err)
	}

	first, err := svc.SetSoundNotes(shot.ID, SoundNotesRequest{Ambience: "newsroom hum"})
	if err != nil {
		t.Fatalf("SetSoundNotes failed: %v", err)
	}
	second, err := svc.SetSoundNotes(shot.ID, SoundNotesRequest{Ambience: "dead silence", Music: "tuba"})
	if err != nil {
		t.Fatalf("second SetSoundNotes failed: %v", err)
	}

	if first.ID != second.ID {
		t.Error("expected the existing notes to be replaced, not duplicated")
	}
	if second.Ambience != "dead silence" {
		t.Errorf("expected updated ambience, got %q", second.Ambience)
	}
}

func TestScriptPackageJoinsShotsAndNotes(t *testing.T) {
	svc, script := newScriptFixture(t)

	for panel := 1; panel <= 3; panel++ {
		shot, _, err := svc.AddShot(script.ID, ShotRequest{PanelNumber: panel, LengthSeconds: 3})
		if err != nil {
			t.Fatalf("AddShot failed: %v", err)
		}
		if panel == 2 {
			if _, err := svc.SetSoundNotes(shot.ID, SoundNotesRequest{Effects: "gavel"}); err != nil {
				t.Fatalf("SetSoundNotes failed: %v", err)
			}
		}
	}

	pkg, err := svc.GetScriptPackage(script.ID)
	if err != nil {
		t.Fatalf("GetScriptPackage failed: %v", err)
	}
	if len(pkg.Shots) != 3 {
		t.Fatalf("expected 3 shots in the package, got %d", len(pkg.Shots))
	}
	if pkg.Shots[0].SoundNotes != nil || pkg.Shots[2].SoundNotes != nil {
		t.Error("expected no sound notes on shots 1 and 3")
	}
	if pkg.Shots[1].SoundNotes == nil || pkg.Shots[1].SoundNotes.Effects != "gavel" {
		t.Error("expected sound notes joined onto shot 2")
	}

	if got := svc.TotalRuntime(script.ID); got != 9 {
		t.Errorf("expected 9s total runtime, got %.1f", got)
	}
}
