// internal/services/director_service_test.go
package services

import (
	"strings"
	"testing"

	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

func TestAssessEmptyProject(t *testing.T) {
	s := store.NewInMemory()
	project := &models.Project{Name: "Empty"}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	health, err := NewDirectorService(s).AssessProject(project.ID)
	if err != nil {
		t.Fatalf("AssessProject failed: %v", err)
	}
	if health.Score != 0 {
		t.Errorf("expected score 0 for an empty project, got %.1f", health.Score)
	}
	if len(health.Stages) != 3 {
		t.Fatalf("expected 3 stages, got %d", len(health.Stages))
	}
	for _, stage := range health.Stages {
		if stage.Complete {
			t.Errorf("stage %s should not be complete on an empty project", stage.Stage)
		}
		if len(stage.Missing) == 0 {
			t.Errorf("stage %s should report what is missing", stage.Stage)
		}
	}
}

func TestAssessCompleteProjectScoresFull(t *testing.T) {
	s := store.NewInMemory()
	project := &models.Project{Name: "Done"}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	strategy := &models.CreativeStrategy{
		ProjectID:       project.ID,
		Concept:         "cones as public art",
		SatiricalAngles: []string{"bureaucratic pride"},
		Archetypes:      []string{"the unbothered mayor"},
	}
	if err := s.CreateStrategy(strategy); err != nil {
		t.Fatalf("CreateStrategy failed: %v", err)
	}
	strategy.Status = models.StrategyApproved
	if err := s.UpdateStrategy(strategy); err != nil {
		t.Fatalf("UpdateStrategy failed: %v", err)
	}

	script := &models.Script{ProjectID: project.ID, Title: "cut one"}
	if err := s.CreateScript(script); err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}
	for panel := 1; panel <= 4; panel++ {
		shot := &models.Shot{ScriptID: script.ID, PanelNumber: panel, LengthSeconds: 4}
		if err := s.CreateShot(shot); err != nil {
			t.Fatalf("CreateShot failed: %v", err)
		}
		notes := &models.SoundNotes{ShotID: shot.ID, Ambience: "hum"}
		if err := s.CreateSoundNotes(notes); err != nil {
			t.Fatalf("CreateSoundNotes failed: %v", err)
		}
	}

	health, err := NewDirectorService(s).AssessProject(project.ID)
	if err != nil {
		t.Fatalf("AssessProject failed: %v", err)
	}
	if health.Score != 100 {
		t.Errorf("expected score 100 for a complete project, got %.1f", health.Score)
	}
	if len(health.Advisories) != 0 {
		t.Errorf("expected no advisories, got %v", health.Advisories)
	}
	for _, stage := range health.Stages {
		if !stage.Complete {
			t.Errorf("stage %s should be complete", stage.Stage)
		}
	}
}

func TestLongShotsProduceAdvisories(t *testing.T) {
	s := store.NewInMemory()
	project := &models.Project{Name: "Long"}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	script := &models.Script{ProjectID: project.ID, Title: "cut one"}
	if err := s.CreateScript(script); err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}
	for panel := 1; panel <= 4; panel++ {
		length := 4.0
		if panel == 2 {
			length = 15
		}
		shot := &models.Shot{ScriptID: script.ID, PanelNumber: panel, LengthSeconds: length}
		if err := s.CreateShot(shot); err != nil {
			t.Fatalf("CreateShot failed: %v", err)
		}
	}

	health, err := NewDirectorService(s).AssessProject(project.ID)
	if err != nil {
		t.Fatalf("AssessProject failed: %v", err)
	}

	found := false
	for _, advisory := range health.Advisories {
		if strings.Contains(advisory, "shot 2") && strings.Contains(advisory, "soft cap") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an advisory about shot 2, got %v", health.Advisories)
	}

	for _, stage := range health.Stages {
		if stage.Stage == "script" && stage.Complete {
			t.Error("script stage should not be complete with a long shot outstanding")
		}
	}
}

func TestHealthScoreBounded(t *testing.T) {
	s := store.NewInMemory()
	project := &models.Project{Name: "Odd"}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	script := &models.Script{ProjectID: project.ID, Title: "cut one"}
	if err := s.CreateScript(script); err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}
	// Many long shots drive the script stage toward its floor.
	for panel := 1; panel <= 12; panel++ {
		shot := &models.Shot{ScriptID: script.ID, PanelNumber: panel, LengthSeconds: 30}
		if err := s.CreateShot(shot); err != nil {
			t.Fatalf("CreateShot failed: %v", err)
		}
	}

	health, err := NewDirectorService(s).AssessProject(project.ID)
	if err != nil {
		t.Fatalf("AssessProject failed: %v", err)
	}
	if health.Score < 0 || health.Score > 100 {
		t.Errorf("health score %.1f out of [0,100]", health.Score)
	}
}

func TestDirectorNotes(t *testing.T) {
	s := store.NewInMemory()
	project := &models.Project{Name: "Notes"}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	ds := NewDirectorService(s)
	if _, err := ds.AddNote(project.ID, "strategy", "the mayor needs a stronger counterweight"); err != nil {
		t.Fatalf("AddNote failed: %v", err)
	}
	if _, err := ds.AddNote(project.ID, "script", "   "); err == nil {
		t.Error("expected empty note content to be rejected")
	}

	notes := ds.ListNotes(project.ID)
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if notes[0].Stage != "strategy" {
		t.Errorf("unexpected stage %q", notes[0].Stage)
	}
}
