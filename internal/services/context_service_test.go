// internal/services/context_service_test.go
package services

import (
	"strings"
	"testing"

	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

func newTestContextService(t *testing.T) (*ContextService, *store.Store) {
	t.Helper()
	s := store.NewInMemory()
	return NewContextService(s), s
}

func TestCreateEnhancedContextFallsBackSilently(t *testing.T) {
	cs, _ := newTestContextService(t)

	// Nothing tracked, project does not even exist: the base context must
	// pass through untouched with no error path.
	enhanced := cs.CreateEnhancedContext("no-such-project", PersonaStoryboarder, "base text", "")
	if enhanced == nil {
		t.Fatal("expected a context, got nil")
	}
	if enhanced.BaseContext != "base text" {
		t.Errorf("expected base context to pass through, got %q", enhanced.BaseContext)
	}
	if len(enhanced.CharacterNotes) != 0 || len(enhanced.KeyDecisions) != 0 {
		t.Error("expected no enrichment for an untracked project")
	}
}

func TestQualityScoreBounds(t *testing.T) {
	cs, _ := newTestContextService(t)

	cases := []struct {
		name     string
		response string
	}{
		{"empty", ""},
		{"tiny", "ok"},
		{"keyword heavy", strings.Repeat("character audience visual tone pacing sound punchline shot 1 ", 200)},
		{"plain long", strings.Repeat("x", 5000)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snapshot := cs.UpdateContextAfterInteraction("p1", PersonaStoryboarder, "c1", tc.response)
			if snapshot.QualityScore < 0 || snapshot.QualityScore > 100 {
				t.Errorf("quality score %d out of [0,100]", snapshot.QualityScore)
			}
		})
	}
}

func TestCharacterProfilesScopedPerProject(t *testing.T) {
	cs, _ := newTestContextService(t)

	cs.UpdateContextAfterInteraction("project-a", PersonaCreativeStrategist, "c1",
		"The anchor Chad Brinkley interviews Mayor Thornton about the cones.")
	cs.UpdateContextAfterInteraction("project-b", PersonaCreativeStrategist, "c2",
		"Our host Dana Fairweather unveils the product.")

	profilesA := cs.GetCharacterProfiles("project-a")
	profilesB := cs.GetCharacterProfiles("project-b")

	for _, p := range profilesA {
		if p.Name == "Dana Fairweather" {
			t.Error("project-b character leaked into project-a")
		}
	}
	for _, p := range profilesB {
		if p.Name == "Chad Brinkley" || p.Name == "Mayor Thornton" {
			t.Error("project-a character leaked into project-b")
		}
	}
	if len(profilesA) == 0 {
		t.Error("expected project-a to have tracked characters")
	}
}

func TestSnapshotTrimming(t *testing.T) {
	cs, _ := newTestContextService(t)

	for i := 0; i < maxSnapshotsPerProject+15; i++ {
		cs.UpdateContextAfterInteraction("p1", PersonaSoundscape, "c1", "a reply about sound design")
	}

	snapshots := cs.GetSnapshots("p1")
	if len(snapshots) != maxSnapshotsPerProject {
		t.Errorf("expected snapshots trimmed to %d, got %d", maxSnapshotsPerProject, len(snapshots))
	}
}

func TestDecisionExtractionFlowsIntoContext(t *testing.T) {
	cs, s := newTestContextService(t)

	project := &models.Project{Name: "Cones", Format: models.FormatNewsParody, Lens: "local politics"}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	cs.UpdateContextAfterInteraction(project.ID, PersonaCreativeStrategist, "c1",
		"Decision: the mayor never acknowledges the cones directly.\nMore prose follows.")

	enhanced := cs.CreateEnhancedContext(project.ID, PersonaStoryboarder, "base", "")
	if len(enhanced.KeyDecisions) != 1 {
		t.Fatalf("expected 1 key decision, got %d", len(enhanced.KeyDecisions))
	}
	if !strings.Contains(enhanced.KeyDecisions[0], "never acknowledges the cones") {
		t.Errorf("unexpected decision text: %q", enhanced.KeyDecisions[0])
	}
	if len(enhanced.FormatConstraints) == 0 {
		t.Error("expected format constraints for a project with a format")
	}
}

func TestKeyDecisionsLabelRequestingPersonasOwnCalls(t *testing.T) {
	cs, s := newTestContextService(t)

	project := &models.Project{Name: "Cones", Format: models.FormatNewsParody}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	cs.UpdateContextAfterInteraction(project.ID, PersonaCreativeStrategist, "c1",
		"Decision: the mayor never acknowledges the cones directly.")
	cs.UpdateContextAfterInteraction(project.ID, PersonaStoryboarder, "c1",
		"Decision: every shot opens on the empty podium.")

	enhanced := cs.CreateEnhancedContext(project.ID, PersonaStoryboarder, "base", "")
	if len(enhanced.KeyDecisions) != 2 {
		t.Fatalf("expected 2 key decisions, got %d", len(enhanced.KeyDecisions))
	}
	if !strings.Contains(enhanced.KeyDecisions[0], "["+PersonaCreativeStrategist+"]") {
		t.Errorf("other persona's decision should carry its persona tag: %q", enhanced.KeyDecisions[0])
	}
	if !strings.Contains(enhanced.KeyDecisions[1], "[your earlier call]") {
		t.Errorf("own decision should be labeled as the requester's: %q", enhanced.KeyDecisions[1])
	}
}

func TestContextTransferSummary(t *testing.T) {
	cs, _ := newTestContextService(t)

	cs.UpdateContextAfterInteraction("p1", PersonaCreativeStrategist, "c1",
		"We'll go with the anchor Chad Brinkley as the recurring face.")

	summary := cs.PrepareContextTransfer("p1", PersonaCreativeStrategist, PersonaStoryboarder)
	if !strings.Contains(summary, "Creative Strategist") || !strings.Contains(summary, "Storyboarder") {
		t.Errorf("expected persona names in the handoff, got %q", summary)
	}
	if !strings.Contains(summary, "Chad Brinkley") {
		t.Errorf("expected established characters in the handoff, got %q", summary)
	}
}

func TestForgetProjectDropsState(t *testing.T) {
	cs, _ := newTestContextService(t)

	cs.UpdateContextAfterInteraction("p1", PersonaStoryboarder, "c1", "Shot 3 introduces Mayor Thornton.")
	cs.ForgetProject("p1")

	if got := cs.GetSnapshots("p1"); len(got) != 0 {
		t.Errorf("expected no snapshots after forget, got %d", len(got))
	}
	if got := cs.GetCharacterProfiles("p1"); len(got) != 0 {
		t.Errorf("expected no profiles after forget, got %d", len(got))
	}
}
