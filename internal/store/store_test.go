// internal/store/store_test.go
package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
)

func seedProject(t *testing.T, s *Store) *models.Project {
	t.Helper()
	project := &models.Project{
		Name:   "Pigeon Mayor",
		Lens:   "local politics",
		Format: models.FormatNewsParody,
	}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	return project
}

func TestCreateProjectDefaults(t *testing.T) {
	s := NewInMemory()
	project := seedProject(t, s)

	if project.ID == "" {
		t.Error("expected a generated ID")
	}
	if project.Status != models.ProjectActive {
		t.Errorf("expected default status ACTIVE, got %s", project.Status)
	}
	if project.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := s.GetProject(project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if got.Name != project.Name {
		t.Errorf("expected name %q, got %q", project.Name, got.Name)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := NewInMemory()
	_, err := s.GetProject("missing")
	if err == nil {
		t.Fatal("expected an error for a missing project")
	}
	if !apperrors.IsNotFoundError(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestStrategyVersionIncrement(t *testing.T) {
	s := NewInMemory()
	project := seedProject(t, s)

	strategy := &models.CreativeStrategy{
		ProjectID: project.ID,
		Concept:   "mayor insists traffic cones are public art",
	}
	if err := s.CreateStrategy(strategy); err != nil {
		t.Fatalf("CreateStrategy failed: %v", err)
	}
	if strategy.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", strategy.Version)
	}

	for i := 0; i < 3; i++ {
		strategy.Concept = "revision"
		// A stale caller-side version must not reset the counter.
		strategy.Version = 99
		if err := s.UpdateStrategy(strategy); err != nil {
			t.Fatalf("UpdateStrategy failed: %v", err)
		}
	}

	got, err := s.GetStrategy(strategy.ID)
	if err != nil {
		t.Fatalf("GetStrategy failed: %v", err)
	}
	if got.Version != 4 {
		t.Errorf("expected version 4 after three updates, got %d", got.Version)
	}
}

func TestDeleteProjectCascadesEverything(t *testing.T) {
	s := NewInMemory()
	project := seedProject(t, s)
	other := seedProject(t, s)

	buildTree := func(projectID string) {
		article := &models.NewsArticle{ProjectID: projectID, Title: "headline"}
		if err := s.CreateArticle(article); err != nil {
			t.Fatalf("CreateArticle failed: %v", err)
		}
		strategy := &models.CreativeStrategy{ProjectID: projectID, Concept: "concept"}
		if err := s.CreateStrategy(strategy); err != nil {
			t.Fatalf("CreateStrategy failed: %v", err)
		}
		script := &models.Script{ProjectID: projectID, Title: "draft"}
		if err := s.CreateScript(script); err != nil {
			t.Fatalf("CreateScript failed: %v", err)
		}
		shot := &models.Shot{ScriptID: script.ID, PanelNumber: 1, LengthSeconds: 4}
		if err := s.CreateShot(shot); err != nil {
			t.Fatalf("CreateShot failed: %v", err)
		}
		notes := &models.SoundNotes{ShotID: shot.ID, Ambience: "newsroom hum"}
		if err := s.CreateSoundNotes(notes); err != nil {
			t.Fatalf("CreateSoundNotes failed: %v", err)
		}
		note := &models.DirectorNote{ProjectID: projectID, Stage: "strategy", Content: "tighten"}
		if err := s.CreateDirectorNote(note); err != nil {
			t.Fatalf("CreateDirectorNote failed: %v", err)
		}
		conversation := &models.Conversation{ProjectID: projectID, Persona: "creative_strategist"}
		if err := s.CreateConversation(conversation); err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
		msg := &models.Message{ConversationID: conversation.ID, Sender: models.SenderUser, Content: "hi"}
		if err := s.AppendMessage(msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}
	buildTree(project.ID)
	buildTree(other.ID)

	if err := s.DeleteProject(project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}

	if orphans := s.CountOrphans(); orphans != 0 {
		t.Errorf("expected no orphans after cascade delete, found %d", orphans)
	}
	if got := s.ListArticles(project.ID); len(got) != 0 {
		t.Errorf("expected no articles for the deleted project, got %d", len(got))
	}

	// The sibling project keeps its records.
	if got := s.ListArticles(other.ID); len(got) != 1 {
		t.Errorf("expected the other project's article to survive, got %d", len(got))
	}
	if got := s.ListConversations(other.ID); len(got) != 1 {
		t.Errorf("expected the other project's conversation to survive, got %d", len(got))
	}
}

func TestDeleteShotRemovesSoundNotes(t *testing.T) {
	s := NewInMemory()
	project := seedProject(t, s)

	script := &models.Script{ProjectID: project.ID, Title: "draft"}
	if err := s.CreateScript(script); err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}
	shot := &models.Shot{ScriptID: script.ID, PanelNumber: 1, LengthSeconds: 3}
	if err := s.CreateShot(shot); err != nil {
		t.Fatalf("CreateShot failed: %v", err)
	}
	notes := &models.SoundNotes{ShotID: shot.ID, Effects: "gavel bang"}
	if err := s.CreateSoundNotes(notes); err != nil {
		t.Fatalf("CreateSoundNotes failed: %v", err)
	}

	if err := s.DeleteShot(shot.ID); err != nil {
		t.Fatalf("DeleteShot failed: %v", err)
	}
	if got := s.ListSoundNotes(shot.ID); len(got) != 0 {
		t.Errorf("expected sound notes to follow the shot, got %d", len(got))
	}
}

func TestListShotsOrderedByPanel(t *testing.T) {
	s := NewInMemory()
	project := seedProject(t, s)
	script := &models.Script{ProjectID: project.ID, Title: "draft"}
	if err := s.CreateScript(script); err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}

	for _, panel := range []int{3, 1, 2} {
		shot := &models.Shot{ScriptID: script.ID, PanelNumber: panel, LengthSeconds: 2}
		if err := s.CreateShot(shot); err != nil {
			t.Fatalf("CreateShot failed: %v", err)
		}
	}

	shots := s.ListShots(script.ID)
	if len(shots) != 3 {
		t.Fatalf("expected 3 shots, got %d", len(shots))
	}
	for i, shot := range shots {
		if shot.PanelNumber != i+1 {
			t.Errorf("expected panel %d at index %d, got %d", i+1, i, shot.PanelNumber)
		}
	}
}

func TestMessageLimit(t *testing.T) {
	s := NewInMemory()
	project := seedProject(t, s)
	conversation := &models.Conversation{ProjectID: project.ID, Persona: "storyboarder"}
	if err := s.CreateConversation(conversation); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		msg := &models.Message{
			ConversationID: conversation.ID,
			Sender:         models.SenderUser,
			Content:        string(rune('a' + i)),
			Timestamp:      time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := s.AppendMessage(msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	recent := s.ListMessages(conversation.ID, 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(recent))
	}
	if recent[1].Content != "e" {
		t.Errorf("expected the newest message last, got %q", recent[1].Content)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	project := seedProject(t, s)
	article := &models.NewsArticle{ProjectID: project.ID, Title: "headline", Content: "body"}
	if err := s.CreateArticle(article); err != nil {
		t.Fatalf("CreateArticle failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "greenroom.json")); err != nil {
		t.Fatalf("expected datastore file on disk: %v", err)
	}

	reloaded, err := New(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	got, err := reloaded.GetProject(project.ID)
	if err != nil {
		t.Fatalf("GetProject after reload failed: %v", err)
	}
	if got.Name != project.Name {
		t.Errorf("expected name %q after reload, got %q", project.Name, got.Name)
	}
	if !got.CreatedAt.Equal(project.CreatedAt) {
		t.Errorf("expected CreatedAt to survive the round trip: %v vs %v", got.CreatedAt, project.CreatedAt)
	}
	if reloaded.LastSaved().IsZero() {
		t.Error("expected last_saved to be restored")
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	s := NewInMemory()
	if err := s.CreateUser(&models.User{Username: "mara", Email: "m@example.com"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	err := s.CreateUser(&models.User{Username: "mara", Email: "other@example.com"})
	if err == nil {
		t.Fatal("expected a conflict for the duplicate username")
	}
	if !apperrors.IsConflictError(err) {
		t.Errorf("expected a conflict error, got %v", err)
	}
}
