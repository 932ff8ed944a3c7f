// internal/store/store.go
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/models"
)

// Datastore is the full serialized state: one slice per entity type plus the
// last save timestamp. The whole structure is rewritten on every mutation;
// that is a deliberate simplification for a single-user tool, not an
// oversight.
type Datastore struct {
	Users         []models.User             `json:"users"`
	Projects      []models.Project          `json:"projects"`
	Articles      []models.NewsArticle      `json:"articles"`
	Strategies    []models.CreativeStrategy `json:"strategies"`
	Scripts       []models.Script           `json:"scripts"`
	Shots         []models.Shot             `json:"shots"`
	SoundNotes    []models.SoundNotes       `json:"sound_notes"`
	DirectorNotes []models.DirectorNote     `json:"director_notes"`
	Conversations []models.Conversation     `json:"conversations"`
	Messages      []models.Message          `json:"messages"`
	LastSaved     time.Time                 `json:"last_saved"`
}

// Store guards the datastore with a single RWMutex and persists it to one
// JSON file using atomic temp+rename writes.
type Store struct {
	mu       sync.RWMutex
	data     Datastore
	filePath string
	autosave bool
}

// New opens (or creates) the datastore file under dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		filePath: filepath.Join(dataDir, "greenroom.json"),
		autosave: true,
	}

	if _, err := os.Stat(s.filePath); err == nil {
		content, err := os.ReadFile(s.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read datastore: %w", err)
		}
		if err := json.Unmarshal(content, &s.data); err != nil {
			return nil, fmt.Errorf("failed to parse datastore: %w", err)
		}
	}

	return s, nil
}

// NewInMemory creates a store that never touches disk. Used by tests and the
// demo seeder.
func NewInMemory() *Store {
	return &Store{autosave: false}
}

// Save serializes the whole datastore to disk. Caller must hold s.mu.
func (s *Store) saveLocked() error {
	if !s.autosave || s.filePath == "" {
		return nil
	}

	s.data.LastSaved = time.Now()

	content, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize datastore: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write datastore: %w", err)
	}

	if err := os.Rename(tempPath, s.filePath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace datastore: %w", err)
	}

	return nil
}

// Save forces a flush to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// LastSaved returns the timestamp of the most recent successful flush.
func (s *Store) LastSaved() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.LastSaved
}

// ---------------------------------------------------------------------------
// Users

func (s *Store) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Users {
		if existing.Username == user.Username {
			return apperrors.NewConflictError("username already taken", nil)
		}
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	s.data.Users = append(s.data.Users, *user)
	return s.saveLocked()
}

func (s *Store) GetUser(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Users {
		if s.data.Users[i].ID == id {
			user := s.data.Users[i]
			return &user, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found: "+id, nil)
}

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Users {
		if s.data.Users[i].Username == username {
			user := s.data.Users[i]
			return &user, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found: "+username, nil)
}

func (s *Store) UpdateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Users {
		if s.data.Users[i].ID == user.ID {
			s.data.Users[i] = *user
			return s.saveLocked()
		}
	}
	return apperrors.NewNotFoundError("user not found: "+user.ID, nil)
}

// ---------------------------------------------------------------------------
// Projects

func (s *Store) CreateProject(project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project.ID = uuid.NewString()
	project.CreatedAt = time.Now()
	project.LastUpdated = project.CreatedAt
	if project.Status == "" {
		project.Status = models.ProjectActive
	}
	s.data.Projects = append(s.data.Projects, *project)
	return s.saveLocked()
}

func (s *Store) GetProject(id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Projects {
		if s.data.Projects[i].ID == id {
			project := s.data.Projects[i]
			return &project, nil
		}
	}
	return nil, apperrors.NewNotFoundError("project not found: "+id, nil)
}

func (s *Store) ListProjects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]models.Project, len(s.data.Projects))
	copy(projects, s.data.Projects)
	return projects
}

func (s *Store) UpdateProject(project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Projects {
		if s.data.Projects[i].ID == project.ID {
			project.LastUpdated = time.Now()
			s.data.Projects[i] = *project
			return s.saveLocked()
		}
	}
	return apperrors.NewNotFoundError("project not found: "+project.ID, nil)
}

// DeleteProject removes the project and every record that hangs off it:
// articles, strategies, scripts, shots, sound notes, director notes,
// conversations and messages. One pass, no orphans.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	projects := s.data.Projects[:0]
	for _, p := range s.data.Projects {
		if p.ID == id {
			found = true
			continue
		}
		projects = append(projects, p)
	}
	if !found {
		return apperrors.NewNotFoundError("project not found: "+id, nil)
	}
	s.data.Projects = projects

	articles := s.data.Articles[:0]
	for _, a := range s.data.Articles {
		if a.ProjectID != id {
			articles = append(articles, a)
		}
	}
	s.data.Articles = articles

	strategies := s.data.Strategies[:0]
	for _, st := range s.data.Strategies {
		if st.ProjectID != id {
			strategies = append(strategies, st)
		}
	}
	s.data.Strategies = strategies

	// Scripts cascade down to shots, and shots down to sound notes.
	deadScripts := make(map[string]struct{})
	scripts := s.data.Scripts[:0]
	for _, sc := range s.data.Scripts {
		if sc.ProjectID == id {
			deadScripts[sc.ID] = struct{}{}
			continue
		}
		scripts = append(scripts, sc)
	}
	s.data.Scripts = scripts

	deadShots := make(map[string]struct{})
	shots := s.data.Shots[:0]
	for _, sh := range s.data.Shots {
		if _, dead := deadScripts[sh.ScriptID]; dead {
			deadShots[sh.ID] = struct{}{}
			continue
		}
		shots = append(shots, sh)
	}
	s.data.Shots = shots

	soundNotes := s.data.SoundNotes[:0]
	for _, sn := range s.data.SoundNotes {
		if _, dead := deadShots[sn.ShotID]; !dead {
			soundNotes = append(soundNotes, sn)
		}
	}
	s.data.SoundNotes = soundNotes

	directorNotes := s.data.DirectorNotes[:0]
	for _, dn := range s.data.DirectorNotes {
		if dn.ProjectID != id {
			directorNotes = append(directorNotes, dn)
		}
	}
	s.data.DirectorNotes = directorNotes

	deadConversations := make(map[string]struct{})
	conversations := s.data.Conversations[:0]
	for _, c := range s.data.Conversations {
		if c.ProjectID == id {
			deadConversations[c.ID] = struct{}{}
			continue
		}
		conversations = append(conversations, c)
	}
	s.data.Conversations = conversations

	messages := s.data.Messages[:0]
	for _, m := range s.data.Messages {
		if _, dead := deadConversations[m.ConversationID]; !dead {
			messages = append(messages, m)
		}
	}
	s.data.Messages = messages

	return s.saveLocked()
}

// ---------------------------------------------------------------------------
// Articles

func (s *Store) CreateArticle(article *models.NewsArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	article.ID = uuid.NewString()
	article.CreatedAt = time.Now()
	s.data.Articles = append(s.data.Articles, *article)
	return s.saveLocked()
}

func (s *Store) GetArticle(id string) (*models.NewsArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Articles {
		if s.data.Articles[i].ID == id {
			article := s.data.Articles[i]
			return &article, nil
		}
	}
	return nil, apperrors.NewNotFoundError("article not found: "+id, nil)
}

func (s *Store) ListArticles(projectID string) []models.NewsArticle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var articles []models.NewsArticle
	for _, a := range s.data.Articles {
		if projectID == "" || a.ProjectID == projectID {
			articles = append(articles, a)
		}
	}
	return articles
}

func (s *Store) UpdateArticle(article *models.NewsArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Articles {
		if s.data.Articles[i].ID == article.ID {
			s.data.Articles[i] = *article
			return s.saveLocked()
		}
	}
	return apperrors.NewNotFoundError("article not found: "+article.ID, nil)
}

func (s *Store) DeleteArticle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles := s.data.Articles[:0]
	found := false
	for _, a := range s.data.Articles {
		if a.ID == id {
			found = true
			continue
		}
		articles = append(articles, a)
	}
	if !found {
		return apperrors.NewNotFoundError("article not found: "+id, nil)
	}
	s.data.Articles = articles
	return s.saveLocked()
}

// ---------------------------------------------------------------------------
// Strategies

func (s *Store) CreateStrategy(strategy *models.CreativeStrategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	strategy.ID = uuid.NewString()
	strategy.CreatedAt = time.Now()
	strategy.LastUpdated = strategy.CreatedAt
	strategy.Version = 1
	if strategy.Status == "" {
		strategy.Status = models.StrategyDraft
	}
	s.data.Strategies = append(s.data.Strategies, *strategy)
	return s.saveLocked()
}

func (s *Store) GetStrategy(id string) (*models.CreativeStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Strategies {
		if s.data.Strategies[i].ID == id {
			strategy := s.data.Strategies[i]
			return &strategy, nil
		}
	}
	return nil, apperrors.NewNotFoundError("strategy not found: "+id, nil)
}

func (s *Store) ListStrategies(projectID string) []models.CreativeStrategy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var strategies []models.CreativeStrategy
	for _, st := range s.data.Strategies {
		if projectID == "" || st.ProjectID == projectID {
			strategies = append(strategies, st)
		}
	}
	return strategies
}

// UpdateStrategy replaces the stored strategy and bumps its version by
// exactly one. The caller's Version field is ignored.
func (s *Store) UpdateStrategy(strategy *models.CreativeStrategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Strategies {
		if s.data.Strategies[i].ID == strategy.ID {
			strategy.Version = s.data.Strategies[i].Version + 1
			strategy.CreatedAt = s.data.Strategies[i].CreatedAt
			strategy.LastUpdated = time.Now()
			s.data.Strategies[i] = *strategy
			return s.saveLocked()
		}
	}
	return apperrors.NewNotFoundError("strategy not found: "+strategy.ID, nil)
}

func (s *Store) DeleteStrategy(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	strategies := s.data.Strategies[:0]
	found := false
	for _, st := range s.data.Strategies {
		if st.ID == id {
			found = true
			continue
		}
		strategies = append(strategies, st)
	}
	if !found {
		return apperrors.NewNotFoundError("strategy not found: "+id, nil)
	}
	s.data.Strategies = strategies
	return s.saveLocked()
}

// ---------------------------------------------------------------------------
// Scripts and shots

func (s *Store) CreateScript(script *models.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	script.ID = uuid.NewString()
	script.CreatedAt = time.Now()
	script.LastUpdated = script.CreatedAt
	s.data.Scripts = append(s.data.Scripts, *script)
	return s.saveLocked()
}

func (s *Store) GetScript(id string) (*models.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Scripts {
		if s.data.Scripts[i].ID == id {
			script := s.data.Scripts[i]
			return &script, nil
		}
	}
	return nil, apperrors.NewNotFoundError("script not found: "+id, nil)
}

func (s *Store) ListScripts(projectID string) []models.Script {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scripts []models.Script
	for _, sc := range s.data.Scripts {
		if projectID == "" || sc.ProjectID == projectID {
			scripts = append(scripts, sc)
		}
	}
	return scripts
}

func (s *Store) UpdateScript(script *models.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Scripts {
		if s.data.Scripts[i].ID == script.ID {
			script.LastUpdated = time.Now()
			s.data.Scripts[i] = *script
			return s.saveLocked()
		}
	}
	return apperrors.NewNotFoundError("script not found: "+script.ID, nil)
}

func (s *Store) CreateShot(shot *models.Shot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shot.ID = uuid.NewString()
	shot.CreatedAt = time.Now()
	shot.LastUpdated = shot.CreatedAt
	s.data.Shots = append(s.data.Shots, *shot)
	return s.saveLocked()
}

func (s *Store) GetShot(id string) (*models.Shot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Shots {
		if s.data.Shots[i].ID == id {
			shot := s.data.Shots[i]
			return &shot, nil
		}
	}
	return nil, apperrors.NewNotFoundError("shot not found: "+id, nil)
}

// ListShots returns a script's shots ordered by panel number.
func (s *Store) ListShots(scriptID string) []models.Shot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var shots []models.Shot
	for _, sh := range s.data.Shots {
		if scriptID == "" || sh.ScriptID == scriptID {
			shots = append(shots, sh)
		}
	}
	sort.Slice(shots, func(i, j int) bool {
		return shots[i].PanelNumber < shots[j].PanelNumber
	})
	return shots
}

func (s *Store) UpdateShot(shot *models.Shot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Shots {
		if s.data.Shots[i].ID == shot.ID {
			shot.LastUpdated = time.Now()
			s.data.Shots[i] = *shot
			return s.saveLocked()
		}
	}
	return apperrors.NewNotFoundError("shot not found: "+shot.ID, nil)
}

func (s *Store) DeleteShot(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	shots := s.data.Shots[:0]
	found := false
	for _, sh := range s.data.Shots {
		if sh.ID == id {
			found = true
			continue
		}
		shots = append(shots, sh)
	}
	if !found {
		return apperrors.NewNotFoundError("shot not found: "+id, nil)
	}
	s.data.Shots = shots

	// Sound notes follow their shot.
	soundNotes := s.data.SoundNotes[:0]
	for _, sn := range s.data.SoundNotes {
		if sn.ShotID != id {
			soundNotes = append(soundNotes, sn)
		}
	}
	s.data.SoundNotes = soundNotes

	return s.saveLocked()
}

// ---------------------------------------------------------------------------
// Sound notes

func (s *Store) CreateSoundNotes(notes *models.SoundNotes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes.ID = uuid.NewString()
	notes.CreatedAt = time.Now()
	notes.LastUpdated = notes.CreatedAt
	s.data.SoundNotes = append(s.data.SoundNotes, *notes)
	return s.saveLocked()
}

func (s *Store) GetSoundNotes(id string) (*models.SoundNotes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.SoundNotes {
		if s.data.SoundNotes[i].ID == id {
			notes := s.data.SoundNotes[i]
			return &notes, nil
		}
	}
	return nil, apperrors.NewNotFoundError("sound notes not found: "+id, nil)
}

func (s *Store) ListSoundNotes(shotID string) []models.SoundNotes {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notes []models.SoundNotes
	for _, sn := range s.data.SoundNotes {
		if shotID == "" || sn.ShotID == shotID {
			notes = append(notes, sn)
		}
	}
	return notes
}

func (s *Store) UpdateSoundNotes(notes *models.SoundNotes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.SoundNotes {
		if s.data.SoundNotes[i].ID == notes.ID {
			notes.LastUpdated = time.Now()
			s.data.SoundNotes[i] = *notes
			return s.saveLocked()
		}
	}
	return apperrors.NewNotFoundError("sound notes not found: "+notes.ID, nil)
}

// ---------------------------------------------------------------------------
// Director notes

func (s *Store) CreateDirectorNote(note *models.DirectorNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	note.ID = uuid.NewString()
	note.CreatedAt = time.Now()
	s.data.DirectorNotes = append(s.data.DirectorNotes, *note)
	return s.saveLocked()
}

func (s *Store) ListDirectorNotes(projectID string) []models.DirectorNote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var notes []models.DirectorNote
	for _, dn := range s.data.DirectorNotes {
		if projectID == "" || dn.ProjectID == projectID {
			notes = append(notes, dn)
		}
	}
	return notes
}

// ---------------------------------------------------------------------------
// Conversations and messages

func (s *Store) CreateConversation(conversation *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation.ID = uuid.NewString()
	conversation.CreatedAt = time.Now()
	conversation.LastUpdated = conversation.CreatedAt
	s.data.Conversations = append(s.data.Conversations, *conversation)
	return s.saveLocked()
}

func (s *Store) GetConversation(id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Conversations {
		if s.data.Conversations[i].ID == id {
			conversation := s.data.Conversations[i]
			return &conversation, nil
		}
	}
	return nil, apperrors.NewNotFoundError("conversation not found: "+id, nil)
}

// FindConversation returns the project's conversation with a persona, if any.
func (s *Store) FindConversation(projectID, persona string) (*models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.data.Conversations {
		c := s.data.Conversations[i]
		if c.ProjectID == projectID && c.Persona == persona {
			return &c, true
		}
	}
	return nil, false
}

func (s *Store) ListConversations(projectID string) []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var conversations []models.Conversation
	for _, c := range s.data.Conversations {
		if projectID == "" || c.ProjectID == projectID {
			conversations = append(conversations, c)
		}
	}
	return conversations
}

func (s *Store) AppendMessage(message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message.ID = uuid.NewString()
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	s.data.Messages = append(s.data.Messages, *message)

	for i := range s.data.Conversations {
		if s.data.Conversations[i].ID == message.ConversationID {
			s.data.Conversations[i].LastUpdated = message.Timestamp
			break
		}
	}

	return s.saveLocked()
}

// ListMessages returns a conversation's messages in order. A positive limit
// keeps only the most recent entries.
func (s *Store) ListMessages(conversationID string, limit int) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var messages []models.Message
	for _, m := range s.data.Messages {
		if m.ConversationID == conversationID {
			messages = append(messages, m)
		}
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages
}

// CountOrphans reports dangling child records; used by tests and the health
// endpoint to verify cascade deletes.
func (s *Store) CountOrphans() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make(map[string]struct{}, len(s.data.Projects))
	for _, p := range s.data.Projects {
		projects[p.ID] = struct{}{}
	}
	scripts := make(map[string]struct{}, len(s.data.Scripts))
	for _, sc := range s.data.Scripts {
		scripts[sc.ID] = struct{}{}
	}
	shots := make(map[string]struct{}, len(s.data.Shots))
	for _, sh := range s.data.Shots {
		shots[sh.ID] = struct{}{}
	}
	conversations := make(map[string]struct{}, len(s.data.Conversations))
	for _, c := range s.data.Conversations {
		conversations[c.ID] = struct{}{}
	}

	orphans := 0
	for _, a := range s.data.Articles {
		if _, ok := projects[a.ProjectID]; !ok {
			orphans++
		}
	}
	for _, st := range s.data.Strategies {
		if _, ok := projects[st.ProjectID]; !ok {
			orphans++
		}
	}
	for _, sc := range s.data.Scripts {
		if _, ok := projects[sc.ProjectID]; !ok {
			orphans++
		}
	}
	for _, sh := range s.data.Shots {
		if _, ok := scripts[sh.ScriptID]; !ok {
			orphans++
		}
	}
	for _, sn := range s.data.SoundNotes {
		if _, ok := shots[sn.ShotID]; !ok {
			orphans++
		}
	}
	for _, dn := range s.data.DirectorNotes {
		if _, ok := projects[dn.ProjectID]; !ok {
			orphans++
		}
	}
	for _, c := range s.data.Conversations {
		if _, ok := projects[c.ProjectID]; !ok {
			orphans++
		}
	}
	for _, m := range s.data.Messages {
		if _, ok := conversations[m.ConversationID]; !ok {
			orphans++
		}
	}
	return orphans
}
