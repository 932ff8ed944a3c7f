// internal/services/chat_service_test.go
package services

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/llm"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
)

// scriptedProvider is a canned backend for chat tests.
type scriptedProvider struct {
	reply string
}

func (p *scriptedProvider) Initialize(config map[string]string) error { return nil }
func (p *scriptedProvider) GetName() string                          { return "Scripted" }
func (p *scriptedProvider) GetSupportedModels() []string             { return []string{"scripted-1"} }
func (p *scriptedProvider) FetchAvailableModels(ctx context.Context) error {
	return nil
}
func (p *scriptedProvider) SetCustomModels(models []string) {}

func (p *scriptedProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{
		Text:         p.reply,
		FinishReason: "stop",
		TokensUsed:   42,
		ModelName:    req.Model,
		ProviderName: p.GetName(),
	}, nil
}

func (p *scriptedProvider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	out := make(chan llm.StreamResponse)
	go func() {
		defer close(out)
		words := strings.Fields(p.reply)
		for _, word := range words {
			out <- llm.StreamResponse{Text: word + " "}
		}
		out <- llm.StreamResponse{Text: p.reply, FinishReason: "stop", Done: true}
	}()
	return out, nil
}

// truncatedProvider streams word chunks and then closes without ever
// sending a terminal chunk, like a backend dropping the connection at EOF.
type truncatedProvider struct {
	scriptedProvider
}

func (p *truncatedProvider) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamResponse, error) {
	out := make(chan llm.StreamResponse)
	go func() {
		defer close(out)
		for _, word := range strings.Fields(p.reply) {
			out <- llm.StreamResponse{Text: word + " "}
		}
	}()
	return out, nil
}

func init() {
	llm.Register("scripted", func() llm.Provider {
		return &scriptedProvider{
			reply: "Decision: the anchor Chad Brinkley opens every segment. Shot 1 sets the tone.",
		}
	})
	llm.Register("truncated", func() llm.Provider {
		return &truncatedProvider{scriptedProvider{
			reply: "The field reporter shrugs at the cones.",
		}}
	})
}

func newChatFixture(t *testing.T) (*ChatService, *store.Store, *models.Project) {
	t.Helper()
	s := store.NewInMemory()

	project := &models.Project{
		Name:     "Cones",
		Personas: []string{PersonaCreativeStrategist, PersonaStoryboarder},
		Format:   models.FormatNewsParody,
	}
	if err := s.CreateProject(project); err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	llmService := NewEmptyLLMService()
	if err := llmService.UpdateProvider("scripted", map[string]string{"default_model": "scripted-1"}); err != nil {
		t.Fatalf("UpdateProvider failed: %v", err)
	}

	contextService := NewContextService(s)
	return NewChatService(s, llmService, contextService), s, project
}

func TestSendMessageRecordsBothTurns(t *testing.T) {
	chat, s, project := newChatFixture(t)

	result, err := chat.SendMessage(context.Background(), ChatRequest{
		ProjectID: project.ID,
		Persona:   PersonaCreativeStrategist,
		Message:   "What is our angle on the cone story?",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if result.UserMessage.Sender != models.SenderUser {
		t.Errorf("expected user sender %q, got %q", models.SenderUser, result.UserMessage.Sender)
	}
	if result.Reply.Sender != PersonaCreativeStrategist {
		t.Errorf("expected persona sender, got %q", result.Reply.Sender)
	}
	if result.Snapshot.QualityScore < 0 || result.Snapshot.QualityScore > 100 {
		t.Errorf("quality score %d out of bounds", result.Snapshot.QualityScore)
	}

	messages := s.ListMessages(result.ConversationID, 0)
	if len(messages) != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", len(messages))
	}
}

func TestSendMessageReusesConversation(t *testing.T) {
	chat, s, project := newChatFixture(t)

	first, err := chat.SendMessage(context.Background(), ChatRequest{
		ProjectID: project.ID, Persona: PersonaCreativeStrategist, Message: "first",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	second, err := chat.SendMessage(context.Background(), ChatRequest{
		ProjectID: project.ID, Persona: PersonaCreativeStrategist, Message: "second",
	})
	if err != nil {
		t.Fatalf("second SendMessage failed: %v", err)
	}

	if first.ConversationID != second.ConversationID {
		t.Error("expected the same conversation for repeat turns with one persona")
	}
	if got := len(s.ListConversations(project.ID)); got != 1 {
		t.Errorf("expected 1 conversation, got %d", got)
	}
}

func TestSendMessageRejectsUnassignedPersona(t *testing.T) {
	chat, _, project := newChatFixture(t)

	_, err := chat.SendMessage(context.Background(), ChatRequest{
		ProjectID: project.ID,
		Persona:   PersonaSoundscape, // not in the project's persona list
		Message:   "hello",
	})
	if !apperrors.IsValidationError(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestStreamMessageRecordsFinalReply(t *testing.T) {
	chat, s, project := newChatFixture(t)

	stream, err := chat.StreamMessage(context.Background(), ChatRequest{
		ProjectID: project.ID,
		Persona:   PersonaStoryboarder,
		Message:   "break it into shots",
	})
	if err != nil {
		t.Fatalf("StreamMessage failed: %v", err)
	}

	var sawDone bool
	for chunk := range stream {
		if chunk.Done {
			sawDone = true
		}
	}
	if !sawDone {
		t.Fatal("expected a terminal chunk")
	}

	conversation, found := s.FindConversation(project.ID, PersonaStoryboarder)
	if !found {
		t.Fatal("expected a conversation to exist")
	}
	messages := s.ListMessages(conversation.ID, 0)
	if len(messages) != 2 {
		t.Fatalf("expected 2 recorded messages after streaming, got %d", len(messages))
	}
	if !strings.Contains(messages[1].Content, "Chad Brinkley") {
		t.Errorf("expected the assembled reply to be recorded, got %q", messages[1].Content)
	}
}

func TestStreamMessagePersistsReplyWithoutTerminalChunk(t *testing.T) {
	chat, s, project := newChatFixture(t)
	if err := chat.llm.UpdateProvider("truncated", map[string]string{"default_model": "scripted-1"}); err != nil {
		t.Fatalf("UpdateProvider failed: %v", err)
	}

	stream, err := chat.StreamMessage(context.Background(), ChatRequest{
		ProjectID: project.ID,
		Persona:   PersonaStoryboarder,
		Message:   "break it into shots",
	})
	if err != nil {
		t.Fatalf("StreamMessage failed: %v", err)
	}

	var last llm.StreamResponse
	for chunk := range stream {
		last = chunk
	}
	if !last.Done {
		t.Error("expected a synthesized terminal chunk when the backend drops at EOF")
	}

	conversation, found := s.FindConversation(project.ID, PersonaStoryboarder)
	if !found {
		t.Fatal("expected a conversation to exist")
	}
	messages := s.ListMessages(conversation.ID, 0)
	if len(messages) != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", len(messages))
	}
	if !strings.Contains(messages[1].Content, "field reporter") {
		t.Errorf("expected the assembled reply to be recorded, got %q", messages[1].Content)
	}
}

func TestGetTranscript(t *testing.T) {
	chat, _, project := newChatFixture(t)

	if _, err := chat.SendMessage(context.Background(), ChatRequest{
		ProjectID: project.ID, Persona: PersonaCreativeStrategist, Message: "hello",
	}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	transcript, err := chat.GetTranscript(project.ID, PersonaCreativeStrategist, 0)
	if err != nil {
		t.Fatalf("GetTranscript failed: %v", err)
	}
	if len(transcript) != 2 {
		t.Errorf("expected 2 messages in the transcript, got %d", len(transcript))
	}

	empty, err := chat.GetTranscript(project.ID, PersonaStoryboarder, 0)
	if err != nil {
		t.Fatalf("GetTranscript for an idle persona failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected an empty transcript, got %d messages", len(empty))
	}
}
