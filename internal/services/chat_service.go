// internal/services/chat_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/satireworks/greenroom/internal/errors"
	"github.com/satireworks/greenroom/internal/llm"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/store"
	"github.com/satireworks/greenroom/internal/utils"
)

// historyWindow is how many prior turns go into a persona prompt.
const historyWindow = 20

// ChatService drives persona conversations: it resolves the conversation,
// appends the user turn, enriches the prompt through the context tracker,
// calls the LLM and records the reply.
type ChatService struct {
	store   *store.Store
	llm     *LLMService
	context *ContextService
	logger  *utils.Logger
}

// ChatRequest is one user turn addressed to a persona within a project.
type ChatRequest struct {
	ProjectID string `json:"project_id"`
	Persona   string `json:"persona"`
	Message   string `json:"message"`
	Model     string `json:"model,omitempty"`
}

// ChatResult is the recorded exchange.
type ChatResult struct {
	ConversationID string                 `json:"conversation_id"`
	UserMessage    models.Message         `json:"user_message"`
	Reply          models.Message         `json:"reply"`
	Snapshot       models.ContextSnapshot `json:"snapshot"`
	TokensUsed     int                    `json:"tokens_used,omitempty"`
}

func NewChatService(s *store.Store, llmService *LLMService, cs *ContextService) *ChatService {
	return &ChatService{
		store:   s,
		llm:     llmService,
		context: cs,
		logger:  utils.GetLogger(),
	}
}

// resolveConversation finds or creates the project's conversation with a
// persona, validating that the persona is assigned to the project.
func (c *ChatService) resolveConversation(req ChatRequest) (*models.Conversation, *models.Project, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, nil, apperrors.NewValidationError("message is required", nil)
	}
	if !IsPersona(req.Persona) {
		return nil, nil, apperrors.NewValidationError("unknown persona: "+req.Persona, nil)
	}

	project, err := c.store.GetProject(req.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	assigned := false
	for _, id := range project.Personas {
		if id == req.Persona {
			assigned = true
			break
		}
	}
	if !assigned {
		return nil, nil, apperrors.NewValidationError(
			fmt.Sprintf("persona %s is not assigned to project %s", req.Persona, project.ID), nil)
	}

	if conversation, found := c.store.FindConversation(project.ID, req.Persona); found {
		return conversation, project, nil
	}

	conversation := &models.Conversation{
		ProjectID: project.ID,
		Persona:   req.Persona,
	}
	if err := c.store.CreateConversation(conversation); err != nil {
		return nil, nil, err
	}
	return conversation, project, nil
}

// buildBaseContext summarizes the project's current state for the prompt.
func (c *ChatService) buildBaseContext(project *models.Project) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Project: %s.", project.Name))
	if project.Description != "" {
		sb.WriteString(" " + project.Description)
	}

	if articles := c.store.ListArticles(project.ID); len(articles) > 0 {
		latest := articles[len(articles)-1]
		content := latest.Content
		if len(content) > 1500 {
			content = content[:1500] + "..."
		}
		sb.WriteString(fmt.Sprintf("\n\nSource article %q:\n%s", latest.Title, content))
	}

	for _, strategy := range c.store.ListStrategies(project.ID) {
		if strategy.Status == models.StrategyApproved {
			sb.WriteString(fmt.Sprintf("\n\nApproved strategy (v%d): %s", strategy.Version, strategy.Concept))
			if len(strategy.SatiricalAngles) > 0 {
				sb.WriteString("\nAngles: " + strings.Join(strategy.SatiricalAngles, "; "))
			}
			if len(strategy.Archetypes) > 0 {
				sb.WriteString("\nArchetypes: " + strings.Join(strategy.Archetypes, "; "))
			}
			break
		}
	}

	for _, script := range c.store.ListScripts(project.ID) {
		shots := c.store.ListShots(script.ID)
		if len(shots) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n\nScript %q, %d shots:", script.Title, len(shots)))
		for _, shot := range shots {
			sb.WriteString(fmt.Sprintf("\n- shot %d (%.1fs): %s", shot.PanelNumber, shot.LengthSeconds, shot.Visual))
		}
	}

	return sb.String()
}

// SendMessage runs one blocking persona turn and records both sides of it.
func (c *ChatService) SendMessage(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	conversation, project, err := c.resolveConversation(req)
	if err != nil {
		return nil, err
	}

	persona, err := GetPersona(req.Persona)
	if err != nil {
		return nil, err
	}

	history := c.store.ListMessages(conversation.ID, historyWindow)

	userMessage := &models.Message{
		ConversationID: conversation.ID,
		Sender:         models.SenderUser,
		Content:        req.Message,
	}
	if err := c.store.AppendMessage(userMessage); err != nil {
		return nil, err
	}

	enhanced := c.context.CreateEnhancedContext(
		project.ID, req.Persona, c.buildBaseContext(project), conversation.ID)

	response, err := c.llm.GeneratePersonaReply(ctx, PersonaReplyRequest{
		Persona:     persona,
		UserMessage: req.Message,
		Context:     enhanced,
		History:     history,
		Model:       req.Model,
	})
	if err != nil {
		return nil, err
	}

	reply := &models.Message{
		ConversationID: conversation.ID,
		Sender:         persona.ID,
		Content:        response.Text,
	}
	if err := c.store.AppendMessage(reply); err != nil {
		return nil, err
	}

	snapshot := c.context.UpdateContextAfterInteraction(
		project.ID, persona.ID, conversation.ID, response.Text)

	c.logger.Debug("persona turn completed", map[string]interface{}{
		"project_id": project.ID,
		"persona":    persona.ID,
		"tokens":     response.TokensUsed,
		"quality":    snapshot.QualityScore,
	})

	return &ChatResult{
		ConversationID: conversation.ID,
		UserMessage:    *userMessage,
		Reply:          *reply,
		Snapshot:       snapshot,
		TokensUsed:     response.TokensUsed,
	}, nil
}

// StreamMessage runs one persona turn as a chunk stream. The user turn is
// recorded up front; the assembled reply is recorded when the final chunk
// arrives.
func (c *ChatService) StreamMessage(ctx context.Context, req ChatRequest) (<-chan llm.StreamResponse, error) {
	conversation, project, err := c.resolveConversation(req)
	if err != nil {
		return nil, err
	}

	persona, err := GetPersona(req.Persona)
	if err != nil {
		return nil, err
	}

	history := c.store.ListMessages(conversation.ID, historyWindow)

	userMessage := &models.Message{
		ConversationID: conversation.ID,
		Sender:         models.SenderUser,
		Content:        req.Message,
	}
	if err := c.store.AppendMessage(userMessage); err != nil {
		return nil, err
	}

	enhanced := c.context.CreateEnhancedContext(
		project.ID, req.Persona, c.buildBaseContext(project), conversation.ID)

	upstream, err := c.llm.StreamPersonaReply(ctx, PersonaReplyRequest{
		Persona:     persona,
		UserMessage: req.Message,
		Context:     enhanced,
		History:     history,
		Model:       req.Model,
	})
	if err != nil {
		return nil, err
	}

	out := make(chan llm.StreamResponse)
	go func() {
		defer close(out)

		record := func(text string) {
			reply := &models.Message{
				ConversationID: conversation.ID,
				Sender:         persona.ID,
				Content:        text,
			}
			if err := c.store.AppendMessage(reply); err != nil {
				c.logger.Error("failed to record streamed reply", map[string]interface{}{
					"conversation_id": conversation.ID,
					"error":           err.Error(),
				})
			}
			c.context.UpdateContextAfterInteraction(
				project.ID, persona.ID, conversation.ID, text)
		}

		var full strings.Builder
		recorded := false
		for chunk := range upstream {
			if chunk.Done {
				// The final chunk carries the accumulated text.
				text := chunk.Text
				if text == "" {
					text = full.String()
				}
				record(text)
				recorded = true
			} else {
				full.WriteString(chunk.Text)
			}
			out <- chunk
		}

		// A provider that hits EOF without a terminal chunk still produced
		// a reply; persist it and give consumers a done marker.
		if !recorded && full.Len() > 0 {
			record(full.String())
			out <- llm.StreamResponse{Text: full.String(), FinishReason: "stop", Done: true}
		}
	}()

	return out, nil
}

// GetTranscript returns a conversation's messages, newest last.
func (c *ChatService) GetTranscript(projectID, persona string, limit int) ([]models.Message, error) {
	if !IsPersona(persona) {
		return nil, apperrors.NewValidationError("unknown persona: "+persona, nil)
	}
	conversation, found := c.store.FindConversation(projectID, persona)
	if !found {
		return []models.Message{}, nil
	}
	return c.store.ListMessages(conversation.ID, limit), nil
}

// ListConversations returns a project's conversations.
func (c *ChatService) ListConversations(projectID string) []models.Conversation {
	return c.store.ListConversations(projectID)
}

// TransferContext produces the persona handoff summary.
func (c *ChatService) TransferContext(projectID, fromPersona, toPersona string) (string, error) {
	if !IsPersona(fromPersona) || !IsPersona(toPersona) {
		return "", apperrors.NewValidationError("unknown persona in transfer", nil)
	}
	if _, err := c.store.GetProject(projectID); err != nil {
		return "", err
	}
	return c.context.PrepareContextTransfer(projectID, fromPersona, toPersona), nil
}
