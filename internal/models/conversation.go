// internal/models/conversation.go
package models

import (
	"time"
)

// SenderUser is the sender value for human-authored messages. Every other
// sender is a persona ID.
const SenderUser = "USER"

// Conversation groups the messages exchanged with one persona in one project.
type Conversation struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Persona     string    `json:"persona"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// Message is a single chat turn.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}
