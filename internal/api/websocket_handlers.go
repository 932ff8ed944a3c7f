// internal/api/websocket_handlers.go
package api

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/satireworks/greenroom/internal/di"
	"github.com/satireworks/greenroom/internal/services"
	"github.com/satireworks/greenroom/internal/utils"
)

// WebSocketHandler serves the live chat channel for project rooms.
type WebSocketHandler struct {
	chatService *services.ChatService
}

// NewWebSocketHandler wires the handler from the DI container.
func NewWebSocketHandler() *WebSocketHandler {
	container := di.GetContainer()

	return &WebSocketHandler{
		chatService: container.Get("chat").(*services.ChatService),
	}
}

// ProjectChatWebSocket upgrades the connection and keeps it attached to a
// project room. Incoming "chat_message" frames trigger a streamed persona
// reply; every chunk goes back on the same connection.
func (wh *WebSocketHandler) ProjectChatWebSocket(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		c.AbortWithStatus(400)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Error("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	userID := c.GetString("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	client := &WebSocketClient{
		conn:      &WebSocketConnWrapper{conn},
		projectID: projectID,
		userID:    userID,
		send:      make(chan []byte, 256),
		closed:    0,
		lastPing:  time.Now(),
		createdAt: time.Now(),
	}

	select {
	case wsManager.register <- client:
	default:
		utils.GetLogger().Warn("websocket register queue full, rejecting connection", nil)
		return
	}

	defer func() {
		done := make(chan bool, 1)
		go func() {
			wsManager.unregister <- client
			done <- true
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			utils.GetLogger().Warn("websocket unregister timed out", nil)
		}
	}()

	go wh.handleWebSocketWrites(client)
	go wh.handleWebSocketReads(client)

	client.SendMessage(map[string]interface{}{
		"type":       "connected",
		"project_id": projectID,
		"user_id":    userID,
		"timestamp":  time.Now().Format(time.RFC3339),
	})

	<-c.Request.Context().Done()
}

func (wh *WebSocketHandler) handleWebSocketReads(client *WebSocketClient) {
	defer func() {
		if !client.IsClosed() {
			select {
			case wsManager.unregister <- client:
			case <-time.After(1 * time.Second):
			}
		}
	}()

	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if client.IsClosed() {
			break
		}

		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		_, messageBytes, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				utils.GetLogger().Warn("websocket read error", map[string]interface{}{"error": err.Error()})
			}
			break
		}

		var message map[string]interface{}
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			client.SendError("invalid JSON frame")
			continue
		}

		client.UpdatePing()
		wh.handleMessage(client, message)
	}
}

func (wh *WebSocketHandler) handleWebSocketWrites(client *WebSocketClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		atomic.CompareAndSwapInt32(&client.closed, 0, 1)
		func() {
			defer func() {
				recover() // channel may already be closed
			}()
			close(client.send)
		}()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			if client.IsClosed() {
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if client.IsClosed() {
				return
			}

			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			client.UpdatePing()
		}
	}
}

func (wh *WebSocketHandler) handleMessage(client *WebSocketClient, message map[string]interface{}) {
	msgType, ok := message["type"].(string)
	if !ok {
		client.SendError("missing message type")
		return
	}

	switch msgType {
	case "chat_message":
		wh.handleChatMessage(client, message)
	case "ping":
		client.SendMessage(map[string]interface{}{
			"type":      "pong",
			"timestamp": time.Now().Unix(),
		})
	default:
		client.SendError("unknown message type: " + msgType)
	}
}

// handleChatMessage streams one persona turn back to the requesting client.
// Other clients in the room get a notification when the reply is complete.
func (wh *WebSocketHandler) handleChatMessage(client *WebSocketClient, message map[string]interface{}) {
	persona, ok := message["persona"].(string)
	if !ok || persona == "" {
		client.SendError("missing persona")
		return
	}

	userMessage, ok := message["message"].(string)
	if !ok || userMessage == "" {
		client.SendError("missing message content")
		return
	}

	model, _ := message["model"].(string)

	if wh.chatService == nil {
		client.SendError("chat service unavailable")
		return
	}

	req := services.ChatRequest{
		ProjectID: client.projectID,
		Persona:   persona,
		Message:   userMessage,
		Model:     model,
	}

	stream, err := wh.chatService.StreamMessage(context.Background(), req)
	if err != nil {
		client.SendError("chat failed: " + err.Error())
		return
	}

	go func() {
		var assembled string
		for chunk := range stream {
			if chunk.Done {
				client.SendMessage(map[string]interface{}{
					"type":      "chat:done",
					"persona":   persona,
					"reply":     chunk.Text,
					"model":     chunk.ModelName,
					"timestamp": time.Now().Format(time.RFC3339),
				})
				wsManager.BroadcastToProject(client.projectID, map[string]interface{}{
					"type":      "chat:update",
					"persona":   persona,
					"user_id":   client.userID,
					"timestamp": time.Now().Format(time.RFC3339),
				})
				return
			}

			assembled += chunk.Text
			client.SendMessage(map[string]interface{}{
				"type":    "chat:chunk",
				"persona": persona,
				"text":    chunk.Text,
			})
		}

		// Stream ended without a done marker, return what we have.
		if assembled != "" {
			client.SendMessage(map[string]interface{}{
				"type":      "chat:done",
				"persona":   persona,
				"reply":     assembled,
				"timestamp": time.Now().Format(time.RFC3339),
			})
		}
	}()
}
