// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satireworks/greenroom/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Tighten for production deployments.
		return true
	},
}

// WebSocketClient is a single live connection scoped to one project room.
type WebSocketClient struct {
	conn      WebSocketConnection
	projectID string
	userID    string
	send      chan []byte
	closed    int32
	lastPing  time.Time
	createdAt time.Time
}

// WebSocketManager tracks every open connection grouped by project.
type WebSocketManager struct {
	connections   map[string]map[WebSocketConnection]*WebSocketClient // projectID -> connections
	register      chan *WebSocketClient
	unregister    chan *WebSocketClient
	cleanup       chan bool
	mutex         sync.RWMutex
	pingTimeout   time.Duration
	cleanupTicker *time.Ticker
}

var wsManager = &WebSocketManager{
	connections: make(map[string]map[WebSocketConnection]*WebSocketClient),
	register:    make(chan *WebSocketClient, 256),
	unregister:  make(chan *WebSocketClient, 256),
	cleanup:     make(chan bool, 1),
	pingTimeout: 60 * time.Second,
}

// WebSocketConnection abstracts *websocket.Conn so tests can swap in a fake.
type WebSocketConnection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// WebSocketConnWrapper adapts a real gorilla connection to the interface.
type WebSocketConnWrapper struct {
	*websocket.Conn
}

func init() {
	go wsManager.run()
}

// Close marks the client closed and tears down the underlying connection.
// The send channel is owned by the write loop and closed there.
func (client *WebSocketClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

func (client *WebSocketClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

func (client *WebSocketClient) UpdatePing() {
	client.lastPing = time.Now()
}

func (client *WebSocketClient) IsExpired(timeout time.Duration) bool {
	if timeout <= 0 {
		return true
	}
	return time.Since(client.lastPing) > timeout
}

// SendMessage queues a JSON frame for the client. A full queue drops the
// frame rather than blocking the caller.
func (client *WebSocketClient) SendMessage(message map[string]interface{}) error {
	if client.IsClosed() {
		return nil
	}

	msgBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	if client.IsClosed() {
		return nil
	}

	select {
	case client.send <- msgBytes:
		return nil
	default:
		utils.GetLogger().Warn("websocket send queue full, frame dropped", map[string]interface{}{
			"user_id":    client.userID,
			"project_id": client.projectID,
		})
		return nil
	}
}

// SendError pushes an error frame to the client.
func (client *WebSocketClient) SendError(errorMsg string) {
	client.SendMessage(map[string]interface{}{
		"type":      "error",
		"error":     errorMsg,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (manager *WebSocketManager) run() {
	manager.cleanupTicker = time.NewTicker(30 * time.Second)
	defer manager.cleanupTicker.Stop()

	for {
		select {
		case client := <-manager.register:
			manager.registerClient(client)

		case client := <-manager.unregister:
			manager.unregisterClient(client)

		case <-manager.cleanupTicker.C:
			manager.cleanupExpiredConnections()

		case <-manager.cleanup:
			manager.shutdown()
			return
		}
	}
}

func (manager *WebSocketManager) registerClient(client *WebSocketClient) {
	if client == nil {
		return
	}

	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if manager.connections[client.projectID] == nil {
		manager.connections[client.projectID] = make(map[WebSocketConnection]*WebSocketClient)
	}

	manager.connections[client.projectID][client.conn] = client
	client.UpdatePing()

	utils.GetLogger().Info("websocket client connected", map[string]interface{}{
		"project_id": client.projectID,
		"user_id":    client.userID,
	})
}

func (manager *WebSocketManager) unregisterClient(client *WebSocketClient) {
	if client == nil {
		return
	}

	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if connections, exists := manager.connections[client.projectID]; exists {
		delete(connections, client.conn)
		if len(connections) == 0 {
			delete(manager.connections, client.projectID)
		}
	}

	if !client.IsClosed() {
		client.Close()
	}
}

// cleanupExpiredConnections drops clients whose last pong is past the
// ping timeout.
func (manager *WebSocketManager) cleanupExpiredConnections() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for projectID, connections := range manager.connections {
		for conn, client := range connections {
			if client.IsClosed() || client.IsExpired(manager.pingTimeout) {
				delete(connections, conn)
				if !client.IsClosed() {
					client.Close()
				}
			}
		}
		if len(connections) == 0 {
			delete(manager.connections, projectID)
		}
	}
}

// BroadcastToProject fans a frame out to every client watching a project.
func (manager *WebSocketManager) BroadcastToProject(projectID string, message map[string]interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return
	}

	manager.mutex.RLock()
	clients := make([]*WebSocketClient, 0)
	for _, client := range manager.connections[projectID] {
		if !client.IsClosed() {
			clients = append(clients, client)
		}
	}
	manager.mutex.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- msgBytes:
		default:
			// Slow consumer, skip.
		}
	}
}

// BroadcastAll sends a frame to every connected client regardless of project.
func (manager *WebSocketManager) BroadcastAll(message map[string]interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return
	}

	manager.mutex.RLock()
	clients := make([]*WebSocketClient, 0)
	for _, connections := range manager.connections {
		for _, client := range connections {
			if !client.IsClosed() {
				clients = append(clients, client)
			}
		}
	}
	manager.mutex.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- msgBytes:
		default:
		}
	}
}

func (manager *WebSocketManager) shutdown() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for _, connections := range manager.connections {
		for _, client := range connections {
			client.Close()
		}
	}
	manager.connections = make(map[string]map[WebSocketConnection]*WebSocketClient)
}

// GetStatus reports connection counts per project, used by the status endpoint.
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	total := 0
	perProject := make(map[string]int, len(manager.connections))
	for projectID, connections := range manager.connections {
		perProject[projectID] = len(connections)
		total += len(connections)
	}

	return map[string]interface{}{
		"total_connections": total,
		"projects":          perProject,
	}
}
