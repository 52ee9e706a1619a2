package websocket

import (
	"sync"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

// Hub fans ingested runs and regression alerts out to connected WebSocket
// clients. Implements port.NotificationService.
type Hub struct {
	clients map[*Client]bool

	broadcastRun   chan *dto.RunEventDTO
	broadcastAlert chan *dto.AlertDTO

	register   chan *Client
	unregister chan *Client

	// guards clients
	mu sync.RWMutex

	logger *logger.Logger
}

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcastRun:   make(chan *dto.RunEventDTO, 256),
		broadcastAlert: make(chan *dto.AlertDTO, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		logger:         logger,
	}
}

// Run drives the hub loop. Must be started in its own goroutine.
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", total)

		case event := <-h.broadcastRun:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- Message{Type: "run", Data: event}:
				default:
					// client cannot keep up, drop it
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Client channel full, disconnected")
				}
			}
			h.mu.Unlock()

		case alert := <-h.broadcastAlert:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- Message{Type: "alert", Data: alert}:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
			h.logger.Debug("Alert broadcasted to clients", "level", alert.Level)
		}
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastRun sends an ingested run to all connected clients
func (h *Hub) BroadcastRun(event *dto.RunEventDTO) {
	select {
	case h.broadcastRun <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping run event")
	}
}

// BroadcastAlert sends a regression alert to all connected clients
func (h *Hub) BroadcastAlert(alert *dto.AlertDTO) {
	select {
	case h.broadcastAlert <- alert:
	default:
		h.logger.Warn("Broadcast alert channel full, dropping alert")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message is the wire envelope sent to clients
type Message struct {
	Type string      `json:"type"` // "run" or "alert"
	Data interface{} `json:"data"`
}
