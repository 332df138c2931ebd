// Package websocket pushes lifecycle events to connected dashboard clients.
// The hub fans every event out to all clients; slow clients are dropped
// rather than allowed to stall the broadcast loop.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"hotspotcli/internal/infrastructure"
)

// Event type constants
const (
	TypeConnection         = "connection"
	TypeBatchCreated       = "voucher:batch_created"
	TypeVoucherUsage       = "voucher:usage"
	TypeVoucherExpired     = "voucher:expired"
	TypeVoucherDeleted     = "voucher:deleted"
	TypeSubscriptionStatus = "subscription:status"
)

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections  int64
	activeConnections int64
	messagesSent      int64

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
}

// Start starts the hub's main loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run processes register, unregister and broadcast requests until Shutdown
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.activeConnections = int64(count)
			h.mu.Unlock()

			ctx := clientContext(client)
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendConnectionAck(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.activeConnections = int64(count)
				h.mu.Unlock()

				h.logger.InfoContext(clientContext(client), "client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// deliver fans one message out to every client, dropping any whose send
// buffer is full.
func (h *Hub) deliver(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- message:
			h.messagesSent++
		default:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.WarnContext(clientContext(client), "client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}
}

// sendConnectionAck tells a newly connected client it is registered
func (h *Hub) sendConnectionAck(ctx context.Context, client *Client) {
	ack := map[string]interface{}{
		"type": TypeConnection,
		"data": map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"trace_id":  client.traceID,
	}

	payload, err := json.Marshal(ack)
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.WarnContext(ctx, "failed to send connection ack, client buffer full",
			slog.String("client_id", client.id))
	}
}

// BroadcastEvent marshals an event envelope and queues it for every client.
// Broadcasting never blocks the caller; when the hub queue is full the event
// is dropped and logged.
func (h *Hub) BroadcastEvent(eventType string, data interface{}) {
	envelope := map[string]interface{}{
		"type":      eventType,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("failed to marshal event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("broadcast queue full, event dropped",
			slog.String("event_type", eventType))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown stops the hub loop and disconnects all clients
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()
	close(h.quit)
}

// clientContext builds a context carrying the client's trace id
func clientContext(client *Client) context.Context {
	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}
	return ctx
}
