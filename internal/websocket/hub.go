// Package websocket streams pipeline outcomes to connected dashboards.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/welldanyogia/webrana-gigbook-backend/internal/pipeline"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeSubscribed  MessageType = "subscribed"
	MessageTypeOutcome     MessageType = "outcome"
	MessageTypeError       MessageType = "error"
)

// AllTenants subscribes to every tenant's outcomes.
const AllTenants = "*"

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type   MessageType      `json:"type"`
	Tenant string           `json:"tenant,omitempty"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Hub maintains the set of active clients and fans pipeline outcomes out to
// the clients subscribed to the outcome's tenant.
type Hub struct {
	clients map[*Client]bool

	// tenant slug -> set of clients
	subscriptions map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscriptionRequest
	unsubscribe chan *subscriptionRequest
	broadcast   chan *broadcastMessage

	// done is closed when Run returns.
	done chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

type subscriptionRequest struct {
	client *Client
	tenant string
}

type broadcastMessage struct {
	tenant  string
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *subscriptionRequest),
		unsubscribe:   make(chan *subscriptionRequest),
		broadcast:     make(chan *broadcastMessage, 256),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// Run starts the hub's main loop. When ctx is done it returns and every
// client's write pump closes its connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.debug("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				for tenant, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, tenant)
					}
				}
			}
			h.mu.Unlock()
			h.debug("client unregistered")

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.clients[req.client] {
				if h.subscriptions[req.tenant] == nil {
					h.subscriptions[req.tenant] = make(map[*Client]bool)
				}
				h.subscriptions[req.tenant][req.client] = true
				req.client.queue(WSMessage{Type: MessageTypeSubscribed, Tenant: req.tenant})
			}
			h.mu.Unlock()
			h.debug("client subscribed", slog.String("tenant", req.tenant))

		case req := <-h.unsubscribe:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.tenant]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.tenant)
				}
			}
			h.mu.Unlock()
			h.debug("client unsubscribed", slog.String("tenant", req.tenant))

		case msg := <-h.broadcast:
			h.mu.RLock()
			sent := make(map[*Client]bool)
			for _, tenant := range []string{msg.tenant, AllTenants} {
				for client := range h.subscriptions[tenant] {
					if sent[client] {
						continue
					}
					sent[client] = true
					select {
					case client.send <- msg.message:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe subscribes a client to a tenant's outcomes
func (h *Hub) Subscribe(client *Client, tenant string) {
	select {
	case h.subscribe <- &subscriptionRequest{client: client, tenant: normalizeTenant(tenant)}:
	case <-h.done:
	}
}

// Unsubscribe unsubscribes a client from a tenant's outcomes
func (h *Hub) Unsubscribe(client *Client, tenant string) {
	select {
	case h.unsubscribe <- &subscriptionRequest{client: client, tenant: normalizeTenant(tenant)}:
	case <-h.done:
	}
}

// Observe implements pipeline.Observer. It never blocks the pipeline: when
// the broadcast queue is full the outcome is dropped.
func (h *Hub) Observe(res pipeline.Result) {
	tenant := normalizeTenant(res.TenantSlug)
	data, err := json.Marshal(WSMessage{Type: MessageTypeOutcome, Tenant: tenant, Result: &res})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal outcome", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{tenant: tenant, message: data}:
	default:
		if h.logger != nil {
			h.logger.Warn("outcome feed backlog full, dropping outcome",
				slog.String("run_id", res.RunID))
		}
	}
}

// Subscribers returns how many clients follow tenant.
func (h *Hub) Subscribers(tenant string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[normalizeTenant(tenant)])
}

func (h *Hub) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

func normalizeTenant(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
