package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-survey/backend/internal/session"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// EventCompleted announces that a respondent finished a poll.
	EventCompleted = "poll_completed"
)

// Publisher sends feed events to every server instance.
type Publisher interface {
	Publish(ctx context.Context, event string, pollID uuid.UUID, payload []byte) error
}

// Subscriber receives feed events published by any instance.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(event string, pollID uuid.UUID, payload []byte)) (cancel func(), err error)
}

// Hub maintains the operator connections watching the completion feed.
// With a Publisher, events go through Redis and every instance (this one included) broadcasts
// them once from its subscription.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
	pub     Publisher
}

// NewHub creates a new WebSocket hub. pub may be nil for a single instance.
func NewHub(logger *zap.Logger, pub Publisher) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		pub:     pub,
	}
}

// Listen subscribes to events from all instances and broadcasts them locally until ctx is done.
func (h *Hub) Listen(ctx context.Context, sub Subscriber) error {
	cancel, err := sub.Subscribe(ctx, func(event string, pollID uuid.UUID, payload []byte) {
		h.Broadcast(pollID, event, json.RawMessage(payload))
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return nil
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("feed client joined", zap.String("client_id", c.ID), zap.Stringer("poll_filter", c.PollID))
}

// Unregister removes a client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	h.logger.Debug("feed client left", zap.String("client_id", c.ID))
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to local clients watching pollID (or every poll).
func (h *Hub) Broadcast(pollID uuid.UUID, event string, payload any) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal feed event", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.PollID != uuid.Nil && c.PollID != pollID {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// slow consumer, drop
		}
	}
}

// Completed publishes a completion to the feed. It implements session.Notifier.
func (h *Hub) Completed(ctx context.Context, comp session.Completion) error {
	data, err := json.Marshal(comp)
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	if h.pub != nil {
		return h.pub.Publish(ctx, EventCompleted, comp.PollID, data)
	}
	h.Broadcast(comp.PollID, EventCompleted, json.RawMessage(data))
	return nil
}
