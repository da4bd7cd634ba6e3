package ws_room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/andrewjfei/klick-server/internal/model"
)

var ErrClientNotFound = errors.New("can not find client")

// Bus carries encoded group frames between server instances. Every instance,
// the publishing one included, delivers frames it receives to its local
// group members. Subscribe returns once the subscription is active and
// keeps delivering until ctx is done.
type Bus interface {
	Publish(ctx context.Context, group string, frame []byte) error
	Subscribe(ctx context.Context, deliver func(group string, frame []byte)) error
}

type Recorder interface {
	BroadcastSent(event string)
	FrameDropped()
}

type noopRecorder struct{}

func (noopRecorder) BroadcastSent(string) {}
func (noopRecorder) FrameDropped()        {}

// Hub owns group membership: room code -> set of connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnID]*Client
	groups  map[string]map[*Client]bool

	bus      Bus
	recorder Recorder
	logger   *slog.Logger
}

type HubOption func(*Hub)

func WithBus(bus Bus) HubOption {
	return func(h *Hub) {
		h.bus = bus
	}
}

func WithRecorder(r Recorder) HubOption {
	return func(h *Hub) {
		h.recorder = r
	}
}

func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:  make(map[model.ConnID]*Client),
		groups:   make(map[string]map[*Client]bool),
		recorder: noopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start subscribes the hub to the bus. Frames published before Start
// returns are not delivered, so it must complete before clients connect.
func (h *Hub) Start(ctx context.Context) error {
	if h.bus == nil {
		return nil
	}
	return h.bus.Subscribe(ctx, h.deliver)
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	h.logger.Info("client registered", slog.String("connection_id", client.ID))
}

// Remove drops the client from every group and closes its send channel.
// It reports false when the client was already removed.
func (h *Hub) Remove(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return false
	}
	delete(h.clients, client.ID)

	for group := range client.groups {
		h.leave(client, group)
	}
	close(client.send)

	h.logger.Info("client unregistered", slog.String("connection_id", client.ID))
	return true
}

func (h *Hub) JoinGroup(ctx context.Context, connID model.ConnID, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return ErrClientNotFound
	}

	if _, exists := h.groups[group]; !exists {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][client] = true
	client.groups[group] = true
	return nil
}

func (h *Hub) LeaveGroup(ctx context.Context, connID model.ConnID, group string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return ErrClientNotFound
	}
	h.leave(client, group)
	return nil
}

func (h *Hub) leave(client *Client, group string) {
	delete(client.groups, group)
	if members, exists := h.groups[group]; exists {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) SendToGroup(ctx context.Context, group string, event model.Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.recorder.BroadcastSent(event.Type)

	if h.bus != nil {
		return h.bus.Publish(ctx, group, frame)
	}
	h.deliver(group, frame)
	return nil
}

// SendTo writes an event to a single connection.
func (h *Hub) SendTo(connID model.ConnID, event model.Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connID]
	if !ok {
		return ErrClientNotFound
	}
	h.push(client, frame)
	return nil
}

func (h *Hub) deliver(group string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.groups[group] {
		h.push(client, frame)
	}
}

// push never blocks; a client whose buffer is full misses the frame.
func (h *Hub) push(client *Client, frame []byte) {
	select {
	case client.send <- frame:
	default:
		h.recorder.FrameDropped()
		h.logger.Warn("send buffer full, frame dropped", slog.String("connection_id", client.ID))
	}
}
