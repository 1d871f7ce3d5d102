package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	redisclient "github.com/victorivanov/chatsync/internal/redis"
)

// Manager keeps the registry of live WebSocket subscribers and fans
// redis topic messages out to all of them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Connection

	redis  *redisclient.Client
	logger *slog.Logger
}

func NewManager(redis *redisclient.Client, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Connection),
		redis:    redis,
		logger:   logger,
	}
}

func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[c.SessionID] = c
}

func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[c.SessionID]; ok && existing == c {
		delete(m.sessions, c.SessionID)
	}
}

// ConnectionCount returns the number of live subscribers.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Broadcast delivers a frame to every current subscriber.
func (m *Manager) Broadcast(event string, data json.RawMessage) {
	frame := Frame{Event: event, Data: data}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.sessions {
		c.SendFrame(frame)
	}
}

// Run subscribes to both broadcast topics and forwards every payload to
// all connected clients until the context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	sub := m.redis.Subscribe(ctx, redisclient.ChannelMetadataTopic, redisclient.UserStatusTopic)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				m.closeAll()
				return nil
			}
			event := EventChannelMetadata
			if msg.Channel == redisclient.UserStatusTopic {
				event = EventUserStatus
			}
			m.Broadcast(event, json.RawMessage(msg.Payload))
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.sessions))
	for _, c := range m.sessions {
		conns = append(conns, c)
	}
	m.sessions = make(map[string]*Connection)
	m.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
