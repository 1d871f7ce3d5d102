package api

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/victorivanov/chatsync/internal/database"
	"github.com/victorivanov/chatsync/internal/models"
	"github.com/victorivanov/chatsync/internal/snowflake"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func testSnowflake() *snowflake.Generator {
	sf, _ := snowflake.NewGenerator(1, 1)
	return sf
}

// ---------------------------------------------------------------------------
// Mock channel repository
// ---------------------------------------------------------------------------

// mockChannelRepo is an in-memory ChannelRepository with the not-null
// constraint enforced the way Postgres would.
type mockChannelRepo struct {
	mu       sync.Mutex
	channels map[int64]*models.Channel
}

func newMockChannelRepo(channels ...models.Channel) *mockChannelRepo {
	m := &mockChannelRepo{channels: make(map[int64]*models.Channel)}
	for _, ch := range channels {
		c := ch
		m.channels[c.ID] = &c
	}
	return m
}

func (m *mockChannelRepo) Create(_ context.Context, ch *models.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch.CreatedAt = time.Now()
	c := *ch
	m.channels[c.ID] = &c
	return nil
}

func (m *mockChannelRepo) GetByID(_ context.Context, id int64) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok {
		return nil, nil
	}
	c := *ch
	return &c, nil
}

func (m *mockChannelRepo) ListActive(_ context.Context) ([]models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Channel
	for _, ch := range m.channels {
		if ch.DeletedAt == nil {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (m *mockChannelRepo) SetStatus(_ context.Context, id int64, status models.ChannelStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[id]; ok {
		ch.Status = status
	}
	return nil
}

func (m *mockChannelRepo) SetSlug(_ context.Context, id int64, slug *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[id]; ok {
		ch.Slug = slug
	}
	return nil
}

func (m *mockChannelRepo) SetAllowChannelWideMentions(_ context.Context, id int64, allow *bool) error {
	if allow == nil {
		return database.ErrNotNullViolation
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[id]; ok {
		ch.AllowChannelWideMentions = *allow
	}
	return nil
}

func (m *mockChannelRepo) UpdateCounts(_ context.Context, id, messagesCount, userCount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.channels[id]
	if !ok || ch.DeletedAt != nil {
		return false, nil
	}
	if ch.MessagesCount == messagesCount && ch.UserCount == userCount {
		return false, nil
	}
	ch.MessagesCount = messagesCount
	ch.UserCount = userCount
	return true, nil
}

func (m *mockChannelRepo) Trash(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.channels[id]; ok && ch.DeletedAt == nil {
		now := time.Now()
		ch.DeletedAt = &now
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mock message repository
// ---------------------------------------------------------------------------

type mockMessageRepo struct {
	mu       sync.Mutex
	messages map[int64]*models.Message
}

func newMockMessageRepo(messages ...models.Message) *mockMessageRepo {
	m := &mockMessageRepo{messages: make(map[int64]*models.Message)}
	for _, msg := range messages {
		mc := msg
		m.messages[mc.ID] = &mc
	}
	return m
}

func (m *mockMessageRepo) Create(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.CreatedAt = time.Now()
	mc := *msg
	m.messages[mc.ID] = &mc
	return nil
}

func (m *mockMessageRepo) GetByID(_ context.Context, id int64) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, nil
	}
	mc := *msg
	return &mc, nil
}

func (m *mockMessageRepo) GetByChannelID(_ context.Context, channelID int64, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if msg.ChannelID == channelID && msg.DeletedAt == nil {
			out = append(out, *msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockMessageRepo) Trash(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok && msg.DeletedAt == nil {
		now := time.Now()
		msg.DeletedAt = &now
	}
	return nil
}

// ---------------------------------------------------------------------------
// Mock reconciler
// ---------------------------------------------------------------------------

type mockReconciler struct {
	deltas []models.ChannelDelta
	err    error
	calls  int
}

func (m *mockReconciler) EnsureConsistency(context.Context) ([]models.ChannelDelta, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.deltas, nil
}

var errBoom = errors.New("boom")
