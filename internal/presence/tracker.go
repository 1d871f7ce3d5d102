package presence

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/victorivanov/chatsync/internal/models"
)

// Tracker holds the current status for every user seen in pushed patches
// and fans changes out to all registered badges. A user mentioned several
// times in one view has several badges; every one of them is updated.
//
// The map is rebuilt from the initial render plus patches and lives only
// as long as the view; nothing here is persisted.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[int64]models.UserStatus
	badges   map[int64][]*Badge
}

func NewTracker() *Tracker {
	return &Tracker{
		statuses: make(map[int64]models.UserStatus),
		badges:   make(map[int64][]*Badge),
	}
}

// Apply processes one patch. A non-nil value fully replaces the user's
// record; a nil value removes it and clears every rendered badge for that
// user. Users absent from the patch are untouched. A patch for a user
// with no badge in the view is a silent no-op on the rendering, but the
// map still updates so a later-rendered badge picks up the right state.
func (t *Tracker) Apply(patch map[int64]*models.UserStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for userID, status := range patch {
		if status == nil {
			delete(t.statuses, userID)
			for _, b := range t.badges[userID] {
				b.clearStatus()
			}
			continue
		}
		t.statuses[userID] = *status
		for _, b := range t.badges[userID] {
			b.setStatus(*status)
		}
	}
}

// ApplyJSON decodes a raw patch message and applies it. Patch keys are
// user ids as strings; values are status objects or JSON null.
func (t *Tracker) ApplyJSON(body []byte) error {
	var raw map[string]*models.UserStatus
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("decoding status patch: %w", err)
	}
	patch := make(map[int64]*models.UserStatus, len(raw))
	for key, status := range raw {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q in status patch: %w", key, err)
		}
		patch[userID] = status
	}
	t.Apply(patch)
	return nil
}

// Status returns the current record for a user, if any.
func (t *Tracker) Status(userID int64) (models.UserStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.statuses[userID]
	return s, ok
}

// Register attaches a badge to the tracker. If the user already has a
// status the badge is seeded with it immediately.
func (t *Tracker) Register(b *Badge) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.badges[b.UserID] = append(t.badges[b.UserID], b)
	if s, ok := t.statuses[b.UserID]; ok {
		b.setStatus(s)
	}
}

// Unregister detaches a badge, e.g. when its mention leaves the view.
func (t *Tracker) Unregister(b *Badge) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.badges[b.UserID]
	for i, reg := range list {
		if reg == b {
			t.badges[b.UserID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(t.badges[b.UserID]) == 0 {
		delete(t.badges, b.UserID)
	}
	b.clearStatus()
}
