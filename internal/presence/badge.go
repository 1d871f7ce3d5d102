package presence

import (
	"sync"
	"time"

	"github.com/victorivanov/chatsync/internal/models"
)

// HoverState is the tooltip lifecycle state of one rendered badge.
type HoverState int

const (
	// Hidden: no tooltip node exists.
	Hidden HoverState = iota
	// Pending: the pointer entered and a reveal timer is running.
	Pending
	// Visible: the tooltip node is attached and shows the current status.
	Visible
)

// TooltipRenderer attaches and detaches the tooltip node for a badge.
// The rendering technology is the caller's business; the machine only
// guarantees Show is never called before MouseEnter and that Hide always
// detaches so the next reveal renders fresh content.
type TooltipRenderer interface {
	Show(status models.UserStatus)
	Hide()
}

// DefaultRevealDelay is how long the pointer must rest on a badge before
// the tooltip attaches.
const DefaultRevealDelay = 150 * time.Millisecond

// Badge is the hover state machine for one rendered mention of a user.
// It is re-enterable indefinitely; there is no terminal state. At most
// one reveal timer is live at a time.
type Badge struct {
	UserID int64

	mu       sync.Mutex
	state    HoverState
	status   *models.UserStatus
	timer    *time.Timer
	delay    time.Duration
	renderer TooltipRenderer
}

// NewBadge creates a badge in the Hidden state. A delay of 0 still defers
// the reveal to the timer goroutine, so content can never appear before
// the hover starts.
func NewBadge(userID int64, renderer TooltipRenderer, delay time.Duration) *Badge {
	return &Badge{
		UserID:   userID,
		state:    Hidden,
		delay:    delay,
		renderer: renderer,
	}
}

// State returns the current hover state.
func (b *Badge) State() HoverState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// HasStatus reports whether the badge currently has a status record.
func (b *Badge) HasStatus() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status != nil
}

// MouseEnter begins a reveal. Entering while already Pending or Visible,
// or with no status to show, does nothing.
func (b *Badge) MouseEnter() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Hidden || b.status == nil {
		return
	}
	b.state = Pending
	b.timer = time.AfterFunc(b.delay, b.reveal)
}

// MouseLeave hides immediately: the reveal in flight is cancelled and any
// rendered tooltip node detaches, so a fresh MouseEnter later is not
// short-circuited by stale state.
func (b *Badge) MouseLeave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
	if b.state == Visible {
		b.renderer.Hide()
	}
	b.state = Hidden
}

func (b *Badge) reveal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	// The leave may have raced the timer firing.
	if b.state != Pending || b.status == nil {
		return
	}
	b.state = Visible
	b.renderer.Show(*b.status)
}

// setStatus installs or replaces the record. A Visible tooltip re-renders
// with the new content.
func (b *Badge) setStatus(status models.UserStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = &status
	if b.state == Visible {
		b.renderer.Show(status)
	}
}

// clearStatus removes the record. A Visible tooltip is forced Hidden and
// its node detached; a Pending reveal is cancelled.
func (b *Badge) clearStatus() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = nil
	b.stopTimerLocked()
	if b.state == Visible {
		b.renderer.Hide()
	}
	b.state = Hidden
}

func (b *Badge) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
