package database

import (
	"context"
	"time"

	"github.com/victorivanov/chatsync/internal/models"
)

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	// ListActive returns all non-deleted channels. Trashed channels are
	// invisible to the reconciliation engine.
	ListActive(ctx context.Context) ([]models.Channel, error)
	SetStatus(ctx context.Context, id int64, status models.ChannelStatus) error
	SetSlug(ctx context.Context, id int64, slug *string) error
	// SetAllowChannelWideMentions persists the flag; a nil value attempts
	// to write NULL and fails with ErrNotNullViolation.
	SetAllowChannelWideMentions(ctx context.Context, id int64, allow *bool) error
	// UpdateCounts conditionally writes both counters in one atomic
	// statement. It reports whether a row was actually updated; a false
	// return means the row was already current, trashed, or raced with a
	// concurrent reconciliation run.
	UpdateCounts(ctx context.Context, id, messagesCount, userCount int64) (bool, error)
	Trash(ctx context.Context, id int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	GetByChannelID(ctx context.Context, channelID int64, limit int) ([]models.Message, error)
	Trash(ctx context.Context, id int64) error
}

type MembershipRepository interface {
	// Upsert creates the membership or updates its following flag.
	Upsert(ctx context.Context, m *models.Membership) error
	Get(ctx context.Context, userID, channelID int64) (*models.Membership, error)
	GetByChannelID(ctx context.Context, channelID int64) ([]models.Membership, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetStaged(ctx context.Context, id int64, staged bool) error
	SetSuspendedTill(ctx context.Context, id int64, till *time.Time) error
}

// AggregateRepository exposes the read-only count queries the
// reconciliation engine diffs against stored counters. The batched forms
// compute totals for every channel in one round trip; absent keys mean 0.
type AggregateRepository interface {
	MessageCounts(ctx context.Context) (map[int64]int64, error)
	MembershipCounts(ctx context.Context) (map[int64]int64, error)
	CountActiveMessages(ctx context.Context, channelID int64) (int64, error)
	CountActiveMemberships(ctx context.Context, channel *models.Channel) (int64, error)
}
