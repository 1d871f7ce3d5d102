package consistency

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/victorivanov/chatsync/internal/database"
	"github.com/victorivanov/chatsync/internal/models"
)

// Publisher broadcasts a channel's new membership count to live
// subscribers. The engine injects it so tests can substitute a recording
// double.
type Publisher interface {
	PublishMembershipCount(ctx context.Context, channelID, membershipsCount int64) error
}

const defaultWorkers = 8

// Engine reconciles stored channel counters against the source tables.
// It is the sole writer of messages_count and user_count.
type Engine struct {
	channels   database.ChannelRepository
	aggregates database.AggregateRepository
	publisher  Publisher
	logger     *slog.Logger
	workers    int
}

func NewEngine(
	channels database.ChannelRepository,
	aggregates database.AggregateRepository,
	publisher Publisher,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		channels:   channels,
		aggregates: aggregates,
		publisher:  publisher,
		logger:     logger,
		workers:    defaultWorkers,
	}
}

// EnsureConsistency recomputes both counters for every non-deleted
// channel, persists only divergent rows, and publishes a membership count
// notification for each channel whose user_count actually changed.
// Message-count corrections are persisted silently; subscribers learn
// about new posts from the message event stream, not from this path.
//
// The operation is idempotent: an immediate second call with no
// intervening data changes updates zero rows and publishes nothing. A
// failure on one channel is logged and skipped, never fatal to the batch.
func (e *Engine) EnsureConsistency(ctx context.Context) ([]models.ChannelDelta, error) {
	channels, err := e.channels.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	messageCounts, err := e.aggregates.MessageCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing message counts: %w", err)
	}
	membershipCounts, err := e.aggregates.MembershipCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing membership counts: %w", err)
	}

	type divergence struct {
		channel models.Channel
		msgs    int64
		members int64
	}
	var divergent []divergence
	for _, ch := range channels {
		msgs := messageCounts[ch.ID]
		// Archived and read_only channels are pinned at zero members
		// regardless of underlying memberships.
		var members int64
		if ch.Status == models.ChannelStatusOpen {
			members = membershipCounts[ch.ID]
		}
		if msgs != ch.MessagesCount || members != ch.UserCount {
			divergent = append(divergent, divergence{channel: ch, msgs: msgs, members: members})
		}
	}

	var (
		mu     sync.Mutex
		deltas []models.ChannelDelta
		wg     sync.WaitGroup
		sem    = make(chan struct{}, e.workers)
	)
	for _, d := range divergent {
		wg.Add(1)
		sem <- struct{}{}
		go func(d divergence) {
			defer wg.Done()
			defer func() { <-sem }()

			updated, err := e.channels.UpdateCounts(ctx, d.channel.ID, d.msgs, d.members)
			if err != nil {
				e.logger.Error("updating channel counters",
					"channel_id", d.channel.ID, "error", err)
				return
			}
			// A concurrent run got there first; it owns the delta.
			if !updated {
				return
			}

			mu.Lock()
			deltas = append(deltas, models.ChannelDelta{
				ChannelID:     d.channel.ID,
				MessagesCount: d.msgs,
				UserCount:     d.members,
			})
			mu.Unlock()

			if d.members != d.channel.UserCount {
				if err := e.publisher.PublishMembershipCount(ctx, d.channel.ID, d.members); err != nil {
					// Persisted truth wins; delivery loss is an
					// operational signal, not a rollback.
					e.logger.Warn("publishing membership count",
						"channel_id", d.channel.ID, "error", err)
				}
			}
		}(d)
	}
	wg.Wait()

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].ChannelID < deltas[j].ChannelID })
	return deltas, nil
}
