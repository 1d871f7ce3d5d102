package presence

import (
	"context"
	"log/slog"

	redisclient "github.com/victorivanov/chatsync/internal/redis"
)

// Consumer feeds pushed user-status patches into a Tracker. Patches are
// applied in delivery order on a single goroutine.
type Consumer struct {
	tracker *Tracker
	redis   *redisclient.Client
	logger  *slog.Logger
}

func NewConsumer(tracker *Tracker, redis *redisclient.Client, logger *slog.Logger) *Consumer {
	return &Consumer{tracker: tracker, redis: redis, logger: logger}
}

// Run subscribes to the user-status topic and applies every patch until
// the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	sub := c.redis.Subscribe(ctx, redisclient.UserStatusTopic)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := c.tracker.ApplyJSON([]byte(msg.Payload)); err != nil {
				c.logger.Warn("dropping malformed status patch", "error", err)
			}
		}
	}
}
