package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Topic names for the two broadcast channels.
const (
	ChannelMetadataTopic = "chatsync:channel-metadata"
	UserStatusTopic      = "chatsync:user-status"
)

// Client wraps a Redis connection for pub/sub operations.
type Client struct {
	rdb *goredis.Client
}

// NewClient creates a Redis client from a URL and verifies the connection.
func NewClient(redisURL string) (*Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MembershipCountPayload is the body published for a channel whose
// membership count changed. Message-count corrections are not broadcast;
// subscribers observe new posts through the message event stream instead.
type MembershipCountPayload struct {
	ChannelID        int64 `json:"channel_id"`
	MembershipsCount int64 `json:"memberships_count"`
}

// PublishMembershipCount broadcasts a membership count change to all
// current subscribers of the channel metadata topic.
func (c *Client) PublishMembershipCount(ctx context.Context, channelID, membershipsCount int64) error {
	body, err := json.Marshal(MembershipCountPayload{
		ChannelID:        channelID,
		MembershipsCount: membershipsCount,
	})
	if err != nil {
		return fmt.Errorf("encoding membership count payload: %w", err)
	}
	if err := c.rdb.Publish(ctx, ChannelMetadataTopic, body).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", ChannelMetadataTopic, err)
	}
	return nil
}

// PublishUserStatus broadcasts a status patch for one or more users.
// A nil map value clears that user's status.
func (c *Client) PublishUserStatus(ctx context.Context, patch map[string]json.RawMessage) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encoding user status patch: %w", err)
	}
	if err := c.rdb.Publish(ctx, UserStatusTopic, body).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", UserStatusTopic, err)
	}
	return nil
}

// Subscribe opens a subscription on the given topics. The caller owns the
// returned PubSub and must Close it.
func (c *Client) Subscribe(ctx context.Context, topics ...string) *goredis.PubSub {
	return c.rdb.Subscribe(ctx, topics...)
}
