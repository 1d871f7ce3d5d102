package models

import (
	"strconv"
	"time"
)

type ChannelStatus int

const (
	ChannelStatusOpen     ChannelStatus = 0
	ChannelStatusReadOnly ChannelStatus = 1
	ChannelStatusArchived ChannelStatus = 2
)

func (s ChannelStatus) String() string {
	switch s {
	case ChannelStatusOpen:
		return "open"
	case ChannelStatusReadOnly:
		return "read_only"
	case ChannelStatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

type Channel struct {
	ID                       int64         `json:"id,string"`
	Name                     string        `json:"name"`
	Slug                     *string       `json:"slug,omitempty"`
	Status                   ChannelStatus `json:"status"`
	MessagesCount            int64         `json:"messages_count"`
	UserCount                int64         `json:"user_count"`
	AllowChannelWideMentions bool          `json:"allow_channel_wide_mentions"`
	CreatedAt                time.Time     `json:"created_at"`
	DeletedAt                *time.Time    `json:"deleted_at,omitempty"`
}

// RelativeURL returns the canonical path for the channel. A missing slug
// falls back to "-" so the path always has both segments.
func (c *Channel) RelativeURL() string {
	slug := "-"
	if c.Slug != nil && *c.Slug != "" {
		slug = *c.Slug
	}
	return "/chat/c/" + slug + "/" + strconv.FormatInt(c.ID, 10)
}

// ChannelDelta records one channel whose stored counters were corrected
// during a reconciliation pass.
type ChannelDelta struct {
	ChannelID     int64 `json:"channel_id,string"`
	MessagesCount int64 `json:"messages_count"`
	UserCount     int64 `json:"user_count"`
}
