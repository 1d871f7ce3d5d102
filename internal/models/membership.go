package models

import "time"

// Membership is the relationship between a user and a channel. Only
// memberships with Following set count toward a channel's user_count.
type Membership struct {
	UserID    int64     `json:"user_id,string"`
	ChannelID int64     `json:"channel_id,string"`
	Following bool      `json:"following"`
	CreatedAt time.Time `json:"created_at"`
}
