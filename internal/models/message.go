package models

import "time"

type Message struct {
	ID        int64      `json:"id,string"`
	ChannelID int64      `json:"channel_id,string"`
	UserID    int64      `json:"user_id,string"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Trashed reports whether the message is soft-deleted.
func (m *Message) Trashed() bool {
	return m.DeletedAt != nil
}
