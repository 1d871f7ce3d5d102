package models

import "time"

// UserStatus is the ephemeral presence record shown on mentions of a
// user. It is never persisted; clients rebuild it from the initial
// render plus pushed patches.
type UserStatus struct {
	Description string     `json:"description"`
	Emoji       string     `json:"emoji"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}
