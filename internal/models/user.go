package models

import "time"

type User struct {
	ID            int64      `json:"id,string"`
	Username      string     `json:"username"`
	Active        bool       `json:"active"`
	Staged        bool       `json:"staged"`
	SuspendedTill *time.Time `json:"suspended_till,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Eligible reports whether the user counts toward channel membership
// totals: active, not staged, and not currently suspended.
func (u *User) Eligible(now time.Time) bool {
	if !u.Active || u.Staged {
		return false
	}
	return u.SuspendedTill == nil || !u.SuspendedTill.After(now)
}
