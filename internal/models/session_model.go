package models

import "time"

const (
	SessionStatusPending  = "pending"
	SessionStatusVerified = "verified"
	SessionStatusActive   = "active"
	SessionStatusInactive = "inactive"
)

// Session is a stored Facebook login (cookie set) and its verification state.
// CUser, UserName and VerifiedAt are only populated once the session has been
// verified at least once.
type Session struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Cookie     string     `db:"cookie" json:"cookie"`
	Status     string     `db:"status" json:"status"`
	CUser      *string    `db:"c_user" json:"c_user"`
	UserName   *string    `db:"user_name" json:"user_name"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	VerifiedAt *time.Time `db:"verified_at" json:"verified_at"`
}
