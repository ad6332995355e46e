package models

import "time"

const (
	LoginTaskPending   = "pending"
	LoginTaskSucceeded = "succeeded"
	LoginTaskFailed    = "failed"
)

// LoginTask tracks a background login against the automation API, which can
// block for minutes while the account owner approves 2FA.
type LoginTask struct {
	ID        string    `db:"id" json:"id"`
	Identity  string    `db:"identity" json:"identity"`
	Status    string    `db:"status" json:"status"`
	Error     *string   `db:"error" json:"error"`
	SessionID *int64    `db:"session_id" json:"session_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
