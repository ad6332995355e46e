package models

import "time"

type Post struct {
	ID            int64      `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Content       string     `db:"content" json:"content"`
	Status        string     `db:"status" json:"status"`
	ImageURL      *string    `db:"image_url" json:"image_url"`
	PageID        string     `db:"page_id" json:"page_id"`
	PageName      string     `db:"page_name" json:"page_name"`
	SessionID     int64      `db:"session_id" json:"session_id"`
	ScheduledAt   *time.Time `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at"`
	FBPostID      *string    `db:"fb_post_id" json:"fb_post_id"`
	ErrorLog      *string    `db:"error_log" json:"error_log"`
	AttemptCount  int        `db:"attempt_count" json:"attempt_count"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)
