package transfer

import "time"

// PublishPost is the body of the publish entry point. The due-post sweep
// replays stored posts through the same shape.
type PublishPost struct {
	PostID      *int64 `json:"post_id" validate:"omitempty,gt=0"`
	SessionID   *int64 `json:"session_id" validate:"omitempty,gt=0"`
	PageID      string `json:"page_id" validate:"required"`
	Title       string `json:"title" validate:"max=500"`
	Comment     string `json:"comment"`
	ImageBase64 string `json:"image_base64"`
	SaveDraft   bool   `json:"save_draft"`
}

type SchedulePost struct {
	SessionID   *int64    `json:"session_id" validate:"omitempty,gt=0"`
	PageID      string    `json:"page_id" validate:"required"`
	Title       string    `json:"title" validate:"max=500"`
	Comment     string    `json:"comment"`
	ImageBase64 string    `json:"image_base64"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}
