package transfer

import "github.com/maheshrc27/fbscheduler/internal/models"

type PagesRequest struct {
	SessionID *int64 `json:"session_id"`
	Refresh   bool   `json:"refresh"`
}

type PageSelection struct {
	SessionID int64    `json:"session_id" validate:"required,gt=0"`
	PageIDs   []string `json:"page_ids" validate:"required,min=1,dive,required"`
	Selected  bool     `json:"selected"`
}

type PageListing struct {
	SessionID int64          `json:"session_id"`
	Cached    bool           `json:"-"`
	Pages     []*models.Page `json:"pages"`
}
