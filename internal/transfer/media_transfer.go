package transfer

import "time"

type MediaFile struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

type MediaDelete struct {
	URL string `json:"url" validate:"required"`
}
