package models

// Page is a cached remote page. IsSelected only exists locally.
type Page struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	SessionID  int64  `db:"session_id" json:"session_id"`
	IsSelected bool   `db:"is_selected" json:"is_selected"`
}
