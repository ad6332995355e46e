package models

import "time"

// SettingAPIURL holds the base URL of the automation API.
const SettingAPIURL = "fb_api_url"

type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
