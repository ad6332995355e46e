package transfer

type SettingsUpdate struct {
	FBAPIURL string `json:"fb_api_url" validate:"omitempty,url"`
}

type SettingsInfo struct {
	FBAPIURL string `json:"fb_api_url"`
}
