package transfer

import "strings"

type SessionCreate struct {
	Name   string `json:"name" validate:"required,max=255"`
	Cookie string `json:"cookie" validate:"required"`
}

type SessionUpdate struct {
	Name   *string `json:"name" validate:"omitempty,max=255"`
	Cookie *string `json:"cookie" validate:"omitempty,min=2"`
}

// LoginRequest accepts the field aliases older dashboard builds send.
type LoginRequest struct {
	Email          string `json:"email"`
	User           string `json:"user"`
	Password       string `json:"password"`
	Pass           string `json:"pass"`
	Wait2FASeconds *int   `json:"wait_2fa_seconds" validate:"omitempty,min=0,max=600"`
	Timeout        *int   `json:"timeout" validate:"omitempty,min=0,max=600"`
}

func (r *LoginRequest) Identity() string {
	if v := strings.TrimSpace(r.Email); v != "" {
		return v
	}
	return strings.TrimSpace(r.User)
}

func (r *LoginRequest) Secret() string {
	if v := strings.TrimSpace(r.Password); v != "" {
		return v
	}
	return strings.TrimSpace(r.Pass)
}

// WaitSeconds returns the requested 2FA wait, or def when none was sent.
func (r *LoginRequest) WaitSeconds(def int) int {
	switch {
	case r.Wait2FASeconds != nil:
		return *r.Wait2FASeconds
	case r.Timeout != nil:
		return *r.Timeout
	}
	return def
}
