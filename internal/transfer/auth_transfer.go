package transfer

import "github.com/golang-jwt/jwt/v5"

const (
	ScopeDashboard = "dashboard"
	ScopePoller    = "poller"
)

type CustomClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type DashboardLogin struct {
	Password string `json:"password" validate:"required"`
}
