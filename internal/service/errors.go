package service

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrConfiguration  = errors.New("automation API URL is not configured")
	ErrUpstreamFormat = errors.New("automation API returned a malformed response")
	ErrSessionExpired = errors.New("session expired")
	ErrUpstream       = errors.New("automation API reported a failure")
	ErrConnectivity   = errors.New("automation API is unreachable")
	ErrLocalStorage   = errors.New("media storage failure")
	ErrPersistence    = errors.New("database failure")

	ErrSessionNotFound   = errors.New("session not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrPostNotRemovable  = errors.New("only draft or scheduled posts can be deleted")
	ErrPublishInProgress = errors.New("a publish attempt for this post is already running")
	ErrCritical          = errors.New("critical error")
	ErrInvalidSchedule   = errors.New("scheduled time must be in the future")
	ErrInvalidMedia      = errors.New("invalid media")
	ErrCorruptCookie     = errors.New("stored cookie payload is not valid JSON")
	ErrLoginTaskNotFound = errors.New("login task not found")
)

// RemoteError is a failed call to the automation API.
type RemoteError struct {
	Kind       error
	StatusCode int
	Message    string
	Body       json.RawMessage
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeAuth
	OutcomeUpstream
	OutcomeConfiguration
	OutcomeFormat
	OutcomeConnectivity
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeAuth:
		return "auth"
	case OutcomeUpstream:
		return "upstream"
	case OutcomeConfiguration:
		return "configuration"
	case OutcomeFormat:
		return "format"
	case OutcomeConnectivity:
		return "connectivity"
	}
	return "unknown"
}

// Classify maps an automation client error onto the outcome every caller
// branches on. Errors outside the remote taxonomy count as upstream failures.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrSessionExpired):
		return OutcomeAuth
	case errors.Is(err, ErrConfiguration):
		return OutcomeConfiguration
	case errors.Is(err, ErrUpstreamFormat):
		return OutcomeFormat
	case errors.Is(err, ErrConnectivity):
		return OutcomeConnectivity
	}
	return OutcomeUpstream
}

// IsAuthStatus reports whether a remote status code means the cookie was
// rejected.
func IsAuthStatus(code int) bool {
	return code == 400 || code == 401
}
