package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidDelta progress delta failed validation
var ErrInvalidDelta = errors.New("invalid progress delta")

// ErrSessionExpired bearer token expired before the request was sent
var ErrSessionExpired = errors.New("session expired")

// ErrNoLessonBound mutation invoked on a controller without lesson
var ErrNoLessonBound = errors.New("no lesson bound")

// APIError non-2xx answer of the progress API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("progress api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("progress api: status %d: %s", e.StatusCode, e.Message)
}
