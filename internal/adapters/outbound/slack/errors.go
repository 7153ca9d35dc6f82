package slack

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid slack config")
	ErrAPI           = errors.New("slack API error")
)

// APIError is a response that was not HTTP 2xx with "ok": true.
type APIError struct {
	Method     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s: %s (status %d)", ErrAPI, e.Method, e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return ErrAPI
}
