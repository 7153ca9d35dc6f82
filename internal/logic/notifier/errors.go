package notifier

import "errors"

var (
	ErrNotifierFailed = errors.New("notifier failed")
	ErrNotStarted     = errors.New("notifier is not started")
	ErrStopped        = errors.New("notifier loop exited")
)
