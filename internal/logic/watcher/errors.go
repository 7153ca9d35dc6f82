package watcher

import "errors"

var (
	ErrSubscriptionFailed = errors.New("pod subscription failed")
	ErrNotStarted         = errors.New("watcher is not started")
	ErrStopped            = errors.New("watcher loop exited")
	ErrStale              = errors.New("pod subscription is stale")
)
