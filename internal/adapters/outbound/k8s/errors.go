package k8s

import "errors"

var (
	errWatchClosed     = errors.New("watch channel closed")
	errResourceExpired = errors.New("watch resource version expired")
)

// UnauthorizedError reports that the credentials may not list or watch pods.
type UnauthorizedError struct {
	Err error
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized: " + e.Err.Error()
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

func (e *UnauthorizedError) IsUnauthorized() {}

// PodNotFoundError represents a "not found" case that is not an error.
type PodNotFoundError struct {
	What string
}

func (e *PodNotFoundError) Error() string {
	return e.What + " not found"
}

func (e *PodNotFoundError) IsNotFound() {}

var (
	errPodNotFound              = &PodNotFoundError{What: "pod metrics"}
	errContainerMetricsNotFound = &PodNotFoundError{What: "container metrics"}
)

// LogsNotFoundError reports that there is no previous terminated container to
// read logs from.
type LogsNotFoundError struct {
	Container string
}

func (e *LogsNotFoundError) Error() string {
	return "previous terminated container \"" + e.Container + "\" not found"
}

func (e *LogsNotFoundError) IsNotFound() {}
