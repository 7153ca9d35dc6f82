package app

import "errors"

var (
	// ErrTerminationFile is returned when the termination file exists at startup
	ErrTerminationFile = errors.New("termination file found")

	// ErrWorkerStopped is returned when a worker exits while the app is running
	ErrWorkerStopped = errors.New("worker stopped unexpectedly")
)
