package app

import (
	"context"
	"os"
	"time"

	"github.com/inakam/k8s-restart-notify/internal/infra/appstate"
	"github.com/inakam/k8s-restart-notify/internal/infra/pinger"
	"github.com/inakam/k8s-restart-notify/internal/infra/shutdown"
)

// appstater defines the interface for application state management
type appstater interface {
	RegisterPinger(pinger pinger.Pinger) error
	RegisterShutdowner(shutdowner shutdown.Shutdowner) error
	Quit() <-chan os.Signal
	SetStarting(ctx context.Context) error
	SetRunning(ctx context.Context) error
	Shutdown(ctx context.Context) error
	GetState() appstate.State
	GetUptime() time.Duration
	GetStartTime() time.Time
	IsHealthy() bool
	IsReady() bool
	Statuses() map[string]pinger.Status
}

type signalHandler interface {
	HandleSignals(ctx context.Context, cancel func())
}

// component is a background service started by the app.
type component interface {
	shutdown.Shutdowner
	Start(ctx context.Context) error
	Ready() <-chan struct{}
}

// worker is a component whose loop can end on its own.
type worker interface {
	component
	pinger.Pinger
	Done() <-chan struct{}
	Err() error
}

type appServer interface {
	component
	pinger.Pinger
}
