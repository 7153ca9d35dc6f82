package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inakam/k8s-restart-notify/internal/infra/shutdown"
)

// defaultPingTimeout is the default timeout for ping operations
const defaultPingTimeout = time.Second

// Status is the latest ping result of one component.
type Status struct {
	Name           string
	ReadyCritical  bool
	HealthCritical bool
	LastRun        time.Time
	LastLatency    time.Duration
	LastError      error
	SuccessCount   int64
	ErrorCount     int64
	Stats          map[string]int64
}

// Healthy reports whether the last ping succeeded or no ping has run yet.
func (s Status) Healthy() bool {
	return s.LastError == nil
}

// Ready reports whether at least one ping ran and the last one succeeded.
func (s Status) Ready() bool {
	return !s.LastRun.IsZero() && s.LastError == nil
}

type entry struct {
	pinger  Pinger
	timeout time.Duration
	status  Status
}

// Service pings registered components at a fixed interval and keeps their
// latest status.
type Service struct {
	logger     *slog.Logger
	interval   time.Duration
	mu         sync.RWMutex
	entries    map[string]*entry
	ready      chan struct{}
	started    atomic.Bool
	inShutdown atomic.Bool
	doneCh     chan struct{}
	wg         sync.WaitGroup
}

// New creates a new pinger service with the specified interval
func New(
	logger *slog.Logger,
	interval time.Duration,
) *Service {
	return &Service{
		logger:   logger.With("component", "pinger-service"),
		interval: interval,
		entries:  make(map[string]*entry),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Service)(nil)

// Name returns the name of the pinger service component
func (s *Service) Name() string {
	return "pinger-service"
}

// Register adds a pinger. Pingers are ready and health critical unless they
// opt out through PingerReadyCritical or PingerCritical.
func (s *Service) Register(pinger Pinger) error {
	if pinger == nil {
		return fmt.Errorf("register pinger: %w", ErrNilPinger)
	}

	name := pinger.Name()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("register pinger %s: %w", name, ErrPingerAlreadyRegistered)
	}

	e := &entry{
		pinger:  pinger,
		timeout: defaultPingTimeout,
		status: Status{
			Name:           name,
			ReadyCritical:  true,
			HealthCritical: true,
		},
	}

	if rc, ok := pinger.(readyCriticalPinger); ok {
		e.status.ReadyCritical = rc.PingerReadyCritical()
	}

	if hc, ok := pinger.(healthCriticalPinger); ok {
		e.status.HealthCritical = hc.PingerCritical()
	}

	if tp, ok := pinger.(timeoutPinger); ok && tp.PingerTimeout() > 0 {
		e.timeout = tp.PingerTimeout()
	}

	s.entries[name] = e

	s.logger.Info("pinger registered",
		"name", name,
		"readyCritical", e.status.ReadyCritical,
		"healthCritical", e.status.HealthCritical,
		"timeout", e.timeout,
	)

	return nil
}

// Start starts the pinger loop in a goroutine
func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "pinger service is shutting down, skipping start")

		return nil
	}

	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready is closed after the first round of pings.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Shutdown waits for the pinger loop and in-flight pings to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "pinger service is already shutting down, skipping shutdown")

		return nil
	}

	s.logger.InfoContext(ctx, "shutting down pinger service")

	if !s.started.Load() {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pinger loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "pinger loop exited")
	}

	s.wg.Wait()

	return nil
}

// Statuses returns a copy of the latest status of every pinger.
func (s *Service) Statuses() map[string]Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Status, len(s.entries))
	for name, e := range s.entries {
		result[name] = e.status
	}

	return result
}

// IsReady reports whether every ready critical pinger is ready.
func (s *Service) IsReady() bool {
	for _, status := range s.Statuses() {
		if status.ReadyCritical && !status.Ready() {
			return false
		}
	}

	return true
}

// IsHealthy reports whether every health critical pinger is healthy.
func (s *Service) IsHealthy() bool {
	for _, status := range s.Statuses() {
		if status.HealthCritical && !status.Healthy() {
			return false
		}
	}

	return true
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runPingers(ctx)
	close(s.ready)

	for {
		if s.inShutdown.Load() {
			s.logger.InfoContext(ctx, "terminating pinger loop")

			return
		}

		select {
		case <-ticker.C:
			s.runPingers(ctx)
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "terminating pinger loop")

			return
		}
	}
}

// runPingers executes all registered pingers in parallel and waits for them.
func (s *Service) runPingers(ctx context.Context) {
	s.mu.RLock()
	entries := maps.Clone(s.entries)
	s.mu.RUnlock()

	var wg sync.WaitGroup

	for name, e := range entries {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		s.wg.Add(1)

		go func() {
			defer wg.Done()
			defer s.wg.Done()

			pingCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			start := time.Now()
			err := e.pinger.Ping(pingCtx)
			latency := time.Since(start)

			var stats map[string]int64
			if sp, ok := e.pinger.(statsPinger); ok {
				stats = sp.PingerStats()
			}

			s.record(name, start, latency, err, stats)

			if err != nil {
				s.logger.DebugContext(ctx, "pinger error", "name", name, "latency", latency, "reason", err)

				return
			}

			s.logger.DebugContext(ctx, "pinger success", "name", name, "latency", latency)
		}()
	}

	wg.Wait()
}

func (s *Service) record(name string, at time.Time, latency time.Duration, err error, stats map[string]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return
	}

	e.status.LastRun = at
	e.status.LastLatency = latency
	e.status.LastError = err
	e.status.Stats = stats

	if err != nil {
		e.status.ErrorCount++

		return
	}

	e.status.SuccessCount++
}
