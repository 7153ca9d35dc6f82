package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inakam/k8s-restart-notify/internal/infra/metrics"
	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

// Config holds the watch loop settings.
type Config struct {
	IgnoreNamespaces  []string
	DefaultChannel    string
	ChannelAnnotation string
	Region            string
	ProjectID         string
	ClusterID         string
	LogTailLines      int64
	EnrichTimeout     time.Duration
	StaleAfter        time.Duration
}

// Service is the watch loop: it feeds pod snapshots to the tracker, enriches
// every detected restart and pushes it onto the notification queue.
type Service struct {
	logger     *slog.Logger
	repo       Repository
	tracker    *restart.Tracker
	queue      *restart.Queue
	cfg        Config
	now        func() time.Time
	ready      chan struct{}
	readyOnce  sync.Once
	doneCh     chan struct{}
	started    atomic.Bool
	inShutdown atomic.Bool
	lastSyncAt atomic.Int64
	mu         sync.RWMutex
	err        error
}

// New creates a new watcher service.
func New(
	logger *slog.Logger,
	repo Repository,
	tracker *restart.Tracker,
	queue *restart.Queue,
	cfg Config,
) *Service {
	if cfg.ChannelAnnotation == "" {
		cfg.ChannelAnnotation = DefaultChannelAnnotation
	}

	if cfg.LogTailLines <= 0 {
		cfg.LogTailLines = DefaultLogTailLines
	}

	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = DefaultEnrichTimeout
	}

	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}

	return &Service{
		logger:  logger.With("component", "restart-watcher"),
		repo:    repo,
		tracker: tracker,
		queue:   queue,
		cfg:     cfg,
		now:     time.Now,
		ready:   make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Name returns the name of the component
func (s *Service) Name() string {
	return "restart-watcher"
}

// Start runs the watch loop in the background. The loop result is available
// from Err once Done is closed.
func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "watcher is shutting down, skipping start")

		return nil
	}

	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	go func() {
		_ = s.RunCommand(ctx)
	}()

	return nil
}

// Ready is closed once the first pod list has been processed.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed when the watch loop has exited and the queue is closed.
func (s *Service) Done() <-chan struct{} {
	return s.doneCh
}

// Err returns the error the watch loop exited with.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.err
}

// LastSync returns the time the last pod batch was received.
func (s *Service) LastSync() time.Time {
	nanos := s.lastSyncAt.Load()
	if nanos == 0 {
		return time.Time{}
	}

	return time.Unix(0, nanos)
}

func (s *Service) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.doneCh:
		return ErrStopped
	default:
	}

	select {
	case <-s.ready:
	default:
		return ErrNotStarted
	}

	if since := s.now().Sub(s.LastSync()); since > s.cfg.StaleAfter {
		return fmt.Errorf("%w: last pod batch %s ago", ErrStale, since.Round(time.Second))
	}

	return nil
}

// PingerStats reports the tracker and queue sizes next to the ping status.
func (s *Service) PingerStats() map[string]int64 {
	return map[string]int64{
		"trackedContainers": int64(s.tracker.Tracked()),
		"queueLength":       int64(s.queue.Len()),
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "watcher is already shutting down, skipping shutdown")

		return nil
	}

	if !s.started.Load() {
		return nil
	}

	s.logger.InfoContext(ctx, "shutting down watcher")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before watch loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "watch loop exited")
	}

	return nil
}

// RunCommand subscribes to pod changes and blocks until ctx is done or the
// subscription fails permanently. The queue is closed on return.
func (s *Service) RunCommand(ctx context.Context) error {
	defer close(s.doneCh)
	defer s.queue.Close()

	s.logger.InfoContext(ctx, "starting watch loop",
		"ignoreNamespaces", s.cfg.IgnoreNamespaces,
		"defaultChannel", s.cfg.DefaultChannel,
	)

	err := s.repo.WatchPodsCommand(ctx, s.cfg.IgnoreNamespaces, s.handlePods)
	if ctx.Err() != nil {
		s.logger.InfoContext(ctx, "terminating watch loop")

		return nil
	}

	if err != nil {
		var target unauthorized
		if errors.As(err, &target) {
			s.logger.ErrorContext(ctx, "not allowed to list and watch pods, check RBAC permissions")
		}

		err = fmt.Errorf("%w: %w", ErrSubscriptionFailed, err)
		s.setErr(err)

		s.logger.ErrorContext(ctx, "watch loop failed", "reason", err)

		return err
	}

	s.logger.InfoContext(ctx, "pod subscription ended")

	return nil
}

func (s *Service) handlePods(ctx context.Context, pods []restart.PodSnapshot) error {
	s.lastSyncAt.Store(s.now().UnixNano())
	s.readyOnce.Do(func() {
		close(s.ready)
	})

	for i := range pods {
		for _, detection := range s.tracker.Observe(ctx, pods[i]) {
			event := s.enrich(ctx, detection)

			metrics.RecordRestartDetected(detection.Pod.Namespace)

			s.logger.InfoContext(ctx, "container restart detected",
				"namespace", detection.Pod.Namespace,
				"pod", detection.Pod.Name,
				"container", detection.Container.Name,
				"count", detection.Container.RestartCount,
			)

			err := s.queue.Push(ctx, event)
			if err != nil {
				return fmt.Errorf("enqueue %s: %w", event, err)
			}

			metrics.SetQueueLength(s.queue.Len())
		}
	}

	return nil
}

// enrich turns a detection into an event. Every lookup is best-effort.
func (s *Service) enrich(ctx context.Context, detection restart.Detection) restart.Event {
	pod, container := detection.Pod, detection.Container

	event := restart.Event{
		Namespace:      restart.NonEmpty(pod.Namespace),
		PodName:        pod.Name,
		ContainerName:  container.Name,
		ContainerImage: container.Image,
		NodeName:       restart.NonEmpty(pod.NodeName),
		RestartCount:   container.RestartCount,
		LastState:      container.LastTermination,
		Resources:      container.Resources,
		Channel:        s.channelFor(pod),
		Region:         s.cfg.Region,
		ProjectID:      s.cfg.ProjectID,
		ClusterID:      s.cfg.ClusterID,
		DetectedAt:     s.now(),
	}

	logger := s.logger.With(
		"namespace", pod.Namespace,
		"pod", pod.Name,
		"container", container.Name,
	)

	event.Logs = s.fetchLogs(ctx, logger, pod, container.Name)

	usage, err := s.fetchUsage(ctx, pod, container.Name)
	switch {
	case err != nil:
		var target notFound
		if errors.As(err, &target) {
			logger.DebugContext(ctx, "container usage not found")
		} else {
			logger.WarnContext(ctx, "get container usage", "reason", err)
		}
	case usage != nil:
		event.Usage = restart.Some(*usage)
	}

	return event
}

func (s *Service) fetchLogs(
	ctx context.Context,
	logger *slog.Logger,
	pod restart.PodSnapshot,
	container string,
) restart.LogResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EnrichTimeout)
	defer cancel()

	text, err := s.repo.GetPreviousLogsQuery(ctx, pod.Namespace, pod.Name, container, s.cfg.LogTailLines)
	if err != nil {
		logger.WarnContext(ctx, "get previous container logs", "reason", err)

		return restart.LogFailure(err.Error())
	}

	return restart.LogSuccess(text)
}

func (s *Service) fetchUsage(ctx context.Context, pod restart.PodSnapshot, container string) (*restart.Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EnrichTimeout)
	defer cancel()

	return s.repo.GetContainerUsageQuery(ctx, pod.Namespace, pod.Name, container)
}

func (s *Service) channelFor(pod restart.PodSnapshot) string {
	if channel := strings.TrimSpace(pod.Annotations[s.cfg.ChannelAnnotation]); channel != "" {
		return channel
	}

	return s.cfg.DefaultChannel
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}
