package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/inakam/k8s-restart-notify/internal/infra/metrics"
	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

// DefaultDeliveryTimeout bounds a single delivery request.
const DefaultDeliveryTimeout = 10 * time.Second

// Config holds the notifier settings.
type Config struct {
	UploadLogs      bool
	DeliveryTimeout time.Duration
}

// Service drains the notification queue and delivers one event at a time.
type Service struct {
	logger     *slog.Logger
	queue      *restart.Queue
	renderer   Renderer
	deliverer  Deliverer
	cfg        Config
	ready      chan struct{}
	doneCh     chan struct{}
	started    atomic.Bool
	inShutdown atomic.Bool
	delivered  atomic.Int64
	failed     atomic.Int64
	mu         sync.RWMutex
	err        error
}

// New creates a new notifier service.
func New(
	logger *slog.Logger,
	queue *restart.Queue,
	renderer Renderer,
	deliverer Deliverer,
	cfg Config,
) *Service {
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = DefaultDeliveryTimeout
	}

	return &Service{
		logger:    logger.With("component", "notifier"),
		queue:     queue,
		renderer:  renderer,
		deliverer: deliverer,
		cfg:       cfg,
		ready:     make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Name returns the name of the component
func (s *Service) Name() string {
	return "notifier"
}

// Start runs the delivery loop in the background.
func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "notifier is shutting down, skipping start")

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

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Done is closed when the queue has been drained and the loop exited.
func (s *Service) Done() <-chan struct{} {
	return s.doneCh
}

// Err returns the error the delivery loop exited with.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.err
}

// Delivered returns the number of successfully delivered events.
func (s *Service) Delivered() int64 {
	return s.delivered.Load()
}

// Failed returns the number of dropped events.
func (s *Service) Failed() int64 {
	return s.failed.Load()
}

// PingerStats reports delivery counters next to the ping status.
func (s *Service) PingerStats() map[string]int64 {
	return map[string]int64{
		"delivered": s.delivered.Load(),
		"failed":    s.failed.Load(),
	}
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
		return nil
	default:
		return ErrNotStarted
	}
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "notifier is already shutting down, skipping shutdown")

		return nil
	}

	if !s.started.Load() {
		return nil
	}

	s.logger.InfoContext(ctx, "shutting down notifier", "pending", s.queue.Len())

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before queue drained: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "notifier drained")
	}

	return nil
}

// RunCommand delivers queued events in order until the queue is closed and
// empty. Cancelling ctx does not stop it; pending events are still delivered.
func (s *Service) RunCommand(ctx context.Context) (err error) {
	defer close(s.doneCh)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNotifierFailed, r)
			s.setErr(err)

			s.logger.ErrorContext(ctx, "notifier crashed", "reason", err)
		}
	}()

	close(s.ready)

	s.logger.InfoContext(ctx, "starting notifier", "uploadLogs", s.cfg.UploadLogs)

	for event := range s.queue.Events() {
		metrics.SetQueueLength(s.queue.Len())

		s.deliver(ctx, event)
	}

	s.logger.InfoContext(ctx, "notification queue closed",
		"delivered", s.delivered.Load(),
		"failed", s.failed.Load(),
	)

	return nil
}

// deliver renders and posts one event. The optional log upload and the post
// each get their own DeliveryTimeout, detached from parent cancellation.
func (s *Service) deliver(parent context.Context, event restart.Event) {
	base := context.WithoutCancel(parent)

	logger := s.logger.With(
		"namespace", event.Namespace.OrElse(""),
		"pod", event.PodName,
		"container", event.ContainerName,
		"channel", event.Channel,
	)

	if s.cfg.UploadLogs {
		event = s.attachLogs(base, logger, event)
	}

	ctx, cancel := context.WithTimeout(base, s.cfg.DeliveryTimeout)
	defer cancel()

	err := s.deliverer.PostMessageCommand(ctx, event.Channel, s.renderer.Render(event))
	if err != nil {
		s.failed.Add(1)
		metrics.RecordNotification(metrics.StatusFailed)

		logger.ErrorContext(ctx, "failed to send notification", "reason", err)

		return
	}

	s.delivered.Add(1)
	metrics.RecordNotification(metrics.StatusSent)

	logger.InfoContext(ctx, "notification sent", "count", event.RestartCount)
}

// attachLogs uploads the full log text and links it from the event.
func (s *Service) attachLogs(ctx context.Context, logger *slog.Logger, event restart.Event) restart.Event {
	text, ok := event.Logs.Text()
	if !ok || text == "" {
		return event
	}

	filename := fmt.Sprintf("%s_%s_%s_%d.log",
		event.Namespace.OrElse("default"),
		event.PodName,
		event.ContainerName,
		event.RestartCount,
	)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
	defer cancel()

	link, err := s.deliverer.UploadFileCommand(ctx, event.Channel, filename, "Logs before restart: "+event.String(), []byte(text))
	if err != nil {
		logger.WarnContext(ctx, "failed to upload logs", "reason", err)

		return event
	}

	return event.WithLogURL(link)
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}
