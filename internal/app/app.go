package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/inakam/k8s-restart-notify/internal/adapters/outbound/k8s"
	"github.com/inakam/k8s-restart-notify/internal/adapters/outbound/slack"
	"github.com/inakam/k8s-restart-notify/internal/config"
	"github.com/inakam/k8s-restart-notify/internal/httpserver"
	"github.com/inakam/k8s-restart-notify/internal/infra/shutdown"
	"github.com/inakam/k8s-restart-notify/internal/logic/message"
	"github.com/inakam/k8s-restart-notify/internal/logic/notifier"
	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
	"github.com/inakam/k8s-restart-notify/internal/logic/watcher"
)

const userAgent = "k8s-restart-notify"

type App struct {
	logger          *slog.Logger
	appState        appstater
	pingers         component
	signals         signalHandler
	watcher         worker
	notifier        worker
	httpServer      appServer
	metricsServer   appServer
	terminationFile string
}

// New creates a new application instance with all dependencies wired.
func New(
	logger *slog.Logger,
	cfg *config.Config,
	appState appstater,
	pingers component,
) (*App, error) {
	kubeConfig, err := clientcmd.BuildConfigFromFlags(cfg.KubeMaster, cfg.KubeConfig)
	if err != nil {
		return nil, fmt.Errorf("build k8s config: %w", err)
	}

	kubeConfig.UserAgent = userAgent

	clientset, err := kubernetes.NewForConfig(kubeConfig)
	if err != nil {
		return nil, fmt.Errorf("create clientset: %w", err)
	}

	metricsClientset, err := metricsv.NewForConfig(kubeConfig)
	if err != nil {
		return nil, fmt.Errorf("create metrics clientset: %w", err)
	}

	slackClient, err := slack.New(logger, slack.Config{
		Token:   cfg.SlackToken,
		APIURL:  cfg.SlackAPIURL,
		Timeout: cfg.DeliveryTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create slack client: %w", err)
	}

	return newApp(
		logger,
		cfg,
		appState,
		pingers,
		k8s.New(logger, clientset, metricsClientset),
		slackClient,
	), nil
}

func newApp(
	logger *slog.Logger,
	cfg *config.Config,
	appState appstater,
	pingers component,
	repo watcher.Repository,
	deliverer notifier.Deliverer,
) *App {
	tracker := restart.NewTracker(logger, cfg.IgnoreNamespaces)
	queue := restart.NewQueue(cfg.QueueSize)

	watcherService := watcher.New(logger, repo, tracker, queue, watcher.Config{
		IgnoreNamespaces:  cfg.IgnoreNamespaces,
		DefaultChannel:    cfg.SlackChannel,
		ChannelAnnotation: cfg.ChannelAnnotation,
		Region:            cfg.Region,
		ProjectID:         cfg.ProjectID,
		ClusterID:         cfg.ClusterID,
		LogTailLines:      cfg.LogTailLines,
		EnrichTimeout:     cfg.EnrichTimeout,
		StaleAfter:        cfg.StaleAfter,
	})

	notifierService := notifier.New(
		logger,
		queue,
		message.NewRenderer(cfg.ConsoleBaseURL, cfg.LogMaxChars),
		deliverer,
		notifier.Config{
			UploadLogs:      cfg.UploadLogs,
			DeliveryTimeout: cfg.DeliveryTimeout,
		},
	)

	return &App{
		logger:          logger,
		appState:        appState,
		pingers:         pingers,
		signals:         shutdown.New(logger, appState),
		watcher:         watcherService,
		notifier:        notifierService,
		httpServer:      httpserver.New(logger, appState, cfg.HTTPPort),
		metricsServer:   httpserver.NewMetricsServer(logger, cfg.MetricsPort),
		terminationFile: cfg.TerminationFile,
	}
}

// Run starts every component and blocks until a termination signal or a
// worker failure, then shuts everything down. It returns the worker error, if any.
func (a *App) Run(originCtx context.Context) error {
	if shutdown.CheckTerminationFile(originCtx, a.logger, a.terminationFile) {
		return fmt.Errorf("check termination: %w", ErrTerminationFile)
	}

	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go a.signals.HandleSignals(ctx, cancel)

	err := a.appState.SetStarting(ctx)
	if err != nil {
		return fmt.Errorf("set starting application state: %w", err)
	}

	runErr := a.start(ctx)
	if runErr == nil {
		runErr = a.wait(ctx, cancel)
	}

	cancel()

	a.logger.InfoContext(ctx, "shutting down")

	shutdownErr := a.appState.Shutdown(ctx)
	if shutdownErr != nil {
		a.logger.ErrorContext(ctx, "graceful shutdown failed", "reason", shutdownErr)
	}

	return runErr
}

// start registers and starts the components. Shutdown runs in reverse
// registration order: the watcher stops first so the notifier can drain.
func (a *App) start(ctx context.Context) error {
	for _, c := range []component{a.metricsServer, a.httpServer, a.pingers, a.notifier, a.watcher} {
		err := a.appState.RegisterShutdowner(c)
		if err != nil {
			return fmt.Errorf("register shutdowner %s: %w", c.Name(), err)
		}
	}

	for _, c := range []appServer{a.watcher, a.notifier, a.httpServer, a.metricsServer} {
		err := a.appState.RegisterPinger(c)
		if err != nil {
			return fmt.Errorf("register pinger %s: %w", c.Name(), err)
		}
	}

	for _, c := range []component{a.metricsServer, a.httpServer, a.notifier, a.watcher} {
		err := c.Start(ctx)
		if err != nil {
			return fmt.Errorf("start %s: %w", c.Name(), err)
		}
	}

	ready := allChannelsClose(ctx, a.logger,
		a.metricsServer.Ready(),
		a.httpServer.Ready(),
		a.notifier.Ready(),
		a.watcher.Ready(),
	)

	select {
	case <-ready:
	case <-a.watcher.Done():
		return a.workerErr(ctx, a.watcher)
	case <-a.notifier.Done():
		return a.workerErr(ctx, a.notifier)
	}

	if ctx.Err() != nil {
		return nil
	}

	err := a.pingers.Start(ctx)
	if err != nil {
		return fmt.Errorf("start %s: %w", a.pingers.Name(), err)
	}

	err = a.appState.SetRunning(ctx)
	if err != nil {
		return fmt.Errorf("set running application state: %w", err)
	}

	a.logger.InfoContext(ctx, "application is running")

	return nil
}

// wait blocks until ctx is done or a worker exits on its own. A stopped
// notifier cancels ctx so the watcher does not block on a full queue.
func (a *App) wait(ctx context.Context, cancel context.CancelFunc) error {
	select {
	case <-ctx.Done():
		return nil
	case <-a.watcher.Done():
		err := a.workerErr(ctx, a.watcher)
		cancel()

		return err
	case <-a.notifier.Done():
		err := a.workerErr(ctx, a.notifier)
		cancel()

		return err
	}
}

// workerErr returns nil for a worker that exited because ctx was cancelled.
func (a *App) workerErr(ctx context.Context, w worker) error {
	if err := w.Err(); err != nil {
		return fmt.Errorf("%s: %w", w.Name(), err)
	}

	if ctx.Err() != nil {
		return nil
	}

	return fmt.Errorf("%s: %w", w.Name(), ErrWorkerStopped)
}

// allChannelsClose returns a channel closed once every input channel is
// closed or ctx is done.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(len(chans))

	for _, ch := range chans {
		go func() {
			defer wg.Done()

			select {
			case <-ch:
			case <-ctx.Done():
			}
		}()
	}

	go func() {
		wg.Wait()

		if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
			logger.WarnContext(ctx, "stopped waiting for components", "reason", err)
		}

		close(out)
	}()

	return out
}
