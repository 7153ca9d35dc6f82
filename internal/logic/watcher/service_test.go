package watcher_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
	"github.com/inakam/k8s-restart-notify/internal/logic/watcher"
	"github.com/inakam/k8s-restart-notify/internal/logic/watcher/mocks"
)

// testNotFoundError implements the watcher's private error interface
// so the mock can return it and the watcher recognizes it.
type testNotFoundError struct{}

func (testNotFoundError) Error() string { return "not found" }
func (testNotFoundError) IsNotFound()   {}

var errForbidden = errors.New("pods is forbidden")

func testConfig() watcher.Config {
	return watcher.Config{
		IgnoreNamespaces: []string{"kube-system"},
		DefaultChannel:   "#restarts",
		Region:           "asia-northeast1",
		ProjectID:        "my-project",
		ClusterID:        "prod",
		LogTailLines:     50,
	}
}

func newPod(namespace, name string, count int32) restart.PodSnapshot {
	return restart.PodSnapshot{
		Namespace: namespace,
		Name:      name,
		UID:       "uid-" + name,
		NodeName:  "node-1",
		Containers: []restart.ContainerSnapshot{
			{
				Name:         "app",
				Image:        "registry.example.com/app:1.0",
				RestartCount: count,
				LastTermination: restart.Some(restart.TerminationState{
					ExitCode: 137,
					Reason:   restart.Some("OOMKilled"),
				}),
			},
		},
	}
}

func newService(t *testing.T, repo watcher.Repository, cfg watcher.Config) (*watcher.Service, *restart.Queue) {
	t.Helper()

	logger := slog.Default()
	queue := restart.NewQueue(16)
	tracker := restart.NewTracker(logger, cfg.IgnoreNamespaces)

	return watcher.New(logger, repo, tracker, queue, cfg), queue
}

// replay returns a WatchPodsCommand implementation delivering every batch in order.
func replay(batches ...[]restart.PodSnapshot) func(context.Context, []string, watcher.PodHandler) error {
	return func(ctx context.Context, _ []string, handle watcher.PodHandler) error {
		for _, batch := range batches {
			err := handle(ctx, batch)
			if err != nil {
				return err
			}
		}

		return nil
	}
}

func drain(queue *restart.Queue) []restart.Event {
	var events []restart.Event
	for event := range queue.Events() {
		events = append(events, event)
	}

	return events
}

func TestService_RunCommand(t *testing.T) {
	t.Parallel()

	t.Run("restart after first sighting is enriched and enqueued", func(t *testing.T) {
		t.Parallel()

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, testConfig())

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, []string{"kube-system"}, mock.Anything).
			RunAndReturn(replay(
				[]restart.PodSnapshot{newPod("default", "api", 0)},
				[]restart.PodSnapshot{newPod("default", "api", 1)},
			)).
			Once()
		repo.EXPECT().
			GetPreviousLogsQuery(mock.Anything, "default", "api", "app", int64(50)).
			Return("out of memory\n", nil).
			Once()
		repo.EXPECT().
			GetContainerUsageQuery(mock.Anything, "default", "api", "app").
			Return(&restart.Usage{CPU: "12m", Memory: "200Mi"}, nil).
			Once()

		err := svc.RunCommand(t.Context())
		require.NoError(t, err)

		events := drain(queue)
		require.Len(t, events, 1)

		event := events[0]
		require.Equal(t, restart.Some("default"), event.Namespace)
		require.Equal(t, "api", event.PodName)
		require.Equal(t, "app", event.ContainerName)
		require.Equal(t, "registry.example.com/app:1.0", event.ContainerImage)
		require.Equal(t, restart.Some("node-1"), event.NodeName)
		require.Equal(t, int32(1), event.RestartCount)
		require.Equal(t, "#restarts", event.Channel)
		require.Equal(t, "asia-northeast1", event.Region)
		require.Equal(t, "my-project", event.ProjectID)
		require.Equal(t, "prod", event.ClusterID)
		require.False(t, event.DetectedAt.IsZero())

		state, ok := event.LastState.Get()
		require.True(t, ok)
		require.Equal(t, restart.Some("OOMKilled"), state.Reason)

		text, ok := event.Logs.Text()
		require.True(t, ok)
		require.Equal(t, "out of memory\n", text)

		require.Equal(t, restart.Some(restart.Usage{CPU: "12m", Memory: "200Mi"}), event.Usage)
	})

	t.Run("resync with repeated counts emits once per increase", func(t *testing.T) {
		t.Parallel()

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, testConfig())

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(replay(
				[]restart.PodSnapshot{newPod("web", "front", 3)},
				[]restart.PodSnapshot{newPod("web", "front", 3)},
				[]restart.PodSnapshot{newPod("web", "front", 5)},
				[]restart.PodSnapshot{newPod("web", "front", 5)},
				[]restart.PodSnapshot{newPod("web", "front", 6)},
			)).
			Once()
		repo.EXPECT().
			GetPreviousLogsQuery(mock.Anything, "web", "front", "app", mock.Anything).
			Return("", nil).
			Times(2)
		repo.EXPECT().
			GetContainerUsageQuery(mock.Anything, "web", "front", "app").
			Return(nil, testNotFoundError{}).
			Times(2)

		err := svc.RunCommand(t.Context())
		require.NoError(t, err)

		events := drain(queue)
		require.Len(t, events, 2)
		require.Equal(t, int32(5), events[0].RestartCount)
		require.Equal(t, int32(6), events[1].RestartCount)
		require.False(t, events[0].Usage.IsSet())
	})

	t.Run("log failure degrades the event", func(t *testing.T) {
		t.Parallel()

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, testConfig())

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(replay(
				[]restart.PodSnapshot{newPod("default", "api", 2)},
				[]restart.PodSnapshot{newPod("default", "api", 3)},
			)).
			Once()
		repo.EXPECT().
			GetPreviousLogsQuery(mock.Anything, "default", "api", "app", mock.Anything).
			Return("", errors.New("previous terminated container \"app\" not found")).
			Once()
		repo.EXPECT().
			GetContainerUsageQuery(mock.Anything, "default", "api", "app").
			Return(nil, errors.New("metrics unavailable")).
			Once()

		err := svc.RunCommand(t.Context())
		require.NoError(t, err)

		events := drain(queue)
		require.Len(t, events, 1)

		reason, failed := events[0].Logs.FailureReason()
		require.True(t, failed)
		require.Equal(t, "previous terminated container \"app\" not found", reason)
		require.False(t, events[0].Usage.IsSet())
	})

	t.Run("hung lookups time out without stalling later pods", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig()
		cfg.EnrichTimeout = 50 * time.Millisecond

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, cfg)

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(replay(
				[]restart.PodSnapshot{newPod("default", "a", 0), newPod("default", "b", 0)},
				[]restart.PodSnapshot{newPod("default", "a", 1)},
				[]restart.PodSnapshot{newPod("default", "b", 1)},
			)).
			Once()
		repo.EXPECT().
			GetPreviousLogsQuery(mock.Anything, "default", "a", "app", mock.Anything).
			RunAndReturn(func(ctx context.Context, _, _, _ string, _ int64) (string, error) {
				_, hasDeadline := ctx.Deadline()
				require.True(t, hasDeadline)

				<-ctx.Done()

				return "", ctx.Err()
			}).
			Once()
		repo.EXPECT().
			GetContainerUsageQuery(mock.Anything, "default", "a", "app").
			RunAndReturn(func(ctx context.Context, _, _, _ string) (*restart.Usage, error) {
				<-ctx.Done()

				return nil, ctx.Err()
			}).
			Once()
		repo.EXPECT().
			GetPreviousLogsQuery(mock.Anything, "default", "b", "app", mock.Anything).
			Return("ok\n", nil).
			Once()
		repo.EXPECT().
			GetContainerUsageQuery(mock.Anything, "default", "b", "app").
			Return(nil, nil).
			Once()

		errCh := make(chan error, 1)

		go func() {
			errCh <- svc.RunCommand(t.Context())
		}()

		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watch loop stalled on enrichment")
		}

		events := drain(queue)
		require.Len(t, events, 2)
		require.Equal(t, "a", events[0].PodName)
		require.Equal(t, "b", events[1].PodName)

		reason, failed := events[0].Logs.FailureReason()
		require.True(t, failed)
		require.Contains(t, reason, context.DeadlineExceeded.Error())
		require.False(t, events[0].Usage.IsSet())

		text, ok := events[1].Logs.Text()
		require.True(t, ok)
		require.Equal(t, "ok\n", text)
	})

	t.Run("channel annotation overrides default", func(t *testing.T) {
		t.Parallel()

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, testConfig())

		annotated := func(count int32) restart.PodSnapshot {
			pod := newPod("default", "worker", count)
			pod.Annotations = map[string]string{
				watcher.DefaultChannelAnnotation: " #team-worker ",
			}

			return pod
		}

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(replay(
				[]restart.PodSnapshot{annotated(0)},
				[]restart.PodSnapshot{annotated(1)},
			)).
			Once()
		repo.EXPECT().
			GetPreviousLogsQuery(mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", nil).
			Once()
		repo.EXPECT().
			GetContainerUsageQuery(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, nil).
			Once()

		err := svc.RunCommand(t.Context())
		require.NoError(t, err)

		events := drain(queue)
		require.Len(t, events, 1)
		require.Equal(t, "#team-worker", events[0].Channel)
	})

	t.Run("ignored namespace produces nothing", func(t *testing.T) {
		t.Parallel()

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, testConfig())

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(replay(
				[]restart.PodSnapshot{newPod("kube-system", "dns", 0)},
				[]restart.PodSnapshot{newPod("kube-system", "dns", 4)},
			)).
			Once()

		err := svc.RunCommand(t.Context())
		require.NoError(t, err)
		require.Empty(t, drain(queue))
	})

	t.Run("subscription failure is fatal and closes the queue", func(t *testing.T) {
		t.Parallel()

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, testConfig())

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
			Return(errForbidden).
			Once()

		err := svc.RunCommand(t.Context())
		require.ErrorIs(t, err, watcher.ErrSubscriptionFailed)
		require.ErrorIs(t, err, errForbidden)
		require.ErrorIs(t, svc.Err(), watcher.ErrSubscriptionFailed)
		require.Empty(t, drain(queue))

		select {
		case <-svc.Done():
		default:
			t.Fatal("done channel must be closed")
		}
	})

	t.Run("cancelled context returns nil", func(t *testing.T) {
		t.Parallel()

		repo := mocks.NewMockRepository(t)
		svc, queue := newService(t, repo, testConfig())

		ctx, cancel := context.WithCancel(t.Context())

		repo.EXPECT().
			WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, _ []string, _ watcher.PodHandler) error {
				cancel()
				<-ctx.Done()

				return ctx.Err()
			}).
			Once()

		err := svc.RunCommand(ctx)
		require.NoError(t, err)
		require.NoError(t, svc.Err())
		require.Empty(t, drain(queue))
	})
}

func TestService_Ping(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.StaleAfter = time.Hour

	repo := mocks.NewMockRepository(t)
	svc, _ := newService(t, repo, cfg)

	require.ErrorIs(t, svc.Ping(t.Context()), watcher.ErrNotStarted)

	synced := make(chan struct{})
	release := make(chan struct{})

	repo.EXPECT().
		WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ []string, handle watcher.PodHandler) error {
			err := handle(ctx, []restart.PodSnapshot{newPod("default", "api", 0)})
			close(synced)
			<-release

			return err
		}).
		Once()

	require.NoError(t, svc.Start(t.Context()))

	<-synced
	<-svc.Ready()
	require.NoError(t, svc.Ping(t.Context()))
	require.False(t, svc.LastSync().IsZero())
	require.Equal(t, map[string]int64{"trackedContainers": 1, "queueLength": 0}, svc.PingerStats())

	close(release)
	<-svc.Done()

	require.ErrorIs(t, svc.Ping(t.Context()), watcher.ErrStopped)

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	require.NoError(t, svc.Shutdown(ctx))
}

func TestService_PingStale(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.StaleAfter = 20 * time.Millisecond

	repo := mocks.NewMockRepository(t)
	svc, _ := newService(t, repo, cfg)

	release := make(chan struct{})

	repo.EXPECT().
		WatchPodsCommand(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ []string, handle watcher.PodHandler) error {
			err := handle(ctx, []restart.PodSnapshot{newPod("default", "api", 0)})
			<-release

			return err
		}).
		Once()

	require.NoError(t, svc.Start(t.Context()))
	<-svc.Ready()

	require.Eventually(t, func() bool {
		return errors.Is(svc.Ping(t.Context()), watcher.ErrStale)
	}, time.Second, 10*time.Millisecond)

	close(release)
	<-svc.Done()
}
