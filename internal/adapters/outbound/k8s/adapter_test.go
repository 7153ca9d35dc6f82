package k8s_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/inakam/k8s-restart-notify/internal/adapters/outbound/k8s"
	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

var podsResource = schema.GroupResource{Resource: "pods"}

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func testPod(namespace, name string, restarts int32) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: namespace,
			Name:      name,
			UID:       types.UID("uid-" + name),
		},
		Spec: corev1.PodSpec{
			NodeName: "node-1",
			Containers: []corev1.Container{
				{Name: "app", Image: "registry.example.com/app:1.0"},
			},
		},
		Status: corev1.PodStatus{
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: "app", Image: "registry.example.com/app:1.0", RestartCount: restarts},
			},
		},
	}
}

// recorder collects handled batches and signals after every call.
type recorder struct {
	mu      sync.Mutex
	batches [][]restart.PodSnapshot
	calls   chan int
}

func newRecorder() *recorder {
	return &recorder{calls: make(chan int, 16)}
}

func (r *recorder) handle(_ context.Context, pods []restart.PodSnapshot) error {
	r.mu.Lock()
	r.batches = append(r.batches, pods)
	n := len(r.batches)
	r.mu.Unlock()

	r.calls <- n

	return nil
}

func (r *recorder) snapshot() [][]restart.PodSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([][]restart.PodSnapshot(nil), r.batches...)
}

func TestAdapter_WatchPodsCommand(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("lists then follows the watch", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewClientset(testPod("default", "api", 0))
		fw := watch.NewFake()
		clientset.PrependWatchReactor("pods", k8stesting.DefaultWatchReactor(fw, nil))

		repo := k8s.New(logger, clientset, metricsfake.NewSimpleClientset(), k8s.WithBackOff(fastBackOff))

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		rec := newRecorder()
		errCh := make(chan error, 1)

		go func() {
			errCh <- repo.WatchPodsCommand(ctx, nil, rec.handle)
		}()

		require.Equal(t, 1, <-rec.calls)
		fw.Modify(testPod("default", "api", 1))
		require.Equal(t, 2, <-rec.calls)

		cancel()
		require.NoError(t, <-errCh)

		batches := rec.snapshot()
		require.Len(t, batches[0], 1)
		require.Equal(t, int32(0), batches[0][0].Containers[0].RestartCount)
		require.Len(t, batches[1], 1)
		require.Equal(t, int32(1), batches[1][0].Containers[0].RestartCount)
	})

	t.Run("watch break triggers a resync", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			give func(w *watch.FakeWatcher)
		}{
			{
				name: "closed channel",
				give: func(w *watch.FakeWatcher) { w.Stop() },
			},
			{
				name: "resource version expired",
				give: func(w *watch.FakeWatcher) {
					w.Error(&metav1.Status{
						Status: metav1.StatusFailure,
						Code:   410,
						Reason: metav1.StatusReasonExpired,
					})
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				clientset := fake.NewClientset(testPod("default", "api", 3))

				var watches atomic.Int32

				first := watch.NewFake()
				clientset.PrependWatchReactor("pods", func(k8stesting.Action) (bool, watch.Interface, error) {
					if watches.Add(1) == 1 {
						return true, first, nil
					}

					return true, watch.NewFake(), nil
				})

				repo := k8s.New(logger, clientset, metricsfake.NewSimpleClientset(), k8s.WithBackOff(fastBackOff))

				ctx, cancel := context.WithCancel(t.Context())
				defer cancel()

				rec := newRecorder()
				errCh := make(chan error, 1)

				go func() {
					errCh <- repo.WatchPodsCommand(ctx, nil, rec.handle)
				}()

				require.Equal(t, 1, <-rec.calls)
				tt.give(first)
				require.Equal(t, 2, <-rec.calls)

				cancel()
				require.NoError(t, <-errCh)

				batches := rec.snapshot()
				require.Equal(t, batches[0], batches[1])
			})
		}
	})

	t.Run("transient list error is retried", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewClientset(testPod("default", "api", 0))
		clientset.PrependWatchReactor("pods", k8stesting.DefaultWatchReactor(watch.NewFake(), nil))

		var lists atomic.Int32
		clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
			if lists.Add(1) == 1 {
				return true, nil, apierrors.NewInternalError(errors.New("etcd unavailable"))
			}

			return false, nil, nil
		})

		repo := k8s.New(logger, clientset, metricsfake.NewSimpleClientset(), k8s.WithBackOff(fastBackOff))

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		rec := newRecorder()
		errCh := make(chan error, 1)

		go func() {
			errCh <- repo.WatchPodsCommand(ctx, nil, rec.handle)
		}()

		require.Equal(t, 1, <-rec.calls)

		cancel()
		require.NoError(t, <-errCh)
		require.Equal(t, int32(2), lists.Load())
	})

	t.Run("forbidden list is fatal", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewClientset()
		clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, apierrors.NewForbidden(podsResource, "", errors.New("no RBAC"))
		})

		repo := k8s.New(logger, clientset, metricsfake.NewSimpleClientset(), k8s.WithBackOff(fastBackOff))

		err := repo.WatchPodsCommand(t.Context(), []string{"kube-system"}, newRecorder().handle)
		require.Error(t, err)

		var target *k8s.UnauthorizedError
		require.ErrorAs(t, err, &target)
		require.True(t, apierrors.IsForbidden(err))
	})

	t.Run("handler error ends the subscription", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewClientset(testPod("default", "api", 0))
		repo := k8s.New(logger, clientset, metricsfake.NewSimpleClientset(), k8s.WithBackOff(fastBackOff))

		errHandler := errors.New("queue closed")

		err := repo.WatchPodsCommand(t.Context(), nil, func(context.Context, []restart.PodSnapshot) error {
			return errHandler
		})
		require.ErrorIs(t, err, errHandler)
	})

	t.Run("ignored namespaces become a field selector", func(t *testing.T) {
		t.Parallel()

		clientset := fake.NewClientset()
		clientset.PrependWatchReactor("pods", k8stesting.DefaultWatchReactor(watch.NewFake(), nil))

		selectors := make(chan string, 1)
		clientset.PrependReactor("list", "pods", func(action k8stesting.Action) (bool, runtime.Object, error) {
			selectors <- action.(k8stesting.ListAction).GetListRestrictions().Fields.String()

			return false, nil, nil
		})

		repo := k8s.New(logger, clientset, metricsfake.NewSimpleClientset(), k8s.WithBackOff(fastBackOff))

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		rec := newRecorder()
		errCh := make(chan error, 1)

		go func() {
			errCh <- repo.WatchPodsCommand(ctx, []string{"kube-system", "monitoring"}, rec.handle)
		}()

		require.Equal(t, 1, <-rec.calls)

		cancel()
		require.NoError(t, <-errCh)
		require.Equal(t, "metadata.namespace!=kube-system,metadata.namespace!=monitoring", <-selectors)
	})
}

func TestAdapter_GetPreviousLogsQuery(t *testing.T) {
	t.Parallel()

	clientset := fake.NewClientset(testPod("default", "api", 1))
	repo := k8s.New(slog.Default(), clientset, metricsfake.NewSimpleClientset())

	logs, err := repo.GetPreviousLogsQuery(t.Context(), "default", "api", "app", 100)
	require.NoError(t, err)
	require.Equal(t, "fake logs", logs)
}

func TestAdapter_GetContainerUsageQuery(t *testing.T) {
	t.Parallel()

	newMetricsClient := func(podMetrics *metricsv1beta1.PodMetrics, err error) *metricsfake.Clientset {
		client := metricsfake.NewSimpleClientset()
		client.PrependReactor("get", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
			if err != nil {
				return true, nil, err
			}

			return true, podMetrics, nil
		})

		return client
	}

	podMetrics := &metricsv1beta1.PodMetrics{
		ObjectMeta: metav1.ObjectMeta{Namespace: "default", Name: "api"},
		Containers: []metricsv1beta1.ContainerMetrics{
			{
				Name: "app",
				Usage: corev1.ResourceList{
					corev1.ResourceCPU:    resource.MustParse("15m"),
					corev1.ResourceMemory: resource.MustParse("128Mi"),
				},
			},
		},
	}

	t.Run("container usage", func(t *testing.T) {
		t.Parallel()

		repo := k8s.New(slog.Default(), fake.NewClientset(), newMetricsClient(podMetrics, nil))

		usage, err := repo.GetContainerUsageQuery(t.Context(), "default", "api", "app")
		require.NoError(t, err)
		require.Equal(t, &restart.Usage{CPU: "15m", Memory: "128Mi"}, usage)
	})

	t.Run("unknown container is not found", func(t *testing.T) {
		t.Parallel()

		repo := k8s.New(slog.Default(), fake.NewClientset(), newMetricsClient(podMetrics, nil))

		_, err := repo.GetContainerUsageQuery(t.Context(), "default", "api", "sidecar")
		require.Error(t, err)

		var target *k8s.PodNotFoundError
		require.ErrorAs(t, err, &target)
	})

	t.Run("missing pod metrics is not found", func(t *testing.T) {
		t.Parallel()

		notFound := apierrors.NewNotFound(schema.GroupResource{Group: "metrics.k8s.io", Resource: "pods"}, "api")
		repo := k8s.New(slog.Default(), fake.NewClientset(), newMetricsClient(nil, notFound))

		_, err := repo.GetContainerUsageQuery(t.Context(), "default", "api", "app")

		var target *k8s.PodNotFoundError
		require.ErrorAs(t, err, &target)
	})

	t.Run("other errors are returned", func(t *testing.T) {
		t.Parallel()

		repo := k8s.New(slog.Default(), fake.NewClientset(), newMetricsClient(nil, apierrors.NewServiceUnavailable("down")))

		_, err := repo.GetContainerUsageQuery(t.Context(), "default", "api", "app")
		require.True(t, apierrors.IsServiceUnavailable(err))
	})
}
