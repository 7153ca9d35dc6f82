package k8s

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	metricsv "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/inakam/k8s-restart-notify/internal/infra/metrics"
	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
	"github.com/inakam/k8s-restart-notify/internal/logic/watcher"
)

const (
	// logLimitBytes caps the previous log download.
	logLimitBytes int64 = 1 << 20

	// watchTimeout makes the API server end every watch so the pod list is
	// refreshed periodically even when nothing changes.
	watchTimeout = 5 * time.Minute

	initialRetryInterval = 500 * time.Millisecond
	maxRetryInterval     = 30 * time.Second
)

type adapter struct {
	logger           *slog.Logger
	clientset        kubernetes.Interface
	metricsClientset metricsv.Interface
	newBackOff       func() backoff.BackOff
}

// Option configures the adapter.
type Option func(*adapter)

// WithBackOff sets the retry policy used to re-establish the pod subscription.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(a *adapter) {
		a.newBackOff = newBackOff
	}
}

// New creates a new K8s adapter.
func New(
	logger *slog.Logger,
	clientset kubernetes.Interface,
	metricsClientset metricsv.Interface,
	opts ...Option,
) watcher.Repository {
	a := &adapter{
		logger:           logger.With("component", "k8s-adapter"),
		clientset:        clientset,
		metricsClientset: metricsClientset,
		newBackOff:       defaultBackOff,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

var _ watcher.Repository = (*adapter)(nil)

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialRetryInterval
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0

	return b
}

// WatchPodsCommand lists all pods outside ignoreNamespaces, hands them over as
// one batch and then follows the watch from the list's resource version. Any
// watch break is followed by a fresh list. Unauthorized and forbidden errors
// end the subscription.
func (a *adapter) WatchPodsCommand(
	ctx context.Context,
	ignoreNamespaces []string,
	handle watcher.PodHandler,
) error {
	selector := namespaceSelector(ignoreNamespaces)
	policy := backoff.WithContext(a.newBackOff(), ctx)

	err := backoff.RetryNotify(
		func() error {
			return a.listAndWatch(ctx, selector, policy, handle)
		},
		policy,
		func(err error, next time.Duration) {
			if errors.Is(err, errWatchClosed) {
				a.logger.DebugContext(ctx, "pod watch ended, resyncing", "retryIn", next.String())

				return
			}

			a.logger.WarnContext(ctx, "pod subscription interrupted, resyncing",
				"reason", err,
				"retryIn", next.String(),
			)
		},
	)
	if ctx.Err() != nil {
		return nil
	}

	return err
}

func (a *adapter) listAndWatch(
	ctx context.Context,
	selector string,
	policy backoff.BackOff,
	handle watcher.PodHandler,
) error {
	pods := a.clientset.CoreV1().Pods(metav1.NamespaceAll)

	list, err := pods.List(ctx, metav1.ListOptions{FieldSelector: selector})
	if err != nil {
		return classify(ctx, "list pods", err)
	}

	policy.Reset()
	metrics.RecordSubscriptionResync()

	a.logger.DebugContext(ctx, "pods listed",
		"count", len(list.Items),
		"resourceVersion", list.ResourceVersion,
	)

	snapshots := make([]restart.PodSnapshot, 0, len(list.Items))
	for i := range list.Items {
		snapshots = append(snapshots, toPodSnapshot(&list.Items[i]))
	}

	err = handle(ctx, snapshots)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("handle pod list: %w", err))
	}

	timeoutSeconds := int64(watchTimeout.Seconds())

	w, err := pods.Watch(ctx, metav1.ListOptions{
		FieldSelector:   selector,
		ResourceVersion: list.ResourceVersion,
		TimeoutSeconds:  &timeoutSeconds,
	})
	if err != nil {
		return classify(ctx, "watch pods", err)
	}
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		case event, ok := <-w.ResultChan():
			if !ok {
				return errWatchClosed
			}

			err = a.handleEvent(ctx, event, handle)
			if err != nil {
				return err
			}
		}
	}
}

func (a *adapter) handleEvent(ctx context.Context, event watch.Event, handle watcher.PodHandler) error {
	switch event.Type {
	case watch.Added, watch.Modified:
		pod, ok := event.Object.(*corev1.Pod)
		if !ok {
			a.logger.WarnContext(ctx, "unexpected watch object", "type", fmt.Sprintf("%T", event.Object))

			return nil
		}

		err := handle(ctx, []restart.PodSnapshot{toPodSnapshot(pod)})
		if err != nil {
			return backoff.Permanent(fmt.Errorf("handle pod %s/%s: %w", pod.Namespace, pod.Name, err))
		}

		return nil
	case watch.Error:
		err := apierrors.FromObject(event.Object)
		if apierrors.IsResourceExpired(err) || apierrors.IsGone(err) {
			return errResourceExpired
		}

		return classify(ctx, "watch event", err)
	default:
		return nil
	}
}

func (a *adapter) GetPreviousLogsQuery(
	ctx context.Context,
	namespace,
	pod,
	container string,
	tailLines int64,
) (string, error) {
	limitBytes := logLimitBytes

	opts := &corev1.PodLogOptions{
		Container:  container,
		Previous:   true,
		TailLines:  &tailLines,
		LimitBytes: &limitBytes,
	}

	raw, err := a.clientset.CoreV1().Pods(namespace).GetLogs(pod, opts).DoRaw(ctx)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", fmt.Errorf("get previous logs: %w", &LogsNotFoundError{Container: container})
		}

		return "", fmt.Errorf("get previous logs: %w", err)
	}

	return string(raw), nil
}

func (a *adapter) GetContainerUsageQuery(
	ctx context.Context,
	namespace,
	pod,
	container string,
) (*restart.Usage, error) {
	podMetrics, err := a.metricsClientset.MetricsV1beta1().PodMetricses(namespace).Get(
		ctx,
		pod,
		metav1.GetOptions{},
	)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("get pod metrics: %w", errPodNotFound)
		}

		return nil, fmt.Errorf("get pod metrics: %w", err)
	}

	return toUsage(podMetrics, container)
}

func namespaceSelector(ignoreNamespaces []string) string {
	selectors := make([]fields.Selector, 0, len(ignoreNamespaces))

	for _, ns := range ignoreNamespaces {
		if ns == "" {
			continue
		}

		selectors = append(selectors, fields.OneTermNotEqualSelector("metadata.namespace", ns))
	}

	if len(selectors) == 0 {
		return ""
	}

	return fields.AndSelectors(selectors...).String()
}

// classify marks errors that must not be retried.
func classify(ctx context.Context, op string, err error) error {
	switch {
	case ctx.Err() != nil:
		return backoff.Permanent(ctx.Err())
	case apierrors.IsUnauthorized(err), apierrors.IsForbidden(err):
		return backoff.Permanent(fmt.Errorf("%s: %w", op, &UnauthorizedError{Err: err}))
	case errors.Is(err, context.Canceled):
		return backoff.Permanent(err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
