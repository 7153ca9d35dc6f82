package restart

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/inakam/k8s-restart-notify/internal/infra/metrics"
)

// Tracker keeps the restart baseline of every observed container and turns pod
// snapshots into restart detections.
//
// Observe must be called from a single goroutine; only Tracked is safe to call
// concurrently.
type Tracker struct {
	logger    *slog.Logger
	ignored   map[string]struct{}
	baselines map[ContainerIdentity]int32
	tracked   atomic.Int64
}

// NewTracker creates a tracker that discards snapshots from ignoreNamespaces.
func NewTracker(logger *slog.Logger, ignoreNamespaces []string) *Tracker {
	ignored := make(map[string]struct{}, len(ignoreNamespaces))

	for _, ns := range ignoreNamespaces {
		ns = strings.TrimSpace(ns)
		if ns == "" {
			continue
		}

		ignored[ns] = struct{}{}
	}

	return &Tracker{
		logger:    logger.With("component", "restart-tracker"),
		ignored:   ignored,
		baselines: make(map[ContainerIdentity]int32),
	}
}

// Ignored reports whether the namespace is excluded from tracking.
func (t *Tracker) Ignored(namespace string) bool {
	_, ok := t.ignored[namespace]

	return ok
}

// Tracked returns the number of containers with a baseline.
func (t *Tracker) Tracked() int {
	return int(t.tracked.Load())
}

// Observe compares every container of the snapshot against its baseline and
// returns one detection per container whose restart count increased.
func (t *Tracker) Observe(ctx context.Context, snapshot PodSnapshot) []Detection {
	if t.Ignored(snapshot.Namespace) {
		return nil
	}

	var detections []Detection

	for i := range snapshot.Containers {
		container := snapshot.Containers[i]
		id := ContainerIdentity{
			Namespace: snapshot.Namespace,
			Pod:       snapshot.Name,
			Container: container.Name,
		}

		if t.observeContainer(ctx, id, container.RestartCount) {
			detections = append(detections, Detection{
				Pod:       snapshot,
				Container: container,
			})
		}
	}

	return detections
}

// observeContainer updates the baseline and reports whether a restart happened.
func (t *Tracker) observeContainer(ctx context.Context, id ContainerIdentity, count int32) bool {
	baseline, ok := t.baselines[id]
	t.baselines[id] = count

	switch {
	case !ok:
		t.tracked.Add(1)
		metrics.SetTrackedContainers(t.Tracked())

		return false
	case count > baseline:
		t.logger.DebugContext(ctx, "restart count increased",
			"namespace", id.Namespace,
			"pod", id.Pod,
			"container", id.Container,
			"baseline", baseline,
			"count", count,
		)

		return true
	case count < baseline:
		t.logger.DebugContext(ctx, "restart count decreased, resetting baseline",
			"namespace", id.Namespace,
			"pod", id.Pod,
			"container", id.Container,
			"baseline", baseline,
			"count", count,
		)
		metrics.RecordBaselineReset(id.Namespace)

		return false
	default:
		return false
	}
}
