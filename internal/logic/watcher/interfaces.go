package watcher

import (
	"context"

	"github.com/inakam/k8s-restart-notify/internal/logic/restart"
)

// PodHandler receives every batch of pod snapshots produced by a subscription.
// A list delivers all pods, a watch event delivers one.
type PodHandler func(ctx context.Context, pods []restart.PodSnapshot) error

// Repository is the port interface for K8s operations.
// Implementations are provided by adapters in the outbound layer.
type Repository interface {
	// WatchPodsCommand subscribes to pod changes outside ignoreNamespaces and
	// calls handle on the caller's goroutine until ctx is done or the
	// subscription fails permanently.
	WatchPodsCommand(
		ctx context.Context,
		ignoreNamespaces []string,
		handle PodHandler,
	) error

	GetPreviousLogsQuery(
		ctx context.Context,
		namespace,
		pod,
		container string,
		tailLines int64,
	) (string, error)

	GetContainerUsageQuery(
		ctx context.Context,
		namespace,
		pod,
		container string,
	) (*restart.Usage, error)
}

// notFound is a private interface for checking "not found" errors
// without importing the adapter package.
type notFound interface {
	IsNotFound()
}

// unauthorized is a private interface for checking credential errors
// without importing the adapter package.
type unauthorized interface {
	IsUnauthorized()
}
