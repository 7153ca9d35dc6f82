package watcher

import "time"

const (
	// DefaultChannelAnnotation is the pod annotation overriding the delivery channel.
	DefaultChannelAnnotation = "k8s-restart-notify.inakam.github.io/slack-channel"

	// DefaultLogTailLines is how many lines of the previous container log are fetched.
	DefaultLogTailLines = 100

	// DefaultEnrichTimeout bounds each log and usage lookup for a detected restart.
	DefaultEnrichTimeout = 5 * time.Second

	// DefaultStaleAfter is how long the watcher may go without a pod batch
	// before its ping fails. The subscription relists at least every
	// few minutes, so a quiet cluster still refreshes it.
	DefaultStaleAfter = 15 * time.Minute
)
