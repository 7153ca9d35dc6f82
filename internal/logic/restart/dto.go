package restart

import (
	"fmt"
	"time"
)

// Optional holds a value that may be absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSet reports whether the value is present.
func (o Optional[T]) IsSet() bool {
	return o.ok
}

// OrElse returns the value or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if !o.ok {
		return def
	}

	return o.value
}

// NonEmpty maps an empty string to None.
func NonEmpty(s string) Optional[string] {
	if s == "" {
		return None[string]()
	}

	return Some(s)
}

// ContainerIdentity keys tracked state. Pod UID is not part of it:
// a pod recreated under the same name continues the same baseline.
type ContainerIdentity struct {
	Namespace string
	Pod       string
	Container string
}

func (id ContainerIdentity) String() string {
	return fmt.Sprintf("%s/%s - %s", id.Namespace, id.Pod, id.Container)
}

// TerminationState is the last termination of a container.
type TerminationState struct {
	ExitCode   int32
	Signal     Optional[int32]
	Reason     Optional[string]
	Message    Optional[string]
	StartedAt  Optional[time.Time]
	FinishedAt Optional[time.Time]
}

// ResourceQuantity is a single resource name with its quantity rendered as string.
type ResourceQuantity struct {
	Name  string
	Value string
}

// Resources holds declared limits and requests, ordered by resource name.
type Resources struct {
	Limits   []ResourceQuantity
	Requests []ResourceQuantity
}

// ContainerSnapshot is the point-in-time state of one container.
type ContainerSnapshot struct {
	Name            string
	Image           string
	RestartCount    int32
	LastTermination Optional[TerminationState]
	Resources       Resources
}

// PodSnapshot is the point-in-time state of a pod as delivered by the subscription.
type PodSnapshot struct {
	Namespace   string
	Name        string
	UID         string
	NodeName    string
	Annotations map[string]string
	Containers  []ContainerSnapshot
}

// Detection is a restart found by the Tracker, before enrichment.
type Detection struct {
	Pod       PodSnapshot
	Container ContainerSnapshot
}

// Identity returns the identity of the restarted container.
func (d Detection) Identity() ContainerIdentity {
	return ContainerIdentity{
		Namespace: d.Pod.Namespace,
		Pod:       d.Pod.Name,
		Container: d.Container.Name,
	}
}

// LogResult is the outcome of a best-effort log fetch.
type LogResult struct {
	text   string
	reason string
	failed bool
}

// LogSuccess returns a successful fetch result.
func LogSuccess(text string) LogResult {
	return LogResult{text: text}
}

// LogFailure returns a failed fetch result with its reason.
func LogFailure(reason string) LogResult {
	return LogResult{reason: reason, failed: true}
}

// Text returns the fetched log text and true on success.
func (l LogResult) Text() (string, bool) {
	return l.text, !l.failed
}

// FailureReason returns the failure reason and true on failure.
func (l LogResult) FailureReason() (string, bool) {
	return l.reason, l.failed
}

// Usage is the current container resource usage reported by metrics-server.
type Usage struct {
	CPU    string
	Memory string
}

// Event is a fully enriched restart record. It is immutable once enqueued;
// With* methods return modified copies.
type Event struct {
	Namespace      Optional[string]
	PodName        string
	ContainerName  string
	ContainerImage string
	NodeName       Optional[string]
	RestartCount   int32
	LastState      Optional[TerminationState]
	Resources      Resources
	Logs           LogResult
	Usage          Optional[Usage]
	LogURL         Optional[string]
	Channel        string
	Region         string
	ProjectID      string
	ClusterID      string
	DetectedAt     time.Time
}

// Identity returns the identity triple used in logs.
func (e Event) Identity() ContainerIdentity {
	return ContainerIdentity{
		Namespace: e.Namespace.OrElse(""),
		Pod:       e.PodName,
		Container: e.ContainerName,
	}
}

func (e Event) String() string {
	return e.Identity().String()
}

// WithLogURL returns a copy of the event linking to an uploaded log artifact.
func (e Event) WithLogURL(url string) Event {
	e.LogURL = NonEmpty(url)

	return e
}
