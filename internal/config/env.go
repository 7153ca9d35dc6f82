package config

import "time"

// Env key constants. All configuration env vars use the RESTARTNOTIFY_ prefix;
// duration values support explicit units (e.g. 10s, 1m).

// Path to kubeconfig file. If unset, KUBECONFIG is used as fallback.
const envKeyKubeConfig = "RESTARTNOTIFY_KUBECONFIG"

// Kubernetes API server URL. If unset, KUBERNETES_MASTER is used as fallback.
const envKeyKubeMaster = "RESTARTNOTIFY_KUBE_MASTER"

// Slack bot token (xoxb-...). Required. Falls back to SLACK_TOKEN.
const envKeySlackToken = "RESTARTNOTIFY_SLACK_TOKEN"

// Default Slack channel for notifications. Required. Falls back to SLACK_CHANNEL.
const envKeySlackChannel = "RESTARTNOTIFY_SLACK_CHANNEL"

// Slack Web API base URL.
const envKeySlackAPIURL = "RESTARTNOTIFY_SLACK_API_URL"

// Cloud region used in console links. Required. Falls back to REGION.
const envKeyRegion = "RESTARTNOTIFY_REGION"

// Cloud project id used in console links. Required. Falls back to PROJECT_ID.
const envKeyProjectID = "RESTARTNOTIFY_PROJECT_ID"

// Cluster name used in console links. Falls back to CLUSTER_ID.
const envKeyClusterID = "RESTARTNOTIFY_CLUSTER_ID"

// Base URL of the pod details page in the cloud console.
const envKeyConsoleBaseURL = "RESTARTNOTIFY_CONSOLE_BASE_URL"

// Comma-separated namespaces to skip. Falls back to IGNORE_NAMESPACES.
const envKeyIgnoreNamespaces = "RESTARTNOTIFY_IGNORE_NAMESPACES"

// Pod annotation key overriding the Slack channel.
const envKeyAnnotationChannel = "RESTARTNOTIFY_ANNOTATION_CHANNEL"

// Notification queue capacity.
const (
	envKeyQueueSize = "RESTARTNOTIFY_QUEUE_SIZE"
	envMinQueueSize = 1
)

// Number of previous-container log lines to fetch.
const (
	envKeyLogTailLines = "RESTARTNOTIFY_LOG_TAIL_LINES"
	envMinLogTailLines = 1
)

// Max number of characters of the log tail rendered inline.
const (
	envKeyLogMaxChars = "RESTARTNOTIFY_LOG_MAX_CHARS"
	envMinLogMaxChars = 1
)

// Upload the fetched log tail as a Slack file (requires a channel ID).
const envKeyUploadLogs = "RESTARTNOTIFY_UPLOAD_LOGS"

// Per-request Slack delivery timeout. Units: s, m (e.g. 10s).
const (
	envKeyDeliveryTimeout = "RESTARTNOTIFY_DELIVERY_TIMEOUT"
	envMinDeliveryTimeout = time.Second
)

// Timeout of each log or usage lookup for a detected restart.
const (
	envKeyEnrichTimeout = "RESTARTNOTIFY_ENRICH_TIMEOUT"
	envMinEnrichTimeout = 100 * time.Millisecond
)

// The watcher reports unhealthy when no pod batch arrived for this long.
// Pods are relisted every few minutes, so keep it well above that.
const (
	envKeyStaleAfter = "RESTARTNOTIFY_STALE_AFTER"
	envMinStaleAfter = time.Minute
)

// Pinger check interval. Units: s, m, h (e.g. 10s, 1m).
const (
	envKeyPingerInterval = "RESTARTNOTIFY_PINGER_INTERVAL"
	envMinPingerInterval = time.Second
)

// Log level: debug, info, warn, error.
const envKeyLogLevel = "RESTARTNOTIFY_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "RESTARTNOTIFY_LOG_FORMAT"

// Port for health/readiness HTTP server.
const envKeyHTTPPort = "RESTARTNOTIFY_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "RESTARTNOTIFY_METRICS_PORT"

// Termination marker file; its presence at startup stops the process.
const envKeyTerminationFile = "RESTARTNOTIFY_TERMINATION_FILE"

// Unprefixed keys used as fallback when RESTARTNOTIFY_* are unset.
const (
	envKeyKubeConfigFallback       = "KUBECONFIG"
	envKeyKubeMasterFallback       = "KUBERNETES_MASTER"
	envKeySlackTokenFallback       = "SLACK_TOKEN"
	envKeySlackChannelFallback     = "SLACK_CHANNEL"
	envKeyRegionFallback           = "REGION"
	envKeyProjectIDFallback        = "PROJECT_ID"
	envKeyClusterIDFallback        = "CLUSTER_ID"
	envKeyIgnoreNamespacesFallback = "IGNORE_NAMESPACES"
)

// Defaults used when a key is unset.
const (
	defaultSlackAPIURL       = "https://slack.com/api"
	defaultConsoleBaseURL    = "https://console.cloud.google.com/kubernetes/pod"
	defaultChannelAnnotation = "k8s-restart-notify.inakam.github.io/slack-channel"
	defaultQueueSize         = 320
	defaultLogTailLines      = 100
	defaultLogMaxChars       = 2500
	defaultDeliveryTimeout   = 10 * time.Second
	defaultEnrichTimeout     = 5 * time.Second
	defaultStaleAfter        = 15 * time.Minute
	defaultPingerInterval    = 10 * time.Second
	defaultLogLevel          = "info"
	defaultLogFormat         = "json"
	defaultHTTPPort          = "8080"
	defaultMetricsPort       = "9090"
	defaultTerminationFile   = "/mnt/signal/terminating"
)
