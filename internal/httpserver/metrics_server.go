package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inakam/k8s-restart-notify/internal/infra/shutdown"
)

// MetricsServer serves Prometheus metrics on a dedicated port.
type MetricsServer struct {
	*listener

	gatherer prometheus.Gatherer
}

// NewMetricsServer creates a new metrics server that serves GET /metrics on the given port.
func NewMetricsServer(logger *slog.Logger, port string) *MetricsServer {
	if port == "" {
		port = defaultMetricsPort
	}

	return &MetricsServer{
		listener: newListener(logger, "metrics-server", port),
		gatherer: prometheus.DefaultGatherer,
	}
}

var _ shutdown.Shutdowner = (*MetricsServer)(nil)

// PingerReadyCritical reports that metrics do not gate readiness.
func (s *MetricsServer) PingerReadyCritical() bool {
	return false
}

// PingerCritical reports that metrics do not gate liveness.
func (s *MetricsServer) PingerCritical() bool {
	return false
}

// Start starts the metrics HTTP server in a goroutine.
func (s *MetricsServer) Start(ctx context.Context) error {
	return s.serve(ctx, s.Handler())
}

// Handler returns the /metrics route.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return mux
}
