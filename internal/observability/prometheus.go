package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Timeouts for the metrics HTTP server. Scrapes are small and fast.
const (
	metricsReadTimeout     = 10 * time.Second
	metricsWriteTimeout    = 30 * time.Second
	metricsIdleTimeout     = 120 * time.Second
	metricsShutdownTimeout = 5 * time.Second
)

// newPrometheusReader creates a Prometheus exporter on an independent
// registry and returns it together with the scrape handler. The exporter is
// attached as a reader to the meter provider, so OTel instruments recorded
// through that provider appear on the scrape endpoint.
func newPrometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// ServeMetrics starts an HTTP server exposing the Prometheus scrape endpoint
// at /metrics plus /healthz and /readyz, and returns a function that stops
// it. The server runs until stopped; listen failures are logged.
func ServeMetrics(addr string, metrics http.Handler, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics)
	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  metricsReadTimeout,
		WriteTimeout: metricsWriteTimeout,
		IdleTimeout:  metricsIdleTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		err := server.Shutdown(ctx)
		if err != nil {
			logger.Warn("metrics server shutdown failed", "error", err)
		}
	}
}
