// Package metrics declares the Prometheus collectors of the server.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groupshare_connections_active",
			Help: "Number of open client connections",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupshare_connections_total",
			Help: "Total number of accepted client connections",
		},
	)

	HandshakeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupshare_handshake_failures_total",
			Help: "Connections dropped during the key handshake",
		},
	)

	UsersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groupshare_users_connected",
			Help: "Number of logged-in users",
		},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupshare_commands_total",
			Help: "Commands handled, by action and result",
		},
		[]string{"action", "result"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groupshare_command_duration_seconds",
			Help:    "Command handling latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"action"},
	)

	BytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupshare_file_bytes_total",
			Help: "File bytes moved, by direction (upload or download)",
		},
		[]string{"direction"},
	)

	BlobBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "groupshare_blob_breaker_state",
			Help: "Circuit breaker state of the blob backend (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// ObserveCommand records one handled command.
func ObserveCommand(action, result string, started time.Time) {
	CommandsTotal.WithLabelValues(action, result).Inc()
	CommandDuration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
