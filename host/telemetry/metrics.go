package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the board's Prometheus collectors on a private registry
type Metrics struct {
	registry    *prometheus.Registry
	lockApplied *prometheus.CounterVec
	sessions    *prometheus.CounterVec
}

// NewMetrics registers the lock collectors. overflows feeds the timer
// overflow gauge and may be nil.
func NewMetrics(overflows func() uint32) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lockApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotlock_lock_applied_total",
			Help: "Lock checks applied to the actuator, by resulting state.",
		}, []string{"state"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slotlock_sessions_total",
			Help: "Console sessions started, by privilege level.",
		}, []string{"privilege"}),
	}
	m.registry.MustRegister(m.lockApplied, m.sessions)

	if overflows != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "slotlock_timer_overflows",
			Help: "Timer overflow interrupts since setup.",
		}, func() float64 {
			return float64(overflows())
		}))
	}
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}
