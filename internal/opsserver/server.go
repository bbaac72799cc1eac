// Package opsserver serves the operational endpoints of the bot process:
// /healthz for liveness probes and /metrics for Prometheus.
package opsserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthSource reports aggregated and per-component health.
type HealthSource interface {
	IsHealthy() bool
	Components() map[string]bool
}

type healthResponse struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

// NewRouter wires /healthz and /metrics. A nil gatherer uses the default
// Prometheus registry.
func NewRouter(hs HealthSource, gatherer prometheus.Gatherer) *mux.Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	root := mux.NewRouter()
	root.Use(Recover)

	root.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:     "unhealthy",
			Components: hs.Components(),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}
		code := http.StatusServiceUnavailable
		if hs.IsHealthy() {
			resp.Status = "healthy"
			code = http.StatusOK
		}
		WriteJSON(w, code, resp)
	}).Methods(http.MethodGet)

	root.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "no such endpoint")
	})
	return root
}

// Serve runs an HTTP server on addr until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Stack().Err(err).Msg("ops server forced to shutdown")
			return err
		}
		log.Info().Msg("ops server exited")
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		log.Error().Stack().Err(err).Msg("ops server failed")
		return err
	}
}
