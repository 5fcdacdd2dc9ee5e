package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/carlakc/lnpay/paysub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsShutdownTimeout = 5 * time.Second

// serveMetrics serves prometheus metrics on the address provided until the
// done channel is closed or the context is cancelled.
func serveMetrics(ctx context.Context, listen string,
	done <-chan struct{}) error {

	registry := prometheus.NewRegistry()
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	if err := paysub.RegisterMetrics(registry); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		registry, promhttp.HandlerOpts{},
	))

	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Serving metrics on %v", listen)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err

	case <-done:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), metricsShutdownTimeout,
	)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
