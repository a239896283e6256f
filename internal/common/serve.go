package common

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownGracePeriod = 5 * time.Second

// ServeMetrics exposes the default Prometheus registry on /metrics.
func ServeMetrics(port uint16) (shutdown func()) {
	return ServeMetricsFor(port, prometheus.DefaultGatherer)
}

// ServeMetricsFor exposes the given gatherer on /metrics. The handler is
// self-instrumented, so scrape requests show up as promhttp_metric_handler
// metrics alongside the gathered families.
func ServeMetricsFor(port uint16, gatherer prometheus.Gatherer) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	))
	return ServeHttp(port, mux)
}

// ServeHttp starts an HTTP server listening on the given port and returns a
// function that gracefully shuts it down, waiting up to shutdownGracePeriod
// for in-flight requests.
func ServeHttp(port uint16, mux http.Handler) (shutdown func()) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		log.Infof("Starting http server listening on %d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		log.Infof("Stopping http server listening on %d", port)
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("Failed to shut down http server on %d: %v", port, err)
		}
	}
}
