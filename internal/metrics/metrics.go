// Package metrics exposes Prometheus counters for the split server.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wordsplit"

// Metrics holds the collectors of one server.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	variants  prometheus.Histogram
	fallbacks prometheus.Counter
	reloads   *prometheus.CounterVec
	entries   prometheus.Gauge
	order     prometheus.Gauge
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "IPC requests by action and response code.",
			},
			[]string{"action", "code"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "split_duration_seconds",
				Help:      "Time spent in Split by decoder.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"decoder"},
		),
		variants: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "split_variants",
			Help:      "Segmentations returned per request, sentinel excluded.",
			Buckets:   prometheus.LinearBuckets(0, 1, 9),
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_fallbacks_total",
			Help:      "Requests whose stream ended with the input as typed.",
		}),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Config reloads by outcome.",
			},
			[]string{"result"},
		),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_entries",
			Help:      "N-grams in the loaded model.",
		}),
		order: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_order",
			Help:      "Order of the loaded model.",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.variants, m.fallbacks, m.reloads, m.entries, m.order)
	return m
}

// ObserveRequest counts one answered request.
func (m *Metrics) ObserveRequest(action string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(action, strconv.Itoa(code)).Inc()
}

// ObserveSplit records one successful Split call.
func (m *Metrics) ObserveSplit(decoder string, took time.Duration, variants int, fellBack bool) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(decoder).Observe(took.Seconds())
	m.variants.Observe(float64(variants))
	if fellBack {
		m.fallbacks.Inc()
	}
}

// ObserveReload counts a config reload.
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reloads.WithLabelValues(result).Inc()
}

// SetModel publishes the size and order of the loaded model.
func (m *Metrics) SetModel(entries, order int) {
	if m == nil {
		return
	}
	m.entries.Set(float64(entries))
	m.order.Set(float64(order))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
