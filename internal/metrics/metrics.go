// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	BillsCreated   prometheus.Counter
	CreateFailures prometheus.Counter
	ProofsRejected *prometheus.CounterVec
	Duration       *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		BillsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_bills_created_total",
			Help: "Bills successfully submitted.",
		}),
		CreateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "billed_bill_create_failures_total",
			Help: "Bill submissions the store rejected.",
		}),
		ProofsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billed_proofs_rejected_total",
			Help: "Proof files refused by the proof policy, by content type.",
		}, []string{"type"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "billed_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		gatherer: reg,
	}
	reg.MustRegister(m.BillsCreated, m.CreateFailures, m.ProofsRejected, m.Duration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Instrument records the duration of every request served by next under the
// given route label.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &StatusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		m.Duration.WithLabelValues(route, r.Method, strconv.Itoa(sw.Status())).Observe(time.Since(start).Seconds())
	})
}

// StatusWriter remembers the status code written through it.
type StatusWriter struct {
	http.ResponseWriter
	status int
}

func (w *StatusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *StatusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *StatusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
