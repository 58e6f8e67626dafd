// Package metrics exports associative-memory activity to Prometheus.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements memory.Observer with Prometheus collectors.
// A nil *Recorder is a valid no-op.
type Recorder struct {
	adds       *prometheus.CounterVec
	queries    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	candidates *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors on reg.
// Collectors already registered by an earlier Recorder are reused.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		adds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdcmem_memory_adds_total",
				Help: "Total number of vectors stored in associative memory",
			},
			[]string{"backend"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hdcmem_memory_queries_total",
				Help: "Total number of associative memory queries",
			},
			[]string{"backend"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hdcmem_memory_query_duration_seconds",
				Help:    "Associative memory query latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		candidates: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hdcmem_memory_query_candidates",
				Help:    "Entries scored per associative memory query",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"backend"},
		),
	}

	var err error
	if r.adds, err = register(reg, r.adds); err != nil {
		return nil, err
	}
	if r.queries, err = register(reg, r.queries); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.candidates, err = register(reg, r.candidates); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveAdd counts one Add on backend.
func (r *Recorder) ObserveAdd(backend string) {
	if r == nil {
		return
	}
	r.adds.WithLabelValues(backend).Inc()
}

// ObserveQuery counts one Query on backend and records its duration and
// the number of entries scored.
func (r *Recorder) ObserveQuery(backend string, d time.Duration, candidates int) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(backend).Inc()
	r.duration.WithLabelValues(backend).Observe(d.Seconds())
	r.candidates.WithLabelValues(backend).Observe(float64(candidates))
}
