package netdial

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// dialMetrics records dial outcomes and latencies. A nil *dialMetrics is
// valid and records nothing, so the dialer never branches on whether
// metrics are configured.
type dialMetrics struct {
	dials    *prometheus.CounterVec
	attempts prometheus.Counter
	duration prometheus.Histogram
}

func newDialMetrics(reg prometheus.Registerer) (*dialMetrics, error) {
	m := &dialMetrics{
		dials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netdial",
			Name:      "dials_total",
			Help:      "Completed dials by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netdial",
			Name:      "dial_attempts_total",
			Help:      "Individual per-candidate connect attempts.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netdial",
			Name:      "dial_duration_seconds",
			Help:      "Wall time from dial start to completion.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		}),
	}
	for _, c := range []prometheus.Collector{m.dials, m.attempts, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *dialMetrics) observeDial(err error, took time.Duration) {
	if m == nil {
		return
	}
	m.dials.WithLabelValues(outcomeLabel(err)).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *dialMetrics) observeAttempt() {
	if m == nil {
		return
	}
	m.attempts.Inc()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDialTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrDialBackoff):
		return "backoff"
	case errors.Is(err, ErrDialerClosed):
		return "closed"
	case errors.Is(err, ErrAllDialsFailed):
		return "failed"
	}
	var re *ResolveError
	if errors.As(err, &re) {
		return "resolve_error"
	}
	return "error"
}
