// Package metrics instruments the data port with Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/future"
	"github.com/poiesic/dataport/storage"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dataport"

// Operation labels.
const (
	OpFindUser  = "find_user"
	OpFindPosts = "find_posts"
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeMapping     = "mapping"
	OutcomeError       = "error"
)

// Collector holds the data port collectors.
type Collector struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// NewCollector creates the collectors and registers them with reg.
// Collectors already registered by an earlier Collector are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "port",
				Name:      "calls_total",
				Help:      "Data port calls by backend, operation and outcome",
			},
			[]string{"backend", "op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "port",
				Name:      "call_duration_seconds",
				Help:      "Time from issuing a data port call to its settlement",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"backend", "op"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "port",
				Name:      "in_flight",
				Help:      "Data port calls issued but not yet settled",
			},
			[]string{"backend"},
		),
	}

	var err error
	if c.calls, err = register(reg, c.calls); err != nil {
		return nil, err
	}
	if c.duration, err = register(reg, c.duration); err != nil {
		return nil, err
	}
	if c.inFlight, err = register(reg, c.inFlight); err != nil {
		return nil, err
	}
	return c, nil
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

// Outcome classifies a settled call's error into an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case storage.IsMapping(err):
		return OutcomeMapping
	case storage.IsNotFound(err):
		return OutcomeNotFound
	case storage.IsBackendUnavailable(err):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

// instrumented decorates a port with call metrics.
type instrumented struct {
	next    storage.AsyncRepository
	backend string
	c       *Collector
}

var _ storage.AsyncRepository = (*instrumented)(nil)

// Instrument wraps port so every call is counted and timed under backend.
// Observations are recorded when the returned Future settles, not when the
// call returns.
func Instrument(port storage.AsyncRepository, backend string, c *Collector) storage.AsyncRepository {
	return &instrumented{next: port, backend: backend, c: c}
}

func (i *instrumented) FindUserByUsername(ctx context.Context, username string) *future.Future[*core.User] {
	done := i.begin(OpFindUser)
	f := i.next.FindUserByUsername(ctx, username)
	f.OnSettled(func(_ *core.User, err error) { done(err) })
	return f
}

func (i *instrumented) FindPostsForRecipient(ctx context.Context, username string) *future.Future[[]*core.Post] {
	done := i.begin(OpFindPosts)
	f := i.next.FindPostsForRecipient(ctx, username)
	f.OnSettled(func(_ []*core.Post, err error) { done(err) })
	return f
}

func (i *instrumented) Close() error {
	return i.next.Close()
}

func (i *instrumented) begin(op string) func(error) {
	start := time.Now()
	gauge := i.c.inFlight.WithLabelValues(i.backend)
	gauge.Inc()
	return func(err error) {
		gauge.Dec()
		i.c.duration.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
		i.c.calls.WithLabelValues(i.backend, op, Outcome(err)).Inc()
	}
}
