package metricsink

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// Sink is the minimal shape a metrics backend must implement; it
// mirrors pkg/payloadstate.MetricsSink without importing that package,
// since metricsink is a leaf collaborator pkg/payloadstate depends on.
type Sink interface {
	SendToUMA(name string, sample, min, max int64, buckets int) error
}

// Breaker wraps a Sink with a circuit breaker so a flaky or unreachable
// metrics backend (a stalled Prometheus pushgateway, a down collector)
// cannot back up the caller's event loop: once open, SendToUMA fails
// fast instead of blocking or retrying.
type Breaker struct {
	inner Sink
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker wraps inner, tripping after 4 consecutive failures and
// probing again after 30s.
func NewBreaker(inner Sink) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "metrics-sink",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

func (b *Breaker) SendToUMA(name string, sample, min, max int64, buckets int) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.SendToUMA(name, sample, min, max, buckets)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}
