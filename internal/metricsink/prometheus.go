// Package metricsink provides concrete MetricsSink implementations for
// pkg/payloadstate's terminal metrics emission (spec §4.6, §6).
package metricsink

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a MetricsSink backed by one prometheus.Histogram per
// distinct metric name, lazily registered on first observation with
// linear buckets derived from that call's own min/max/buckets.
type Prometheus struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	histograms map[string]prometheus.Histogram
}

// NewPrometheus returns a Prometheus sink registering into reg.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	return &Prometheus{
		registry:   reg,
		histograms: make(map[string]prometheus.Histogram),
	}
}

func (p *Prometheus) SendToUMA(name string, sample, min, max int64, buckets int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.histograms[name]
	if !ok {
		width := float64(max-min) / float64(buckets)
		if width <= 0 {
			width = 1
		}
		h = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    promName(name),
			Help:    fmt.Sprintf("payload state machine sample %q", name),
			Buckets: prometheus.LinearBuckets(float64(min), width, buckets),
		})
		if err := p.registry.Register(h); err != nil {
			return fmt.Errorf("registering histogram for %q: %w", name, err)
		}
		p.histograms[name] = h
	}

	h.Observe(float64(sample))
	return nil
}

var (
	camelBoundary   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymBoundary = regexp.MustCompile(`([A-Z])([A-Z][a-z])`)
)

// promName converts a CamelCase UMA-style metric name into a
// payloadstate_snake_case Prometheus metric name. An upper-case run is
// split before its last letter when that letter starts a new word, so
// "UpdateURLSwitches" becomes "update_url_switches".
func promName(name string) string {
	snake := acronymBoundary.ReplaceAllString(name, "${1}_${2}")
	snake = camelBoundary.ReplaceAllString(snake, "${1}_${2}")
	return "payloadstate_" + strings.ToLower(snake)
}
