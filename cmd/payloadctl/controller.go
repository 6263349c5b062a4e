package main

import (
	"crypto/rand"
	"encoding/binary"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/openota/payloadstated/internal/buildkind"
	"github.com/openota/payloadstated/internal/clock"
	"github.com/openota/payloadstated/internal/metricsink"
	"github.com/openota/payloadstated/internal/randsource"
	"github.com/openota/payloadstated/internal/reboot"
	"github.com/openota/payloadstated/internal/store"
	"github.com/openota/payloadstated/pkg/payloadstate"
)

// buildSink constructs the MetricsSink cfg.Metrics asks for, optionally
// wrapping it in a circuit breaker, and (for the prometheus backend)
// starting the /metrics HTTP server the daemon subcommand exposes.
func buildSink() metricsink.Sink {
	var sink metricsink.Sink

	switch cfg.Metrics.Backend {
	case "prometheus":
		reg := prometheus.NewRegistry()
		prom := metricsink.NewPrometheus(reg)
		sink = prom
		if cfg.Metrics.PrometheusListenAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			go func() {
				if err := http.ListenAndServe(cfg.Metrics.PrometheusListenAddr, mux); err != nil {
					log.Error().Err(err).Msg("prometheus metrics listener exited")
				}
			}()
		}
	case "none":
		sink = noopSink{}
	default:
		sink = metricsink.NewLog(log.Logger)
	}

	if cfg.Metrics.Breaker {
		sink = metricsink.NewBreaker(sink)
	}
	return sink
}

type noopSink struct{}

func (noopSink) SendToUMA(name string, sample, min, max int64, buckets int) error { return nil }

// sinkAdapter adapts a metricsink.Sink to pkg/payloadstate.MetricsSink;
// the two interfaces are structurally identical but declared in
// separate packages to keep metricsink free of a payloadstate import.
type sinkAdapter struct{ metricsink.Sink }

// newController wires every collaborator from cfg and returns a ready
// Controller, the sqlite-backed store behind it (so callers can close
// it), and any error opening the store.
func newController() (*payloadstate.Controller, *store.SQLite, error) {
	db, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, nil, err
	}

	seed1, seed2 := seedFromOS()
	c := payloadstate.New(payloadstate.Deps{
		Store:   db,
		Clock:   clock.Real{},
		Random:  randsource.NewSeeded(seed1, seed2),
		Build:   buildkind.New(cfg.Build.Official),
		Reboot:  reboot.New(db),
		Metrics: sinkAdapter{buildSink()},
		Logger:  coreLogger(),
	})
	c.Initialize()
	return c, db, nil
}

// seedFromOS draws two uint64s from the OS entropy source to seed
// math/rand/v2's PCG generator once per process.
func seedFromOS() (uint64, uint64) {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return binary.LittleEndian.Uint64(b[0:8]), binary.LittleEndian.Uint64(b[8:16])
}
