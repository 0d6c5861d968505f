package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Termination results used as label values.
const (
	ResultTerminated = "terminated"
	ResultFailed     = "failed"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	spawns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mockctl",
			Subsystem: "supervisor",
			Name:      "spawns_total",
			Help:      "Number of mock server processes spawned.",
		}, []string{"server"},
	)
	spawnFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mockctl",
			Subsystem: "supervisor",
			Name:      "spawn_failures_total",
			Help:      "Number of mock server processes that failed to spawn.",
		}, []string{"server"},
	)
	terminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mockctl",
			Subsystem: "supervisor",
			Name:      "terminations_total",
			Help:      "Number of process tree termination attempts by result.",
		}, []string{"result"},
	)
	tracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mockctl",
			Subsystem: "supervisor",
			Name:      "tracked_processes",
			Help:      "Number of pids recorded in the pid file.",
		},
	)
	alive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mockctl",
			Subsystem: "supervisor",
			Name:      "alive_processes",
			Help:      "Number of recorded pids that are still running.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{spawns, spawnFailures, terminations, tracked, alive}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// Already registered collectors are kept as they are.
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// HandlerFor serves metrics from a specific gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// The helpers below no-op until Register has succeeded.

func IncSpawn(server string) {
	if regOK.Load() {
		spawns.WithLabelValues(server).Inc()
	}
}

func IncSpawnFailure(server string) {
	if regOK.Load() {
		spawnFailures.WithLabelValues(server).Inc()
	}
}

func IncTermination(result string) {
	if regOK.Load() {
		terminations.WithLabelValues(result).Inc()
	}
}

func SetTracked(n int) {
	if regOK.Load() {
		tracked.Set(float64(n))
	}
}

func SetAlive(n int) {
	if regOK.Load() {
		alive.Set(float64(n))
	}
}
