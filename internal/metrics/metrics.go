package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Launch results used as the "result" label of launch_requests_total.
const (
	ResultSuccess       = "success"
	ResultInvalidInput  = "invalid_input"
	ResultPathNotFound  = "path_not_found"
	ResultPersistFailed = "persist_failed"
	ResultLaunchFailed  = "launch_failed"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrchime",
			Subsystem: "config",
			Name:      "resolve_total",
			Help:      "Number of configuration resolutions by the tier that answered.",
		}, []string{"source"},
	)
	persists = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrchime",
			Subsystem: "config",
			Name:      "persist_total",
			Help:      "Number of install path writes by outcome.",
		}, []string{"result"},
	)
	launchRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vrchime",
			Subsystem: "launch",
			Name:      "requests_total",
			Help:      "Number of launch requests by result.",
		}, []string{"result"},
	)
	instancesSpawned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vrchime",
			Subsystem: "launch",
			Name:      "instances_spawned_total",
			Help:      "Number of instances successfully spawned.",
		},
	)
	spawnFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vrchime",
			Subsystem: "launch",
			Name:      "spawn_failures_total",
			Help:      "Number of spawn calls that failed.",
		},
	)
	launchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vrchime",
			Subsystem: "launch",
			Name:      "duration_seconds",
			Help:      "Wall time of a launch request from validation to the last spawn.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{resolutions, persists, launchRequests, instancesSpawned, spawnFailures, launchDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
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

// Helpers below no-op if Register hasn't been called.

func IncResolve(source string) {
	if regOK.Load() {
		resolutions.WithLabelValues(source).Inc()
	}
}

func IncPersist(ok bool) {
	if regOK.Load() {
		res := "ok"
		if !ok {
			res = "error"
		}
		persists.WithLabelValues(res).Inc()
	}
}

func IncLaunch(result string) {
	if regOK.Load() {
		launchRequests.WithLabelValues(result).Inc()
	}
}

func IncSpawned() {
	if regOK.Load() {
		instancesSpawned.Inc()
	}
}

func IncSpawnFailure() {
	if regOK.Load() {
		spawnFailures.Inc()
	}
}

func ObserveLaunchDuration(seconds float64) {
	if regOK.Load() {
		launchDuration.Observe(seconds)
	}
}
