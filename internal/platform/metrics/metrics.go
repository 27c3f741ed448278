// Package metrics provides observability for the game server.
// Collectors are package-level so the simulation can record without
// carrying a handle; Registry exposes them for scraping.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "overheat"

// Tick metrics
var (
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Wall time spent in one simulation step.",
		Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
	})
	Heat = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "heat",
		Help:      "Current heat of the running session.",
	})
	ActivePopups = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_popups",
		Help:      "Popups currently open.",
	})
)

// Gameplay metrics
var (
	SessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Sessions started, including restarts.",
	})
	GameOvers = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "game_overs_total",
		Help:      "Sessions that ended by overheating.",
	})
	SurvivalSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "survival_seconds",
		Help:      "Survived time of finished sessions.",
		Buckets:   []float64{15, 30, 45, 60, 90, 120, 180, 300, 600},
	})
	PopupsSpawned = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "popups_spawned_total",
		Help:      "Popups spawned by kind.",
	}, []string{"kind"})
	PopupsRemoved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "popups_removed_total",
		Help:      "Popups removed by kind and outcome.",
	}, []string{"kind", "outcome"})
	PowerupsResolved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "powerups_resolved_total",
		Help:      "Power-up tokens that left the lane, by kind and result.",
	}, []string{"kind", "result"})
	PowerupsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "powerups_consumed_total",
		Help:      "Stored power-ups spent, by kind.",
	}, []string{"kind"})
)

// Input metrics
var (
	InputsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inputs_processed_total",
		Help:      "Player inputs applied to the session, by kind.",
	}, []string{"kind"})
	InputsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inputs_dropped_total",
		Help:      "Player inputs rejected because the queue was full.",
	})
)

// Event and WebSocket metrics
var (
	EventWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_writes_total",
		Help:      "Events handed to the persister, by status.",
	}, []string{"status"})
	EventWriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_write_duration_seconds",
		Help:      "Latency of persisting one event.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Active WebSocket connections.",
	})
	WSMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_messages_total",
		Help:      "WebSocket messages by direction.",
	}, []string{"direction"})
	WSErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_errors_total",
		Help:      "WebSocket read/write failures and rejected actions.",
	})
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// Registry returns the process registry with every collector of this
// package plus the Go runtime and process collectors.
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		Register(registry)
	})
	return registry
}

// Register adds this package's collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		TickDuration, Heat, ActivePopups,
		SessionsStarted, GameOvers, SurvivalSeconds,
		PopupsSpawned, PopupsRemoved, PowerupsResolved, PowerupsConsumed,
		InputsProcessed, InputsDropped,
		EventWrites, EventWriteDuration,
		WSConnections, WSMessages, WSErrors,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}

// RecordEventWrite records an event write to the persister.
func RecordEventWrite(latency time.Duration, err error) {
	EventWriteDuration.Observe(latency.Seconds())
	if err != nil {
		EventWrites.WithLabelValues("error").Inc()
		return
	}
	EventWrites.WithLabelValues("ok").Inc()
}

// RecordWSConnection records WebSocket connection changes.
func RecordWSConnection(delta int) {
	WSConnections.Add(float64(delta))
}

// RecordWSMessage records WebSocket messages.
func RecordWSMessage(incoming bool) {
	if incoming {
		WSMessages.WithLabelValues("in").Inc()
	} else {
		WSMessages.WithLabelValues("out").Inc()
	}
}

// RecordWSError records a WebSocket error.
func RecordWSError() {
	WSErrors.Inc()
}
