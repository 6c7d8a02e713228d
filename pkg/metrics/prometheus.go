// Package metrics provides Prometheus metrics for the track and field runner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the runner.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Tick loop
	ticksProcessed prometheus.Counter
	tickLatency    prometheus.Histogram
	activeEvent    prometheus.Gauge

	// Event lifecycle
	eventsStarted   *prometheus.CounterVec
	eventsCompleted *prometheus.CounterVec
	eventErrors     *prometheus.CounterVec

	// Spawning
	botsSpawned       prometheus.Counter
	spawnsUnresolved  prometheus.Counter
	matchLaunches     prometheus.Counter
	readyReceived     prometheus.Counter
	readyTimeouts     prometheus.Counter
	broadcastsSent    *prometheus.CounterVec
	documentsWritten  *prometheus.CounterVec
	documentWriteTime prometheus.Histogram

	// Matchcomms inbound queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	queueDropped  prometheus.Counter

	// Host bridge
	bridgeRequests *prometheus.CounterVec
	bridgeLatency  *prometheus.HistogramVec

	// Status server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trackfield",
		subsystem:        "runner",
		histogramBuckets: []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.ticksProcessed = m.counter("ticks_processed_total", "Game ticks fed to the active event")
	m.tickLatency = m.histogram("tick_latency_milliseconds", "Time spent inside a single event tick")
	m.activeEvent = m.gauge("active_event_index", "Index of the event currently running, -1 when idle")

	m.eventsStarted = m.counterVec("events_started_total", "Events that received their first tick", "event_type")
	m.eventsCompleted = m.counterVec("events_completed_total", "Events that reported completion", "event_type")
	m.eventErrors = m.counterVec("event_errors_total", "Errors returned by event ticks", "event_type")

	m.botsSpawned = m.counter("bots_spawned_total", "Bots added to a launched match")
	m.spawnsUnresolved = m.counter("spawns_unresolved_total", "Spawn ids that never appeared in the packet")
	m.matchLaunches = m.counter("match_launches_total", "Match configurations sent to the host")
	m.readyReceived = m.counter("ready_messages_total", "Ready handshakes received from competitors")
	m.readyTimeouts = m.counter("ready_timeouts_total", "Ready handshakes that timed out")
	m.broadcastsSent = m.counterVec("broadcasts_sent_total", "Event specifications broadcast to bots", "event_type")
	m.documentsWritten = m.counterVec("documents_written_total", "JSON documents persisted", "kind")
	m.documentWriteTime = m.histogram("document_write_milliseconds", "Time spent persisting a JSON document")

	m.queueSize = m.gauge("matchcomms_queue_size", "Inbound matchcomms messages waiting to be read")
	m.queueCapacity = m.gauge("matchcomms_queue_capacity", "Capacity of the inbound matchcomms queue")
	m.queueDropped = m.counter("matchcomms_dropped_total", "Inbound matchcomms messages dropped on a full queue")

	m.bridgeRequests = m.counterVec("bridge_requests_total", "Requests sent to the host bridge", "op", "outcome")
	m.bridgeLatency = m.histogramVec("bridge_latency_milliseconds", "Host bridge round trip latency", "op")

	m.httpRequests = m.counterVec("http_requests_total", "Status server requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "Status server request duration",
		"endpoint", "method", "status_code")
}

// RecordTick counts one tick and its latency in milliseconds.
func RecordTick(latencyMs float64) {
	globalManager.ticksProcessed.Inc()
	globalManager.tickLatency.Observe(latencyMs)
}

// UpdateActiveEvent sets the index of the running event.
func UpdateActiveEvent(index int) {
	globalManager.activeEvent.Set(float64(index))
}

// RecordEventStarted counts an event's first tick.
func RecordEventStarted(eventType string) {
	globalManager.eventsStarted.WithLabelValues(eventType).Inc()
}

// RecordEventCompleted counts a finished event.
func RecordEventCompleted(eventType string) {
	globalManager.eventsCompleted.WithLabelValues(eventType).Inc()
}

// RecordEventError counts a failed tick.
func RecordEventError(eventType string) {
	globalManager.eventErrors.WithLabelValues(eventType).Inc()
}

// RecordBotsSpawned adds n spawned bots.
func RecordBotsSpawned(n int) {
	globalManager.botsSpawned.Add(float64(n))
}

// RecordSpawnUnresolved counts a spawn whose packet index stayed unknown.
func RecordSpawnUnresolved() {
	globalManager.spawnsUnresolved.Inc()
}

// RecordMatchLaunch counts a match configuration pushed to the host.
func RecordMatchLaunch() {
	globalManager.matchLaunches.Inc()
}

// RecordReadyReceived counts a ready handshake.
func RecordReadyReceived() {
	globalManager.readyReceived.Inc()
}

// RecordReadyTimeout counts a handshake wait that gave up.
func RecordReadyTimeout() {
	globalManager.readyTimeouts.Inc()
}

// RecordBroadcast counts an event specification broadcast.
func RecordBroadcast(eventType string) {
	globalManager.broadcastsSent.WithLabelValues(eventType).Inc()
}

// RecordDocumentWrite counts a persisted document of the given kind.
func RecordDocumentWrite(kind string, latencyMs float64) {
	globalManager.documentsWritten.WithLabelValues(kind).Inc()
	globalManager.documentWriteTime.Observe(latencyMs)
}

// UpdateQueueSize sets the inbound matchcomms backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the inbound matchcomms capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueDropped counts a message dropped on a full queue.
func RecordQueueDropped() {
	globalManager.queueDropped.Inc()
}

// RecordBridgeRequest records a host bridge round trip.
func RecordBridgeRequest(op, outcome string, latencyMs float64) {
	globalManager.bridgeRequests.WithLabelValues(op, outcome).Inc()
	globalManager.bridgeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordHTTPRequest records a status server request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
