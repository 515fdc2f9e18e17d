// Package observability provides Prometheus metrics for recording sessions.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics contains the recorder's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	stopEscalations  *prometheus.CounterVec
	spawnFailures    prometheus.Counter
	recordingActive  prometheus.Gauge
	sessionDuration  prometheus.Histogram
}

// NewMetrics creates the recorder metrics and registers them, along with the
// Go runtime and process collectors, on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initMetrics()

	for _, c := range []prometheus.Collector{
		m,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.sessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zrec_sessions_started_total",
		Help: "Total number of recording sessions whose encoder spawned",
	})

	m.sessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zrec_sessions_finished_total",
			Help: "Total number of finished recording sessions",
		},
		[]string{"state", "requested"}, // state: stopped, failed
	)

	m.stopEscalations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zrec_stop_escalations_total",
			Help: "Total number of shutdown steps issued to encoders",
		},
		[]string{"step"}, // step: quit, terminate, kill
	)

	m.spawnFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zrec_spawn_failures_total",
		Help: "Total number of encoder spawn failures",
	})

	m.recordingActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zrec_recording_active",
		Help: "1 while an encoder is running, else 0",
	})

	m.sessionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "zrec_session_duration_seconds",
		Help: "Wall-clock duration of finished recording sessions",
		// 1s .. ~9h
		Buckets: prometheus.ExponentialBuckets(1, 2, 16),
	})
}

// Registry is the registry to expose on /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.sessionsStarted.Describe(ch)
	m.sessionsFinished.Describe(ch)
	m.stopEscalations.Describe(ch)
	m.spawnFailures.Describe(ch)
	m.recordingActive.Describe(ch)
	m.sessionDuration.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.sessionsStarted.Collect(ch)
	m.sessionsFinished.Collect(ch)
	m.stopEscalations.Collect(ch)
	m.spawnFailures.Collect(ch)
	m.recordingActive.Collect(ch)
	m.sessionDuration.Collect(ch)
}

// SessionStarted records a successful spawn.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
	m.recordingActive.Set(1)
}

// SessionFinished records a terminal state. durationSeconds is ignored for
// sessions that never started.
func (m *Metrics) SessionFinished(state string, requested bool, durationSeconds float64) {
	if m == nil {
		return
	}
	m.sessionsFinished.WithLabelValues(state, strconv.FormatBool(requested)).Inc()
	m.recordingActive.Set(0)
	if durationSeconds > 0 {
		m.sessionDuration.Observe(durationSeconds)
	}
}

// Escalation records one shutdown step.
func (m *Metrics) Escalation(step string) {
	if m == nil {
		return
	}
	m.stopEscalations.WithLabelValues(step).Inc()
}

// SpawnFailed records an encoder that could not be started.
func (m *Metrics) SpawnFailed() {
	if m == nil {
		return
	}
	m.spawnFailures.Inc()
}
