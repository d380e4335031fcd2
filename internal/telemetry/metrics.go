// Package telemetry exports per-frame player and session metrics to
// Prometheus. Labels are bounded; nothing is labelled per player.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Faultbox/omnistep/internal/engine/motion"
)

// Metrics holds every collector of one session.
type Metrics struct {
	gatherer prometheus.Gatherer

	frameDuration prometheus.Histogram
	frames        prometheus.Counter
	substeps      prometheus.Gauge

	speed       prometheus.Gauge
	grounded    prometheus.Gauge
	contacts    prometheus.Counter
	teleports   prometheus.Counter
	respawns    prometheus.Counter
	modeChanges *prometheus.CounterVec

	rebuilds     *prometheus.CounterVec
	dynamicFaces prometheus.Gauge

	requestLatency   *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	rejected         *prometheus.CounterVec
	streamClients    prometheus.Gauge
	commandsDropped  prometheus.Counter
	commandsExecuted *prometheus.CounterVec
}

// New registers the collectors with a fresh registry.
func New() *Metrics {
	return NewWith(prometheus.NewRegistry())
}

// NewWith registers the collectors with reg, which must also gather.
func NewWith(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		frameDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "omnistep_frame_duration_seconds",
			Help:    "Simulated timestep per frame",
			Buckets: []float64{0.004, 0.008, 0.0167, 0.025, 0.033, 0.05, 0.1},
		}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "omnistep_frames_total",
			Help: "Frames simulated",
		}),
		substeps: f.NewGauge(prometheus.GaugeOpts{
			Name: "omnistep_physics_substeps",
			Help: "Spring substeps in the last frame",
		}),

		speed: f.NewGauge(prometheus.GaugeOpts{
			Name: "omnistep_player_speed_meters_per_second",
			Help: "Observed player speed",
		}),
		grounded: f.NewGauge(prometheus.GaugeOpts{
			Name: "omnistep_player_grounded",
			Help: "1 while the player stands on walkable ground",
		}),
		contacts: f.NewCounter(prometheus.CounterOpts{
			Name: "omnistep_player_contact_frames_total",
			Help: "Frames with any collision contact",
		}),
		teleports: f.NewCounter(prometheus.CounterOpts{
			Name: "omnistep_teleports_total",
			Help: "Teleports started",
		}),
		respawns: f.NewCounter(prometheus.CounterOpts{
			Name: "omnistep_respawns_total",
			Help: "Respawns",
		}),
		modeChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "omnistep_mode_changes_total",
			Help: "Movement mode changes by new mode",
		}, []string{"mode"}), // WALK, FLY

		rebuilds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "omnistep_dynamic_rebuilds_total",
			Help: "Dynamic tree updates",
		}, []string{"result"}), // rebuilt, skipped
		dynamicFaces: f.NewGauge(prometheus.GaugeOpts{
			Name: "omnistep_dynamic_faces",
			Help: "Faces in the dynamic tree",
		}),

		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "omnistep_http_request_duration_seconds",
			Help:    "Control API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		requestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "omnistep_http_requests_total",
			Help: "Control API requests",
		}, []string{"method", "endpoint", "status"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "omnistep_connection_rejected_total",
			Help: "Requests rejected by the rate limiter or a full stream",
		}, []string{"reason"}), // rate_limit, ws_limit
		streamClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "omnistep_stream_clients",
			Help: "Connected state stream clients",
		}),
		commandsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "omnistep_commands_dropped_total",
			Help: "Remote commands dropped because the queue was full",
		}),
		commandsExecuted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "omnistep_commands_total",
			Help: "Remote commands executed by kind",
		}, []string{"kind"}),
	}
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveFrame records one simulated frame.
func (m *Metrics) ObserveFrame(dt float32, substeps int) {
	m.frameDuration.Observe(float64(dt))
	m.frames.Inc()
	m.substeps.Set(float64(substeps))
}

// ObservePlayer records the player after a frame and counts transitions
// from the previous snapshot.
func (m *Metrics) ObservePlayer(prev, cur motion.Snapshot) {
	m.speed.Set(float64(cur.RealVelocity.Len()))
	if cur.Grounded {
		m.grounded.Set(1)
	} else {
		m.grounded.Set(0)
	}
	if cur.Contact {
		m.contacts.Inc()
	}
	if cur.Teleporting && !prev.Teleporting {
		m.teleports.Inc()
	}
	if cur.Mode != prev.Mode && prev.Mode != "" {
		m.modeChanges.WithLabelValues(cur.Mode).Inc()
	}
}

// Respawned counts a respawn.
func (m *Metrics) Respawned() {
	m.respawns.Inc()
}

// DynamicRebuilt implements spatial.RebuildObserver.
func (m *Metrics) DynamicRebuilt(faces int, skipped bool) {
	if skipped {
		m.rebuilds.WithLabelValues("skipped").Inc()
		return
	}
	m.rebuilds.WithLabelValues("rebuilt").Inc()
	m.dynamicFaces.Set(float64(faces))
}

// RecordRequest records a control API request. endpoint is the route
// pattern, not the full URL.
func (m *Metrics) RecordRequest(method, endpoint string, status int, d time.Duration) {
	m.requestLatency.WithLabelValues(method, endpoint).Observe(d.Seconds())
	m.requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// RecordRejected counts a refused request. reason must be bounded.
func (m *Metrics) RecordRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// StreamClients sets the number of connected stream clients.
func (m *Metrics) StreamClients(n int) {
	m.streamClients.Set(float64(n))
}

// CommandDropped counts a command refused by a full queue.
func (m *Metrics) CommandDropped() {
	m.commandsDropped.Inc()
}

// CommandExecuted counts an executed remote command.
func (m *Metrics) CommandExecuted(kind string) {
	m.commandsExecuted.WithLabelValues(kind).Inc()
}
