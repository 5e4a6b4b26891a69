// Package metrics wraps the Prometheus collectors the broker reports
// to, and adapts them to the broker.Metrics interface so the broker
// package itself never imports the Prometheus client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps every Prometheus collector this server reports.
type Registry struct {
	sessionsActive  prometheus.Gauge
	channelsActive  prometheus.Gauge
	waitersArmed    prometheus.Gauge
	sweepRuns       prometheus.Counter
	sessionsExpired prometheus.Counter
	channelsSwept   prometheus.Counter
	published       *prometheus.CounterVec
	delivered       prometheus.Counter
	dropped         *prometheus.CounterVec
}

func NewRegistry() *Registry {
	return &Registry{
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bayeux_sessions_active",
			Help: "Number of handshaken sessions currently registered",
		}),
		channelsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bayeux_channels_active",
			Help: "Number of channels currently known to the broker",
		}),
		waitersArmed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "bayeux_waiters_armed",
			Help: "Number of /meta/connect requests currently suspended",
		}),
		sweepRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayeux_sweep_runs_total",
			Help: "Total number of sweeper ticks executed",
		}),
		sessionsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayeux_sessions_expired_total",
			Help: "Total number of sessions reclaimed by the sweeper",
		}),
		channelsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayeux_channels_swept_total",
			Help: "Total number of empty channels reclaimed by the sweeper",
		}),
		published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bayeux_messages_published_total",
			Help: "Total number of messages published, labeled by channel kind",
		}, []string{"kind"}),
		delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bayeux_messages_delivered_total",
			Help: "Total number of messages delivered to a subscriber",
		}),
		dropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bayeux_messages_dropped_total",
			Help: "Total number of messages dropped, labeled by reason",
		}, []string{"reason"}),
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.Handler() }

func (r *Registry) SessionsActive(delta int) { r.sessionsActive.Add(float64(delta)) }
func (r *Registry) ChannelsActive(delta int) { r.channelsActive.Add(float64(delta)) }
func (r *Registry) WaitersArmed(delta int)   { r.waitersArmed.Add(float64(delta)) }

func (r *Registry) SweepRun(sessionsExpired, channelsRemoved int) {
	r.sweepRuns.Inc()
	r.sessionsExpired.Add(float64(sessionsExpired))
	r.channelsSwept.Add(float64(channelsRemoved))
}

func (r *Registry) MessagePublished(channelKind string) { r.published.WithLabelValues(channelKind).Inc() }
func (r *Registry) MessageDelivered()                   { r.delivered.Inc() }
func (r *Registry) MessageDropped(reason string)         { r.dropped.WithLabelValues(reason).Inc() }
