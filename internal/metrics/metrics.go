// Package metrics exposes the bot's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identibot_dispatches_total",
		Help: "Total plugin dispatches by plugin and outcome",
	}, []string{"plugin", "outcome"})
	CooldownRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "identibot_cooldown_rejections_total",
		Help: "Dispatches rejected by the cooldown gate",
	})
	RepliesPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "identibot_replies_posted_total",
		Help: "Replies actually dispatched to the platform",
	})
	PluginDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "identibot_plugin_duration_seconds",
		Help:    "Plugin run duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"plugin"})
)

func init() {
	prometheus.MustRegister(Dispatches, CooldownRejections, RepliesPosted, PluginDuration)
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePluginDuration records one plugin run duration.
func ObservePluginDuration(plugin string, start time.Time) {
	PluginDuration.WithLabelValues(plugin).Observe(time.Since(start).Seconds())
}
