// Package metrics exposes Prometheus counters for the session lifecycle
// plus the HTTP handler that serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accountd_registrations_total",
		Help: "Total number of successful registrations.",
	})
	Logins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accountd_logins_total",
		Help: "Total number of successful logins.",
	})
	RefreshRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accountd_refresh_rotations_total",
		Help: "Total number of successful refresh-token rotations.",
	})
	RefreshReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accountd_refresh_replays_total",
		Help: "Total number of refresh attempts rejected because the presented token was superseded or cleared.",
	})
	RequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountd_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
