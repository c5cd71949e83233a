// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the gateway-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	rpcInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "promptdeck",
			Subsystem: "rpc",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight RPC requests.",
		},
	)

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promptdeck",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPC calls handled.",
		},
		[]string{"namespace", "method", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promptdeck",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPC calls.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"namespace", "method"},
	)

	pointsCharged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "promptdeck",
			Subsystem: "points",
			Name:      "charged_total",
			Help:      "Total points charged for successful generations.",
		},
	)
)

func init() {
	Registry.MustRegister(rpcInFlight, rpcRequests, rpcDuration, pointsCharged)
}

// ObserveRPC records one completed RPC call. code is 0 for success,
// otherwise the taxonomy error code.
func ObserveRPC(namespace, method string, code int, elapsed time.Duration) {
	rpcRequests.WithLabelValues(namespace, method, strconv.Itoa(code)).Inc()
	rpcDuration.WithLabelValues(namespace, method).Observe(elapsed.Seconds())
}

// RPCStarted marks a request in flight; call the returned func when done.
func RPCStarted() func() {
	rpcInFlight.Inc()
	return rpcInFlight.Dec
}

// PointsCharged records points debited for a successful generation.
func PointsCharged(amount int64) {
	pointsCharged.Add(float64(amount))
}

// Handler serves the registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
