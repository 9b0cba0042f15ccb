package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector the service exports.
var Registry = prometheus.NewRegistry()

var (
	upstreamCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "upstream_requests_total",
		Help:      "Downstream calls by upstream and outcome.",
	}, []string{"upstream", "outcome"})

	upstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "copilot",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of downstream calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"upstream"})

	sweepFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "sandbox_sweep_files_total",
		Help:      "Expired sandbox files processed by the sweep.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		upstreamCalls,
		upstreamLatency,
		sweepFiles,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordUpstreamCall records one downstream call.
func RecordUpstreamCall(upstream string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamCalls.WithLabelValues(upstream, outcome).Inc()
	upstreamLatency.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordSweep records sweep results; result is "deleted" or "blob_error".
func RecordSweep(result string, n int) {
	if n <= 0 {
		return
	}
	sweepFiles.WithLabelValues(result).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
