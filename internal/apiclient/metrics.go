package apiclient

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts and times outbound API calls.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the client collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssc_portal",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Outbound SSC API requests by method, resource and status.",
		}, []string{"method", "resource", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ssc_portal",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Latency of outbound SSC API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "resource"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	resource := resourceOf(path)
	m.requests.WithLabelValues(method, resource, status).Inc()
	m.duration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

// resourceOf maps a path to a bounded label: /api/members/12 -> "members",
// /api/attendance/daily/bulk-present -> "attendance/daily".
func resourceOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api"), "/"), "/")
	switch {
	case len(parts) == 0 || parts[0] == "":
		return "root"
	case (parts[0] == "attendance" || parts[0] == "auth") && len(parts) > 1:
		return parts[0] + "/" + parts[1]
	default:
		return parts[0]
	}
}
