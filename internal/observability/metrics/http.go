package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	conversionsTotal   *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	conversionRecords  *prometheus.HistogramVec
	conversionIssues   *prometheus.CounterVec
	advisorCallsTotal  *prometheus.CounterVec
	advisorDuration    *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiconv",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiconv",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aiconv",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	conversionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiconv",
			Subsystem: "convert",
			Name:      "conversions_total",
			Help:      "Total completed conversions by target format and processing mode.",
		},
		[]string{"service", "target", "mode"},
	)
	conversionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiconv",
			Subsystem: "convert",
			Name:      "duration_seconds",
			Help:      "Conversion pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "target"},
	)
	conversionRecords := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiconv",
			Subsystem: "convert",
			Name:      "records",
			Help:      "Distribution of record counts per conversion.",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
		[]string{"service", "target"},
	)
	conversionIssues := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiconv",
			Subsystem: "convert",
			Name:      "issues_total",
			Help:      "Total data quality issues detected during conversions.",
		},
		[]string{"service", "kind"},
	)
	advisorCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aiconv",
			Subsystem: "advisor",
			Name:      "calls_total",
			Help:      "Total type advisor calls by outcome.",
		},
		[]string{"service", "outcome"},
	)
	advisorDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "aiconv",
			Subsystem: "advisor",
			Name:      "duration_seconds",
			Help:      "Type advisor call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		conversionsTotal,
		conversionDuration,
		conversionRecords,
		conversionIssues,
		advisorCallsTotal,
		advisorDuration,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		conversionsTotal:   conversionsTotal,
		conversionDuration: conversionDuration,
		conversionRecords:  conversionRecords,
		conversionIssues:   conversionIssues,
		advisorCallsTotal:  advisorCallsTotal,
		advisorDuration:    advisorDuration,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/conversions/"):
		return "/v1/conversions/{job_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordConversion(service, target, mode string, records int, duration time.Duration) {
	if mode == "" {
		mode = "unknown"
	}
	m.conversionsTotal.WithLabelValues(service, target, mode).Inc()
	m.conversionDuration.WithLabelValues(service, target).Observe(duration.Seconds())
	if records >= 0 {
		m.conversionRecords.WithLabelValues(service, target).Observe(float64(records))
	}
}

func (m *HTTPServerMetrics) RecordIssue(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.conversionIssues.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordAdvisorCall(service, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.advisorCallsTotal.WithLabelValues(service, outcome).Inc()
	m.advisorDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// statusRecorder captures the status code for the request counter. All
// responses here are buffered JSON or workbook bytes, so no other
// ResponseWriter capabilities need forwarding.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
