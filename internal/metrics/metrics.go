package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mindengage"

// unmatchedRoute labels requests no route matched, keeping label cardinality fixed.
const unmatchedRoute = "unmatched"

// Metrics holds the Prometheus collectors for the courses service.
type Metrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	Submissions        *prometheus.CounterVec // by result: passed|failed
	CertificatesIssued prometheus.Counter
	Renders            *prometheus.CounterVec // by kind and result
	IssuanceRetries    *prometheus.CounterVec // by result
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestCounter: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quiz",
			Name:      "submissions_total",
			Help:      "Graded quiz submissions",
		}, []string{"result"}),
		CertificatesIssued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificate",
			Name:      "issued_total",
			Help:      "Newly issued course certificates",
		}),
		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "documents_total",
			Help:      "PDF documents rendered",
		}, []string{"kind", "result"}),
		IssuanceRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "certificate",
			Name:      "issuance_retries_total",
			Help:      "Queued certificate issuance retries",
		}, []string{"result"}),
	}
}

// Nop returns collectors bound to a throwaway registry.
func Nop() *Metrics { return New(prometheus.NewRegistry()) }

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveSubmission(passed bool) {
	if passed {
		m.Submissions.WithLabelValues("passed").Inc()
		return
	}
	m.Submissions.WithLabelValues("failed").Inc()
}

func (m *Metrics) ObserveRender(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Renders.WithLabelValues(kind, result).Inc()
}
