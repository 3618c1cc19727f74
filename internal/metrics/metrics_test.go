package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/certificates/{certificateID}/verify", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/certificates/ABCDEF0123456789/verify", nil))

	got := testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/certificates/{certificateID}/verify", "404"))
	assert.Equal(t, 1.0, got)
}

func TestMiddlewareGroupsUnmatchedPaths(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {})

	for _, p := range []string{"/nope/1", "/nope/2", "/wp-login.php"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestCounter))
}

func TestObserveHelpers(t *testing.T) {
	m := Nop()
	m.ObserveSubmission(true)
	m.ObserveSubmission(false)
	m.ObserveSubmission(false)
	m.ObserveRender("certificate", nil)
	m.ObserveRender("certificate", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("passed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("certificate", "error")))
}
