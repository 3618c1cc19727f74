package http

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a readiness dependency.
type Pinger func(ctx context.Context) error

func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { ok(w, "ok", nil) }
}

// ReadyzHandler reports 503 until every dependency answers.
func ReadyzHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{}
		ready := true
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				status[name] = err.Error()
				ready = false
				continue
			}
			status[name] = "ok"
		}
		if !ready {
			writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "not ready", Data: status})
			return
		}
		ok(w, "ready", status)
	}
}
