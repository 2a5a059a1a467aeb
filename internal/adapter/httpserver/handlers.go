package httpserver

import (
	"context"
	"net/http"
)

// Server aggregates the dependencies the ops-facing handlers need: a
// readiness check per external collaborator. There is no admin/auth
// surface in this service — the only externally reachable routes are
// health/readiness/metrics and the approval webhook, mounted separately.
type Server struct {
	DBCheck    func(ctx context.Context) error
	DedupCheck func(ctx context.Context) error
}

// HealthzHandler reports liveness unconditionally: the process is up.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler reports readiness, running every configured check and
// reporting 503 if any fails.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		ready := true

		if s.DBCheck != nil {
			if err := s.DBCheck(r.Context()); err != nil {
				checks["db"] = err.Error()
				ready = false
			} else {
				checks["db"] = "ok"
			}
		}
		if s.DedupCheck != nil {
			if err := s.DedupCheck(r.Context()); err != nil {
				checks["dedup"] = err.Error()
				ready = false
			} else {
				checks["dedup"] = "ok"
			}
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"checks": checks})
	}
}
