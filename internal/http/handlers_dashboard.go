package http

import (
	"log/slog"
	"net/http"

	"bilancio/internal/core"
)

// handleDashboard serves the composed month view for the current month,
// cached for a couple of minutes between writes.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := string(core.MonthKeyOf(now))

	if d, found := s.dashboardCache.Get(key); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "month", key)
		writeJSON(w, http.StatusOK, d)
		return
	}

	d, err := s.dashboard.MonthDashboard(r.Context(), now)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.dashboardCache.Set(key, d)
	writeJSON(w, http.StatusOK, d)
}
