package http

import (
	"net/http"
)

func (s *Server) exportsEnabled(w http.ResponseWriter, r *http.Request) bool {
	if s.svc.Exports == nil {
		ErrorResponse(http.StatusServiceUnavailable, CodeUnavailable, "spreadsheet export is not configured").Write(w, r)
		return false
	}
	return true
}

func (s *Server) handleExportStats(w http.ResponseWriter, r *http.Request) {
	if !s.exportsEnabled(w, r) {
		return
	}
	stats, err := s.svc.Exports.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// handleRetryExports puts parked rows back in the export queue.
func (s *Server) handleRetryExports(w http.ResponseWriter, r *http.Request) {
	if !s.exportsEnabled(w, r) {
		return
	}
	n, err := s.svc.Exports.RetryFailed(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int64{"requeued": n})
}
