package http

import (
	"net/http"

	"worklife/internal/core"
)

type focusStartRequest struct {
	Label          string `json:"label"`
	HabitID        *int64 `json:"habit_id,omitempty"`
	PlannedMinutes int    `json:"planned_minutes"`
}

// handleListFocus lists sessions in ?from=&to=, or only running ones with
// ?running=true.
func (s *Server) handleListFocus(w http.ResponseWriter, r *http.Request) {
	running, err := ParseBool(r, "running")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if running {
		sessions, err := s.svc.Focus.Running(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, sessions)
		return
	}

	from, to, err := ParseDateRange(r, core.DateOf(s.now()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sessions, err := s.svc.Focus.List(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

func (s *Server) handleStartFocus(w http.ResponseWriter, r *http.Request) {
	var req focusStartRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.svc.Focus.Start(r.Context(), sanitizeInput(req.Label), req.HabitID, req.PlannedMinutes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(session).Write(w, r)
}

func (s *Server) handleGetFocus(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	session, err := s.svc.Focus.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func (s *Server) handleStopFocus(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Focus.Stop(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
