package http

import (
	"net/http"

	"worklife/internal/core"
)

type habitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type habitUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Archived    *bool   `json:"archived,omitempty"`
}

type completionRequest struct {
	Date *core.Date `json:"date,omitempty"`
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	archived, err := ParseBool(r, "archived")
	if err != nil {
		writeError(w, r, err)
		return
	}
	habits, err := s.svc.Habits.List(r.Context(), archived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, habits)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.svc.Habits.Create(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(h).Write(w, r)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h, err := s.svc.Habits.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h)
}

// handleUpdateHabit renames and/or archives a habit. Omitted fields keep
// their value.
func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req habitUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	h, err := s.svc.Habits.Get(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name != nil || req.Description != nil {
		name, desc := h.Name, h.Description
		if req.Name != nil {
			name = sanitizeInput(*req.Name)
		}
		if req.Description != nil {
			desc = sanitizeInput(*req.Description)
		}
		if h, err = s.svc.Habits.Rename(ctx, id, name, desc); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Archived != nil && *req.Archived != h.Archived {
		if err := s.svc.Habits.Archive(ctx, id, *req.Archived); err != nil {
			writeError(w, r, err)
			return
		}
		h.Archived = *req.Archived
	}
	writeJSON(w, r, http.StatusOK, h)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Habits.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w, r)
}

// handleCompleteHabit records a completion for the given date, today when
// the body is empty or has no date.
func (s *Server) handleCompleteHabit(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req completionRequest
	if r.ContentLength != 0 {
		if err := DecodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	day := core.DateOf(s.now())
	if req.Date != nil {
		day = *req.Date
	}

	res, err := s.svc.Habits.Complete(r.Context(), id, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := ParseDateRange(r, core.DateOf(s.now()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	days, err := s.svc.Habits.Completions(r.Context(), id, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(days).Meta("from", from).Meta("to", to).Write(w, r)
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.Habits.Achievements(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}
