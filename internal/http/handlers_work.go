package http

import (
	"net/http"

	"worklife/internal/core"
)

type workLogRequest struct {
	Type  core.DayType    `json:"type"`
	Start *core.ClockTime `json:"start,omitempty"`
	End   *core.ClockTime `json:"end,omitempty"`
	Note  string          `json:"note,omitempty"`
}

func (s *Server) handleListWorkLogs(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthQuery(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	logs, err := s.svc.Work.ListDays(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(logs).Meta("year", p.Year).Meta("month", p.Month).Write(w, r)
}

func (s *Server) handleGetWorkLog(w http.ResponseWriter, r *http.Request) {
	day, err := ParseDatePath(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.svc.Work.Day(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, l)
}

// handlePutWorkLog stores the log for the day in the path, replacing any
// earlier one.
func (s *Server) handlePutWorkLog(w http.ResponseWriter, r *http.Request) {
	day, err := ParseDatePath(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req workLogRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	l := core.WorkLog{
		Date:  day,
		Type:  req.Type,
		Start: req.Start,
		End:   req.End,
		Note:  sanitizeInput(req.Note),
	}
	if err := s.svc.Work.LogDay(r.Context(), l); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(day.Year(), day.Month())
	writeJSON(w, r, http.StatusOK, l)
}

func (s *Server) handleDeleteWorkLog(w http.ResponseWriter, r *http.Request) {
	day, err := ParseDatePath(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Work.DeleteDay(r.Context(), day); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(day.Year(), day.Month())
	NewJSONResponse().NoContent().Write(w, r)
}

// handleMonthSummary serves the month's pay summary through the cache.
func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if sum, ok := s.summaries.Get(summaryKey(p)); ok {
		NewJSONResponse().Data(sum).Cached(true).Write(w, r)
		return
	}
	sum, err := s.svc.Work.Summary(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.summaries.Set(summaryKey(p), sum)
	NewJSONResponse().Data(sum).Cached(false).Write(w, r)
}

func (s *Server) handleProjectMonth(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.svc.Work.Project(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(p.Year, p.Month)
	writeJSON(w, r, http.StatusOK, in)
}

func (s *Server) handleGetMonthlyInput(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, stored, err := s.svc.Work.MonthlyInput(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(in).Meta("stored", stored).Write(w, r)
}

func (s *Server) handleAdjustMonthlyInput(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var adj core.MonthlyAdjustment
	if err := DecodeJSON(w, r, &adj); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.svc.Work.UpdateMonthlyInput(r.Context(), p.Year, p.Month, adj)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(p.Year, p.Month)
	writeJSON(w, r, http.StatusOK, in)
}

func (s *Server) handleResetMonth(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Work.ResetMonth(r.Context(), p.Year, p.Month); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(p.Year, p.Month)
	NewJSONResponse().NoContent().Write(w, r)
}
