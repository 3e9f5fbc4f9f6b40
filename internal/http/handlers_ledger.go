package http

import (
	"net/http"
	"time"

	"worklife/internal/core"
	"worklife/internal/log"
)

type accountUpdateRequest struct {
	Archived *bool `json:"archived"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	archived, err := ParseBool(r, "archived")
	if err != nil {
		writeError(w, r, err)
		return
	}
	accounts, err := s.svc.Ledger.Accounts(r.Context(), archived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := DecodeJSON(w, r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = 0
	a.Name = sanitizeInput(a.Name)
	created, err := s.svc.Ledger.CreateAccount(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w, r)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req accountUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Archived == nil {
		UnprocessableEntityError("nothing to update").Write(w, r)
		return
	}
	if err := s.svc.Ledger.ArchiveAccount(r.Context(), id, *req.Archived); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w, r)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthQuery(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Ledger.ListTransactions(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(txs).Meta("year", p.Year).Meta("month", p.Month).Write(w, r)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := DecodeJSON(w, r, &t); err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = 0
	t.RecurringID = nil
	t.Category = sanitizeInput(t.Category)
	t.Description = sanitizeInput(t.Description)

	saved, err := s.svc.Ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview(saved.Date)
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogTransactionCreated(r.Context(), saved.ID, string(saved.Kind), saved.Amount.Cents, saved.Category)
	NewJSONResponse().Status(http.StatusCreated).Data(saved).Write(w, r)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := r.Context()
	t, err := s.svc.Ledger.GetTransaction(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Ledger.DeleteTransaction(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateOverview(t.Date)
	NewJSONResponse().NoContent().Write(w, r)
}

// handleMonthOverview serves income, expense and category totals through
// the cache.
func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthQuery(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ov, ok := s.overviews.Get(overviewKey(p)); ok {
		NewJSONResponse().Data(ov).Cached(true).Write(w, r)
		return
	}
	ov, err := s.svc.Ledger.MonthOverview(r.Context(), p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.overviews.Set(overviewKey(p), ov)
	NewJSONResponse().Data(ov).Cached(false).Write(w, r)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Ledger.ListRecurring(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var rt core.RecurringTransaction
	if err := DecodeJSON(w, r, &rt); err != nil {
		writeError(w, r, err)
		return
	}
	rt.ID = 0
	rt.LastExecution = time.Time{}
	rt.Description = sanitizeInput(rt.Description)
	rt.Category = sanitizeInput(rt.Category)

	created, err := s.svc.Ledger.CreateRecurring(r.Context(), rt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w, r)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Ledger.DeleteRecurring(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().NoContent().Write(w, r)
}
