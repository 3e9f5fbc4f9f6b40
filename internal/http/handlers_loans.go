package http

import (
	"net/http"

	"worklife/internal/services"
)

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.svc.Loans.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, loans)
}

// handleCreateLoan stores a loan with its optional disbursement and
// auto-debit template.
func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var req services.LoanRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Loan.ID = 0
	req.Loan.Name = sanitizeInput(req.Loan.Name)
	req.Loan.Counterparty = sanitizeInput(req.Loan.Counterparty)

	created, err := s.svc.Loans.Create(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if created.Disbursement != nil {
		s.invalidateOverview(created.Disbursement.Date)
	}
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w, r)
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.svc.Loans.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, l)
}

func (s *Server) handleLoanSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	schedule, err := s.svc.Loans.Schedule(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(schedule).Meta("installments", len(schedule)).Write(w, r)
}

func (s *Server) handleLoanStatus(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.svc.Loans.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}
