package http

import (
	"net/http"
	"time"

	"bilancio/internal/core"
)

type createServiceRequest struct {
	Name            string `json:"name"`
	EstimatedAmount string `json:"estimated_amount"`
	DayOfMonth      int    `json:"day_of_month"`
	CategoryID      *int64 `json:"category_id"`
}

type createServiceResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.EstimatedAmount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid estimated amount")
		return
	}

	svc := core.RecurringService{
		Name:            sanitizeInput(req.Name),
		EstimatedAmount: amount,
		DayOfMonth:      req.DayOfMonth,
		CategoryID:      req.CategoryID,
		Active:          true,
	}
	if err := svc.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.CreateService(r.Context(), svc)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(s.now())
	writeJSON(w, http.StatusCreated, createServiceResponse{ID: id})
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledger.ListServices(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type payServiceRequest struct {
	// Amount overrides the service estimate when set; Date overrides the
	// anchor day in the current month, for late or backfilled payments.
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

type payServiceResponse struct {
	ExpenseID int64 `json:"expense_id"`
}

func (s *Server) handlePayService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req payServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var amount core.Money
	if req.Amount != "" {
		amount, err = parseAmount(req.Amount)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
	}

	var paidOn time.Time
	if req.Date != "" {
		paidOn, err = parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date")
			return
		}
	}

	now := s.now()
	expenseID, err := s.ledger.MarkServicePaid(r.Context(), id, amount, paidOn, now)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// A backfilled payment changes the paid-on month, not necessarily the
	// current one.
	if paidOn.IsZero() {
		s.invalidateMonth(now)
	} else {
		s.invalidateMonth(paidOn)
	}
	writeJSON(w, http.StatusOK, payServiceResponse{ExpenseID: expenseID})
}

type setServiceActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetServiceActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req setServiceActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.SetServiceActive(r.Context(), id, req.Active); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(s.now())
	w.WriteHeader(http.StatusNoContent)
}
