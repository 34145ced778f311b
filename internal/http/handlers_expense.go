package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

type createExpenseRequest struct {
	Amount        string  `json:"amount"`
	Description   string  `json:"description"`
	Date          string  `json:"date"`
	FinancialType string  `json:"financial_type"`
	PaymentStatus string  `json:"payment_status"`
	CategoryIDs   []int64 `json:"category_ids"`

	ServiceID      *int64 `json:"service_id"`
	DebtID         *int64 `json:"debt_id"`
	PaymentGroupID *int64 `json:"payment_group_id"`
	CreditCardID   *int64 `json:"credit_card_id"`
}

type createExpenseResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	now := s.now()
	date := now
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	financialType := core.Unclassified
	if req.FinancialType != "" {
		financialType = core.FinancialType(req.FinancialType)
	}
	status := core.StatusPaid
	if req.PaymentStatus != "" {
		status = core.PaymentStatus(req.PaymentStatus)
	}

	e := core.Expense{
		Amount:         amount,
		Description:    sanitizeInput(req.Description),
		Date:           date,
		FinancialType:  financialType,
		PaymentStatus:  status,
		CategoryIDs:    req.CategoryIDs,
		ServiceID:      req.ServiceID,
		DebtID:         req.DebtID,
		PaymentGroupID: req.PaymentGroupID,
		CreditCardID:   req.CreditCardID,
	}
	if err := e.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.RecordExpense(r.Context(), e)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(date)
	writeJSON(w, http.StatusCreated, createExpenseResponse{ID: id})
}

type createInstallmentPlanRequest struct {
	TotalAmount   string  `json:"total_amount"`
	Installments  int     `json:"installments"`
	FirstDate     string  `json:"first_date"`
	StartingAt    int     `json:"starting_at"`
	Description   string  `json:"description"`
	FinancialType string  `json:"financial_type"`
	CategoryIDs   []int64 `json:"category_ids"`

	CreditCardID   *int64 `json:"credit_card_id"`
	DebtID         *int64 `json:"debt_id"`
	PaymentGroupID *int64 `json:"payment_group_id"`
}

type createInstallmentPlanResponse struct {
	ParentID       int64   `json:"parent_id"`
	InstallmentIDs []int64 `json:"installment_ids"`
}

func (s *Server) handleCreateInstallmentPlan(w http.ResponseWriter, r *http.Request) {
	var req createInstallmentPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := parseAmount(req.TotalAmount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid total amount")
		return
	}
	firstDate, err := parseDate(req.FirstDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid first date, want YYYY-MM-DD")
		return
	}

	startingAt := req.StartingAt
	if startingAt == 0 {
		startingAt = 1
	}
	financialType := core.Unclassified
	if req.FinancialType != "" {
		financialType = core.FinancialType(req.FinancialType)
	}

	now := s.now()
	parentID, childIDs, err := s.ledger.RecordInstallmentPlan(r.Context(), ledger.PlanParams{
		Total:          total,
		Count:          req.Installments,
		FirstDate:      firstDate,
		StartingAt:     startingAt,
		Description:    sanitizeInput(req.Description),
		FinancialType:  financialType,
		CategoryIDs:    req.CategoryIDs,
		CreditCardID:   req.CreditCardID,
		DebtID:         req.DebtID,
		PaymentGroupID: req.PaymentGroupID,
	}, now)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(now)
	writeJSON(w, http.StatusCreated, createInstallmentPlanResponse{
		ParentID:       parentID,
		InstallmentIDs: childIDs,
	})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(s.now())
	w.WriteHeader(http.StatusNoContent)
}

type reclassifyExpenseRequest struct {
	FinancialType string  `json:"financial_type"`
	CategoryIDs   []int64 `json:"category_ids"`
}

func (s *Server) handleReclassifyExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req reclassifyExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.ReclassifyExpense(r.Context(), id, core.FinancialType(req.FinancialType), req.CategoryIDs); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(s.now())
	w.WriteHeader(http.StatusNoContent)
}
