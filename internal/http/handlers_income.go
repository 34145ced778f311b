package http

import (
	"net/http"

	"bilancio/internal/core"
)

type createIncomeRequest struct {
	Amount             string `json:"amount"`
	Description        string `json:"description"`
	Type               string `json:"type"`
	Date               string `json:"date"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurringDay       int    `json:"recurring_day"`
	RecurringFrequency string `json:"recurring_frequency"`
}

type createIncomeResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req createIncomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	in := core.Income{
		Amount:      amount,
		Description: sanitizeInput(req.Description),
		Type:        sanitizeInput(req.Type),
		IsRecurring: req.IsRecurring,
	}
	if req.IsRecurring {
		in.RecurringDay = req.RecurringDay
		in.RecurringFrequency = core.Frequency(req.RecurringFrequency)
		if in.RecurringFrequency == "" {
			in.RecurringFrequency = core.Monthly
		}
	} else {
		if req.Date == "" {
			writeError(w, http.StatusUnprocessableEntity, "one-time income requires a date")
			return
		}
		in.Date, err = parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date, want YYYY-MM-DD")
			return
		}
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.RecordIncome(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(s.now())
	writeJSON(w, http.StatusCreated, createIncomeResponse{ID: id})
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.DeleteIncome(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(s.now())
	w.WriteHeader(http.StatusNoContent)
}

// handleMonthIncomes expands every income definition into the requested
// month, defaulting to the current one.
func (s *Server) handleMonthIncomes(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, month := parseYearMonth(r, now)
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month out of range")
		return
	}

	view, err := s.dashboard.MonthIncomes(r.Context(), year, month, now)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
