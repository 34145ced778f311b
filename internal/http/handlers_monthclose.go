package http

import (
	"fmt"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Close outcome names accepted on the wire.
const (
	outcomeCarryOver       = "carry_over"
	outcomeRegisterExpense = "register_expense"
	outcomeStartFresh      = "start_fresh"
)

// handleMonthCloseState evaluates the close trigger. Users without income
// get closed silently here; users with income see prompt=true until they
// POST an outcome.
func (s *Server) handleMonthCloseState(w http.ResponseWriter, r *http.Request) {
	state, err := s.ledger.EvaluateMonthClose(r.Context(), s.now())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type monthCloseRequest struct {
	Outcome string `json:"outcome"`
	// Amount is the carryover for carry_over, the adjustment expense for
	// register_expense.
	Amount string `json:"amount"`
	// Carryover only applies to register_expense.
	Carryover string `json:"carryover"`
}

type monthCloseResponse struct {
	Preferences core.Preferences `json:"preferences"`
}

func (s *Server) handleMonthClose(w http.ResponseWriter, r *http.Request) {
	var req monthCloseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := parseCloseOutcome(req)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	now := s.now()
	prefs, err := s.ledger.CloseMonth(r.Context(), outcome, now)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	s.invalidateMonth(now)
	writeJSON(w, http.StatusOK, monthCloseResponse{Preferences: prefs})
}

func parseCloseOutcome(req monthCloseRequest) (ledger.CloseOutcome, error) {
	switch req.Outcome {
	case outcomeCarryOver:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		return ledger.CarriedOver{Amount: amount}, nil
	case outcomeRegisterExpense:
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		outcome := ledger.RegisteredAsExpense{ExpenseAmount: amount}
		if req.Carryover != "" {
			carryover, err := parseAmount(req.Carryover)
			if err != nil {
				return nil, err
			}
			outcome.Carryover = carryover
		}
		return outcome, nil
	case outcomeStartFresh:
		return ledger.StartedFresh{}, nil
	default:
		return nil, fmt.Errorf("unknown close outcome %q", req.Outcome)
	}
}
