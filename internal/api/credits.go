package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/inkwell-pdf/inkwell/internal/domain"
)

// handleBalance returns the caller's current credit balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	balance, err := s.ledger.Balance(r.Context(), userID)
	if err != nil {
		s.log.Error("balance lookup failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "balance lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"credits": balance,
		"user_id": userID,
	})
}

// handleDeduct charges the caller's account outside the operation
// pipeline, e.g. for externally rendered work.
func (s *Server) handleDeduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var body struct {
		Amount int64  `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Reason == "" {
		body.Reason = "manual_deduct"
	}

	remaining, err := s.ledger.Settle(r.Context(), userID, body.Amount, body.Reason)
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrInsufficientCredits):
		balance, _ := s.ledger.Balance(r.Context(), userID)
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error": map[string]interface{}{
				"message": err.Error(),
				"type":    "insufficient_credits",
			},
			"required":  body.Amount,
			"available": balance,
		})
		return
	case err != nil:
		s.log.Error("deduct failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "deduction failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"remaining_credits": remaining,
	})
}

// handleHistory returns the caller's transaction log, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	txs, err := s.ledger.History(r.Context(), userID, limit)
	if err != nil {
		s.log.Error("history lookup failed", "user", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "history lookup failed")
		return
	}

	type entry struct {
		domain.CreditTransaction
		Type domain.TransactionType `json:"type"`
	}
	entries := make([]entry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, entry{CreditTransaction: tx, Type: tx.Type()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"transactions": entries,
	})
}
