package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bedehampo/banking-transaction-api/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps engine sentinels onto the error taxonomy:
// not-found 404, conflict 409, validation 400, unauthorized 401,
// everything else internal 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrRecipientNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrCallerNotFound),
		errors.Is(err, services.ErrInvalidCurrency):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPinNotSet):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrSelfTransfer):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrPinMismatch),
		errors.Is(err, services.ErrCallerInactive):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
