package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bedehampo/banking-transaction-api/internal/middleware"
)

func (h *Handler) GetMyAccount(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	details, err := h.accountSvc.GetAccountDetails(r.Context(), callerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

func (h *Handler) GetUserAccount(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID := chi.URLParam(r, "userID")
	details, err := h.accountSvc.GetUserAccountDetails(r.Context(), callerID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

// Reconcile reports stored-versus-ledger balance drift per account.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summaries, err := h.accountSvc.Reconcile(r.Context(), callerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"accounts": summaries})
}
