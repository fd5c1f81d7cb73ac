package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bedehampo/banking-transaction-api/internal/middleware"
	"github.com/bedehampo/banking-transaction-api/internal/money"
	"github.com/bedehampo/banking-transaction-api/internal/services"
	"github.com/bedehampo/banking-transaction-api/internal/validator"
)

type depositRequest struct {
	AccountNumber      string  `json:"account_number" validate:"required"`
	Amount             string  `json:"amount" validate:"required"`
	Currency           string  `json:"currency" validate:"required,len=3"`
	Description        string  `json:"description" validate:"required"`
	DepositorFirstName *string `json:"depositor_first_name,omitempty"`
	DepositorLastName  *string `json:"depositor_last_name,omitempty"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}
	if err := validator.ValidateAccountNumber(req.AccountNumber); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := h.service.Deposit(r.Context(), services.DepositRequest{
		AccountNumber:      req.AccountNumber,
		Amount:             amount,
		Currency:           req.Currency,
		Description:        req.Description,
		DepositorFirstName: req.DepositorFirstName,
		DepositorLastName:  req.DepositorLastName,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"msg":  "deposit successful",
		"data": txn,
	})
}

type withdrawRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
	Description string `json:"description" validate:"required"`
	Pin         string `json:"pin" validate:"required"`
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := h.service.Withdraw(r.Context(), callerID, services.WithdrawRequest{
		Amount:      amount,
		Currency:    req.Currency,
		Description: req.Description,
		Pin:         req.Pin,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"msg":  "withdrawal successful",
		"data": txn,
	})
}

type transferRequest struct {
	AccountNumber string `json:"account_number" validate:"required"`
	Amount        string `json:"amount" validate:"required"`
	Currency      string `json:"currency" validate:"required,len=3"`
	Description   string `json:"description" validate:"required"`
	Pin           string `json:"pin" validate:"required"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}
	if err := validator.ValidateAccountNumber(req.AccountNumber); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	txn, err := h.service.Transfer(r.Context(), callerID, services.TransferRequest{
		RecipientAccountNumber: req.AccountNumber,
		Amount:                 amount,
		Currency:               req.Currency,
		Description:            req.Description,
		Pin:                    req.Pin,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"msg":  "transfer successful",
		"data": txn,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.service.GetTransactions(r.Context(), callerID, services.TransactionQuery{
		Type:  r.URL.Query().Get("type"),
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	txn, err := h.service.GetTransaction(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

// GetTransactionLedger returns the debit/credit entries behind one of the
// caller's transactions.
func (h *Handler) GetTransactionLedger(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	entries, err := h.service.GetTransactionEntries(r.Context(), callerID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.currencies.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list currencies")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": currencies})
}
