package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bedehampo/banking-transaction-api/internal/auth"
	"github.com/bedehampo/banking-transaction-api/internal/middleware"
	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/money"
	"github.com/bedehampo/banking-transaction-api/internal/validator"
)

type registerRequest struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	MobileNumber string `json:"mobile_number" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
}

// Register creates a user and their account in one atomic unit. Each
// user owns exactly one account, held in the base currency.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}
	if err := validator.ValidateMobileNumber(req.MobileNumber); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	accountNumber, err := validator.GenerateAccountNumber()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	userID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		user := models.User{
			ID:           userID,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			MobileNumber: req.MobileNumber,
			Email:        req.Email,
			PasswordHash: passwordHash,
			Status:       models.StatusVerified,
		}
		if err := h.users.Create(r.Context(), tx, user); err != nil {
			return err
		}
		account := models.Account{
			ID:            uuid.NewString(),
			UserID:        &userID,
			AccountNumber: accountNumber,
			Balance:       money.Zero,
			Currency:      h.cfg.BaseCurrency,
			Status:        models.StatusVerified,
		}
		return h.accounts.Create(r.Context(), tx, account)
	})
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "user already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := auth.GenerateToken(h.cfg.JWTSecret, userID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"token":          token,
		"account_number": accountNumber,
	})
}

type loginRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "missing or invalid fields")
		return
	}
	user, err := h.users.GetByMobileNumber(r.Context(), req.MobileNumber)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.Status == models.StatusSuspended || user.Status == models.StatusDeleted {
		respondError(w, http.StatusUnauthorized, "unauthorised operator")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

type setPinRequest struct {
	Pin string `json:"pin" validate:"required"`
}

// SetTransactionPin stores the caller's withdrawal/transfer PIN. Setting
// a PIN twice conflicts; there is no change-PIN flow here.
func (h *Handler) SetTransactionPin(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req setPinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidatePin(req.Pin); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetByID(r.Context(), callerID)
	if err != nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	if user.IsPinSet {
		respondError(w, http.StatusConflict, "transaction pin already set")
		return
	}
	pinHash, err := auth.HashPin(req.Pin)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure pin")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.users.SetTransactionPin(r.Context(), tx, callerID, pinHash)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to set pin")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"msg": "transaction pin set successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), callerID)
	if err != nil {
		respondError(w, http.StatusNotFound, "account not found")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
