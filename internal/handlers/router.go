package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	playground "github.com/go-playground/validator/v10"

	"github.com/bedehampo/banking-transaction-api/internal/config"
	"github.com/bedehampo/banking-transaction-api/internal/db"
	"github.com/bedehampo/banking-transaction-api/internal/middleware"
	"github.com/bedehampo/banking-transaction-api/internal/websocket"
)

type Handler struct {
	txRunner   db.TxRunner
	cfg        config.Config
	users      UserStore
	accounts   AccountStore
	currencies CurrencyStore
	service    TransactionService
	accountSvc AccountService
	hub        *websocket.Hub
	validate   *playground.Validate
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, accounts AccountStore, currencies CurrencyStore, service TransactionService, accountSvc AccountService, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:   txRunner,
		cfg:        cfg,
		users:      users,
		accounts:   accounts,
		currencies: currencies,
		service:    service,
		accountSvc: accountSvc,
		hub:        hub,
		validate:   playground.New(),
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Post("/transaction-pin", h.SetTransactionPin)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	// Teller-style cash deposit, addressed by account number.
	router.Post("/transactions/deposit", h.Deposit)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/accounts/me", h.GetMyAccount)
		r.Get("/accounts/users/{userID}", h.GetUserAccount)
		r.Get("/accounts/reconcile", h.Reconcile)
		r.Post("/transactions/withdraw", h.Withdraw)
		r.Post("/transactions/transfer", h.Transfer)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{id}", h.GetTransaction)
		r.Get("/transactions/{id}/ledger", h.GetTransactionLedger)
		r.Get("/currencies", h.ListCurrencies)
	})

	router.Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
