package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bedehampo/banking-transaction-api/internal/auth"
	"github.com/bedehampo/banking-transaction-api/internal/config"
	"github.com/bedehampo/banking-transaction-api/internal/currency"
	"github.com/bedehampo/banking-transaction-api/internal/db"
	"github.com/bedehampo/banking-transaction-api/internal/handlers"
	"github.com/bedehampo/banking-transaction-api/internal/money"
	"github.com/bedehampo/banking-transaction-api/internal/services"
	"github.com/bedehampo/banking-transaction-api/internal/store"
	"github.com/bedehampo/banking-transaction-api/internal/websocket"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	users := store.NewUserStore(database)
	accounts := store.NewAccountStore(database)
	ledger := store.NewLedgerStore(database)
	transactions := store.NewTransactionStore(database)
	currencies := store.NewCurrencyStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	converter := currency.NewConverter(cfg.RatesBaseURL, redisClient, cfg.RatesCacheTTL, logger)

	service := services.NewTransactionService(
		services.Config{
			BaseCurrency:      cfg.BaseCurrency,
			SystemCashAccount: cfg.SystemCashAccount,
		},
		txRunner, accounts, transactions, ledger, users, currencies, converter,
		services.PinVerifierFunc(auth.CheckPin), audit, hub, logger,
	)
	openingFloat, err := money.Parse(cfg.SystemCashFloat)
	if err != nil {
		logger.Fatal("invalid system cash float", zap.Error(err))
	}
	accountSvc := services.NewAccountService(cfg.BankName, cfg.SystemCashAccount, openingFloat, users, accounts, ledger)

	handler := handlers.New(txRunner, cfg, users, accounts, currencies, service, accountSvc, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("banking transaction API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}
