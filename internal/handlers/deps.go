package handlers

import (
	"context"

	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/services"
	"github.com/bedehampo/banking-transaction-api/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user models.User) error
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByMobileNumber(ctx context.Context, mobileNumber string) (models.User, error)
	SetTransactionPin(ctx context.Context, tx store.Execer, userID, pinHash string) error
}

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, account models.Account) error
}

type CurrencyStore interface {
	List(ctx context.Context, search string) ([]models.Currency, error)
}

type TransactionService interface {
	Deposit(ctx context.Context, req services.DepositRequest) (models.Transaction, error)
	Withdraw(ctx context.Context, callerID string, req services.WithdrawRequest) (models.Transaction, error)
	Transfer(ctx context.Context, callerID string, req services.TransferRequest) (models.Transaction, error)
	GetTransactions(ctx context.Context, callerID string, query services.TransactionQuery) (services.TransactionPage, error)
	GetTransaction(ctx context.Context, callerID, transactionID string) (models.Transaction, error)
	GetTransactionEntries(ctx context.Context, callerID, transactionID string) (services.TransactionEntries, error)
}

type AccountService interface {
	GetAccountDetails(ctx context.Context, callerID string) (services.AccountDetails, error)
	GetUserAccountDetails(ctx context.Context, callerID, userID string) (services.AccountDetails, error)
	Reconcile(ctx context.Context, callerID string) ([]store.BalanceSummary, error)
}
