package services

import (
	"context"

	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/money"
	"github.com/bedehampo/banking-transaction-api/internal/store"
)

type AccountDetails struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	BankName      string      `json:"bank_name"`
	CustomerName  string      `json:"customer_name"`
	AccountNumber string      `json:"account_number"`
	Balance       money.Money `json:"balance"`
	Currency      string      `json:"currency"`
}

type AccountReader interface {
	GetByUser(ctx context.Context, userID string) (models.Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (models.Account, error)
	BalanceSummaries(ctx context.Context) ([]store.BalanceSummary, error)
}

type LedgerReader interface {
	SumByAccount(ctx context.Context, accountID string) (money.Money, error)
}

// AccountService serves account detail reads; all balance mutation stays
// with the TransactionService.
type AccountService struct {
	bankName          string
	systemCashAccount string
	openingFloat      money.Money
	users             UserStore
	accounts          AccountReader
	ledger            LedgerReader
}

func NewAccountService(bankName, systemCashAccount string, openingFloat money.Money, users UserStore, accounts AccountReader, ledger LedgerReader) *AccountService {
	return &AccountService{
		bankName:          bankName,
		systemCashAccount: systemCashAccount,
		openingFloat:      openingFloat,
		users:             users,
		accounts:          accounts,
		ledger:            ledger,
	}
}

// GetAccountDetails returns the caller's own account, balance included.
func (s *AccountService) GetAccountDetails(ctx context.Context, callerID string) (AccountDetails, error) {
	caller, err := s.validateActiveCaller(ctx, callerID)
	if err != nil {
		return AccountDetails{}, err
	}
	account, err := s.accounts.GetByUser(ctx, callerID)
	if err != nil {
		return AccountDetails{}, mapNoRows(err, ErrAccountNotFound)
	}
	return AccountDetails{
		ID:            account.ID,
		UserID:        callerID,
		BankName:      s.bankName,
		CustomerName:  caller.FirstName + " " + caller.LastName,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
		Currency:      account.Currency,
	}, nil
}

// GetUserAccountDetails returns another user's account identity for
// transfer beneficiary lookup. The balance is withheld.
func (s *AccountService) GetUserAccountDetails(ctx context.Context, callerID, userID string) (AccountDetails, error) {
	if _, err := s.validateActiveCaller(ctx, callerID); err != nil {
		return AccountDetails{}, err
	}
	target, err := s.validateActiveCaller(ctx, userID)
	if err != nil {
		return AccountDetails{}, err
	}
	account, err := s.accounts.GetByUser(ctx, userID)
	if err != nil {
		return AccountDetails{}, mapNoRows(err, ErrAccountNotFound)
	}
	return AccountDetails{
		ID:            account.ID,
		UserID:        userID,
		BankName:      s.bankName,
		CustomerName:  target.FirstName + " " + target.LastName,
		AccountNumber: account.AccountNumber,
		Currency:      account.Currency,
	}, nil
}

// Reconcile compares stored balances against ledger-derived positions.
// Customer accounts come straight from the store roll-up. The system
// cash account is asset-signed, so its expected balance is the opening
// float plus debits minus credits.
func (s *AccountService) Reconcile(ctx context.Context, callerID string) ([]store.BalanceSummary, error) {
	if _, err := s.validateActiveCaller(ctx, callerID); err != nil {
		return nil, err
	}
	summaries, err := s.accounts.BalanceSummaries(ctx)
	if err != nil {
		return nil, err
	}
	systemCash, err := s.accounts.GetByNumber(ctx, s.systemCashAccount)
	if err != nil {
		return nil, mapNoRows(err, ErrSystemCashMissing)
	}
	position, err := s.ledger.SumByAccount(ctx, systemCash.ID)
	if err != nil {
		return nil, err
	}
	ledgerBalance := s.openingFloat.Sub(position)
	summaries = append(summaries, store.BalanceSummary{
		ID:            systemCash.ID,
		AccountNumber: systemCash.AccountNumber,
		Currency:      systemCash.Currency,
		StoredBalance: systemCash.Balance,
		LedgerBalance: ledgerBalance,
		Difference:    systemCash.Balance.Sub(ledgerBalance),
	})
	return summaries, nil
}

func (s *AccountService) validateActiveCaller(ctx context.Context, callerID string) (models.User, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return models.User{}, mapNoRows(err, ErrCallerNotFound)
	}
	if caller.Status == models.StatusSuspended || caller.Status == models.StatusDeleted {
		return models.User{}, ErrCallerInactive
	}
	return caller, nil
}
