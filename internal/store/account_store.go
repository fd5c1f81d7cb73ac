package store

import (
	"context"

	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/money"
)

type AccountStore struct {
	db DB
}

// BalanceSummary compares the stored balance with the balance derived
// from ledger entries; a non-zero difference signals drift.
type BalanceSummary struct {
	ID            string      `db:"id"`
	AccountNumber string      `db:"account_number"`
	Currency      string      `db:"currency"`
	StoredBalance money.Money `db:"stored_balance"`
	LedgerBalance money.Money `db:"ledger_balance"`
	Difference    money.Money `db:"difference"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, account models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, account_number, balance, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		account.ID, account.UserID, account.AccountNumber, account.Balance, account.Currency, account.Status)
	return err
}

func (s *AccountStore) GetByNumber(ctx context.Context, accountNumber string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, account_number, balance, currency, status, created_at
		FROM accounts
		WHERE account_number = $1
	`, accountNumber)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByUser(ctx context.Context, userID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, account_number, balance, currency, status, created_at
		FROM accounts
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// GetNumberByUser resolves a user's account number without locking it,
// so callers can take pair locks in deterministic number order.
func (s *AccountStore) GetNumberByUser(ctx context.Context, tx Getter, userID string) (string, error) {
	var accountNumber string
	err := tx.GetContext(ctx, &accountNumber, `
		SELECT account_number
		FROM accounts
		WHERE user_id = $1
	`, userID)
	return accountNumber, err
}

// GetForUpdateByNumber locks the account row for the remainder of the
// transaction so a concurrent read-modify-write cannot interleave.
func (s *AccountStore) GetForUpdateByNumber(ctx context.Context, tx Getter, accountNumber, status string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, account_number, balance, currency, status
		FROM accounts
		WHERE account_number = $1 AND status = $2
		FOR UPDATE
	`, accountNumber, status)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance money.Money) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, accountID)
	return err
}

// AppendTransaction records a transaction in the account's ordered list
// of owned transactions.
func (s *AccountStore) AppendTransaction(ctx context.Context, tx Execer, accountID, transactionID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO account_transactions (account_id, transaction_id)
		VALUES ($1, $2)
	`, accountID, transactionID)
	return err
}

// OwnsTransaction reports whether the transaction appears in the
// account's owned list. History reads go through this check.
func (s *AccountStore) OwnsTransaction(ctx context.Context, accountID, transactionID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM account_transactions
		WHERE account_id = $1 AND transaction_id = $2
	`, accountID, transactionID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// BalanceSummaries reconciles stored balances against credit-minus-debit
// ledger sums for customer accounts. System accounts are excluded here:
// the cash account is asset-signed (deposits debit it) and carries a
// seeded float, so its position is derived separately from SumByAccount
// plus the configured opening balance.
func (s *AccountStore) BalanceSummaries(ctx context.Context) ([]BalanceSummary, error) {
	var rows []BalanceSummary
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id,
		       a.account_number,
		       a.currency,
		       a.balance AS stored_balance,
		       COALESCE(SUM(CASE WHEN l.direction = 'credit' THEN l.amount ELSE -l.amount END), 0) AS ledger_balance,
		       (a.balance - COALESCE(SUM(CASE WHEN l.direction = 'credit' THEN l.amount ELSE -l.amount END), 0)) AS difference
		FROM accounts a
		LEFT JOIN ledger_entries l ON l.account_id = a.id
		WHERE a.user_id IS NOT NULL
		GROUP BY a.id, a.account_number, a.currency, a.balance
		ORDER BY a.account_number
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
