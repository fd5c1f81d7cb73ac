package store

import (
	"context"

	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/money"
)

type LedgerStore struct {
	db DB
}

func NewLedgerStore(db DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// DirectionSums holds per-direction totals for one transaction. For a
// balanced transaction Debits equals Credits.
type DirectionSums struct {
	Debits  money.Money `db:"debits" json:"debits"`
	Credits money.Money `db:"credits" json:"credits"`
}

// InsertEntries writes the ledger rows of one transaction. Entries are
// append-only; there is no update or delete path.
func (s *LedgerStore) InsertEntries(ctx context.Context, tx Execer, entries []models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, transaction_id, account_id, amount, direction, description, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query,
			entry.ID, entry.TransactionID, entry.AccountID, entry.Amount, entry.Direction, entry.Description, entry.Currency); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerStore) ListByTransaction(ctx context.Context, transactionID string) ([]models.LedgerEntry, error) {
	var rows []models.LedgerEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, transaction_id, account_id, amount, direction, description, currency, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY created_at
	`, transactionID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumByTransaction returns debit and credit totals for one transaction.
func (s *LedgerStore) SumByTransaction(ctx context.Context, transactionID string) (DirectionSums, error) {
	var sums DirectionSums
	err := s.db.GetContext(ctx, &sums, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'debit' THEN amount ELSE 0 END), 0) AS debits,
		       COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE 0 END), 0) AS credits
		FROM ledger_entries
		WHERE transaction_id = $1
	`, transactionID)
	return sums, err
}

// SumByAccount returns the credit-minus-debit ledger position of an account.
func (s *LedgerStore) SumByAccount(ctx context.Context, accountID string) (money.Money, error) {
	var sum money.Money
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`, accountID)
	return sum, err
}
