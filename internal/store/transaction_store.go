package store

import (
	"context"

	"github.com/bedehampo/banking-transaction-api/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create appends an immutable transaction record. Rows are never updated
// or deleted after this insert.
func (s *TransactionStore) Create(ctx context.Context, tx Execer, txn models.Transaction) error {
	query := `
		INSERT INTO transactions (id, type, amount, currency, description, credit,
			depositor_first_name, depositor_last_name, sender_account_id, destination_account_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		txn.ID, txn.Type, txn.Amount, txn.Currency, txn.Description, txn.Credit,
		txn.DepositorFirstName, txn.DepositorLastName, txn.SenderAccountID, txn.DestinationAccountID)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, type, amount, currency, description, credit,
		       depositor_first_name, depositor_last_name, sender_account_id, destination_account_id, created_at
		FROM transactions
		WHERE id = $1
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// ListByAccount returns the account's owned transactions, newest first,
// optionally filtered by type.
func (s *TransactionStore) ListByAccount(ctx context.Context, accountID, txType string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	query := `
		SELECT t.id, t.type, t.amount, t.currency, t.description, t.credit,
		       t.depositor_first_name, t.depositor_last_name, t.sender_account_id, t.destination_account_id, t.created_at
		FROM transactions t
		JOIN account_transactions at ON at.transaction_id = t.id
		WHERE at.account_id = $1
	`
	args := []any{accountID}
	if txType != "" {
		query += ` AND t.type = $2 ORDER BY at.position DESC LIMIT $3 OFFSET $4`
		args = append(args, txType, limit, offset)
	} else {
		query += ` ORDER BY at.position DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) CountByAccount(ctx context.Context, accountID, txType string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM transactions t
		JOIN account_transactions at ON at.transaction_id = t.id
		WHERE at.account_id = $1
	`
	args := []any{accountID}
	if txType != "" {
		query += ` AND t.type = $2`
		args = append(args, txType)
	}
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}
