package store

import (
	"context"

	"github.com/bedehampo/banking-transaction-api/internal/models"
)

// CurrencyStore serves the ISO-4217 reference table seeded by cmd/migrate.
type CurrencyStore struct {
	db DB
}

func NewCurrencyStore(db DB) *CurrencyStore {
	return &CurrencyStore{db: db}
}

func (s *CurrencyStore) Exists(ctx context.Context, code string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM currencies
		WHERE code = $1
	`, code)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns currencies whose code or name matches the search term, or
// all currencies when search is empty.
func (s *CurrencyStore) List(ctx context.Context, search string) ([]models.Currency, error) {
	var rows []models.Currency
	if search == "" {
		err := s.db.SelectContext(ctx, &rows, `
			SELECT code, number, digits, currency
			FROM currencies
			ORDER BY code
		`)
		return rows, err
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT code, number, digits, currency
		FROM currencies
		WHERE code ILIKE '%' || $1 || '%' OR currency ILIKE '%' || $1 || '%'
		ORDER BY code
	`, search)
	return rows, err
}

func (s *CurrencyStore) Upsert(ctx context.Context, tx Execer, currency models.Currency) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO currencies (code, number, digits, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`, currency.Code, currency.Number, currency.Digits, currency.Currency)
	return err
}
