package store

import (
	"context"

	"github.com/bedehampo/banking-transaction-api/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, user models.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, mobile_number, email, password_hash, is_pin_set, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.MobileNumber, user.Email, user.PasswordHash, user.IsPinSet, user.Status)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, first_name, last_name, mobile_number, email, password_hash, pin_hash, is_pin_set, status, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

func (s *UserStore) GetByMobileNumber(ctx context.Context, mobileNumber string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, first_name, last_name, mobile_number, email, password_hash, pin_hash, is_pin_set, status, created_at
		FROM users
		WHERE mobile_number = $1
	`, mobileNumber)
	if err != nil {
		return models.User{}, err
	}
	return row, nil
}

// SetTransactionPin stores the hashed PIN and flips is_pin_set. Withdraw
// and transfer refuse to run until this has happened once.
func (s *UserStore) SetTransactionPin(ctx context.Context, tx Execer, userID, pinHash string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET pin_hash = $1, is_pin_set = TRUE, updated_at = NOW()
		WHERE id = $2
	`, pinHash, userID)
	return err
}
