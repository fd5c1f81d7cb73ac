package models

import (
	"time"

	"github.com/bedehampo/banking-transaction-api/internal/money"
)

// Record status values shared by users and accounts.
const (
	StatusUnverified = "unverified"
	StatusVerified   = "verified"
	StatusSuspended  = "suspended"
	StatusDeleted    = "deleted"
)

// Transaction types.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeTransfer   = "transfer"
)

// Ledger entry directions.
const (
	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	MobileNumber string    `db:"mobile_number" json:"mobile_number"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PinHash      *string   `db:"pin_hash" json:"-"`
	IsPinSet     bool      `db:"is_pin_set" json:"is_pin_set"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Account holds a balance in the configured base currency. A nil UserID
// marks a system-level account such as the institution's cash position.
type Account struct {
	ID            string      `db:"id" json:"id"`
	UserID        *string     `db:"user_id" json:"user_id,omitempty"`
	AccountNumber string      `db:"account_number" json:"account_number"`
	Balance       money.Money `db:"balance" json:"balance"`
	Currency      string      `db:"currency" json:"currency"`
	Status        string      `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// Transaction is one economic event from one account's perspective. The
// amount is always a positive magnitude; Credit carries the direction.
// A transfer produces two linked rows, one per account.
type Transaction struct {
	ID                   string      `db:"id" json:"id"`
	Type                 string      `db:"type" json:"type"`
	Amount               money.Money `db:"amount" json:"amount"`
	Currency             string      `db:"currency" json:"currency"`
	Description          string      `db:"description" json:"description"`
	Credit               bool        `db:"credit" json:"credit"`
	DepositorFirstName   *string     `db:"depositor_first_name" json:"depositor_first_name,omitempty"`
	DepositorLastName    *string     `db:"depositor_last_name" json:"depositor_last_name,omitempty"`
	SenderAccountID      *string     `db:"sender_account_id" json:"sender_account_id,omitempty"`
	DestinationAccountID *string     `db:"destination_account_id" json:"destination_account_id,omitempty"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
}

// LedgerEntry is one half of a double-entry bookkeeping record. Entries
// are append-only and are the canonical source for reconciliation.
type LedgerEntry struct {
	ID            string      `db:"id" json:"id"`
	TransactionID string      `db:"transaction_id" json:"transaction_id"`
	AccountID     string      `db:"account_id" json:"account_id"`
	Amount        money.Money `db:"amount" json:"amount"`
	Direction     string      `db:"direction" json:"direction"`
	Description   string      `db:"description" json:"description"`
	Currency      string      `db:"currency" json:"currency"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// Currency is an ISO-4217 reference row used to validate presented codes.
type Currency struct {
	Code     string `db:"code" json:"code"`
	Number   int    `db:"number" json:"number"`
	Digits   int    `db:"digits" json:"digits"`
	Currency string `db:"currency" json:"currency"`
}
