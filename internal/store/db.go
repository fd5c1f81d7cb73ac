// Package store holds the durable record stores for accounts,
// transactions, ledger entries, users, and currency reference data.
// Mutating store methods take an explicit transaction handle; cross-entity
// writes are always coordinated by a service inside one atomic unit.
package store

import (
	"context"
	"database/sql"
)

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// DB is satisfied by *sqlx.DB and is what the read paths use.
type DB interface {
	Execer
	Getter
	Selecter
}

// Tx is satisfied by *sqlx.Tx and is what write paths require.
type Tx interface {
	Execer
	Getter
}
