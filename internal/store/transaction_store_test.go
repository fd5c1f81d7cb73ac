package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/bedehampo/banking-transaction-api/internal/models"
)

func TestTransactionStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 10 || args[0] != "txn-1" || args[1] != models.TypeDeposit {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	err := store.Create(ctx, execer, models.Transaction{
		ID:       "txn-1",
		Type:     models.TypeDeposit,
		Currency: "NGN",
		Credit:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreListByAccount(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "JOIN account_transactions at ON at.transaction_id = t.id") {
				t.Fatalf("unexpected query: %s", query)
			}
			if !strings.Contains(query, "ORDER BY at.position DESC") {
				t.Fatalf("expected newest-first ordering: %s", query)
			}
			if !strings.Contains(query, "LIMIT $2 OFFSET $3") {
				t.Fatalf("unexpected limit/offset in query: %s", query)
			}
			if len(args) != 3 || args[0] != "acc-1" || args[1] != 10 || args[2] != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Transaction) = []models.Transaction{{ID: "txn-1"}}
			return nil
		},
	})
	rows, err := store.ListByAccount(ctx, "acc-1", "", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "txn-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestTransactionStoreListByAccountWithTypeFilter(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, _ any, query string, args ...any) error {
			if !strings.Contains(query, "AND t.type = $2") {
				t.Fatalf("expected type filter: %s", query)
			}
			if !strings.Contains(query, "LIMIT $3 OFFSET $4") {
				t.Fatalf("unexpected limit/offset in query: %s", query)
			}
			if len(args) != 4 || args[1] != models.TypeTransfer || args[2] != 5 || args[3] != 10 {
				t.Fatalf("unexpected args: %#v", args)
			}
			return nil
		},
	})
	if _, err := store.ListByAccount(ctx, "acc-1", models.TypeTransfer, 5, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreCountByAccount(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "SELECT COUNT(*)") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != "acc-1" || args[1] != models.TypeWithdrawal {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int) = 7
			return nil
		},
	})
	count, err := store.CountByAccount(ctx, "acc-1", models.TypeWithdrawal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Fatalf("unexpected count: %d", count)
	}
}

func TestTransactionStoreGetByID(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FROM transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "txn-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*models.Transaction) = models.Transaction{ID: "txn-1", Type: models.TypeDeposit}
			return nil
		},
	})
	txn, err := store.GetByID(ctx, "txn-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Type != models.TypeDeposit {
		t.Fatalf("unexpected transaction: %#v", txn)
	}
}
