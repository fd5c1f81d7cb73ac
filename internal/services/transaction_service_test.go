package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bedehampo/banking-transaction-api/internal/db"
	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/money"
	"github.com/bedehampo/banking-transaction-api/internal/store"
	"github.com/bedehampo/banking-transaction-api/internal/websocket"
)

// memState is an in-memory double of the record stores so engine
// scenarios can assert on balances, ledger rows, and audit actions
// without a database. The mutex keeps the doubles race-clean when a
// scenario drives the engine from several goroutines.
type memState struct {
	mu           sync.Mutex
	accounts     map[string]*models.Account // keyed by account number
	users        map[string]models.User
	transactions map[string]models.Transaction
	ledger       []models.LedgerEntry
	owned        map[string][]string // account ID -> transaction IDs, oldest first
	audits       []auditRecord
	updates      []websocket.BalanceUpdate
	pinChecks    int
	convertCalls int
	convertErr   error
	rate         func(amount money.Money) money.Money
}

type auditRecord struct {
	actor  *string
	action string
}

func newMemState() *memState {
	return &memState{
		accounts:     map[string]*models.Account{},
		users:        map[string]models.User{},
		transactions: map[string]models.Transaction{},
		owned:        map[string][]string{},
	}
}

func (m *memState) addUser(user models.User) {
	m.users[user.ID] = user
}

func (m *memState) addAccount(account models.Account) {
	copied := account
	m.accounts[account.AccountNumber] = &copied
}

func (m *memState) accountByID(id string) *models.Account {
	for _, account := range m.accounts {
		if account.ID == id {
			return account
		}
	}
	return nil
}

func (m *memState) balance(number string) string {
	return m.accounts[number].Balance.String()
}

type memAccounts struct{ state *memState }

func (s memAccounts) GetByUser(_ context.Context, userID string) (models.Account, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, account := range s.state.accounts {
		if account.UserID != nil && *account.UserID == userID {
			return *account, nil
		}
	}
	return models.Account{}, sql.ErrNoRows
}

func (s memAccounts) GetByNumber(_ context.Context, accountNumber string) (models.Account, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	account, ok := s.state.accounts[accountNumber]
	if !ok {
		return models.Account{}, sql.ErrNoRows
	}
	return *account, nil
}

func (s memAccounts) GetNumberByUser(_ context.Context, _ store.Getter, userID string) (string, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for number, account := range s.state.accounts {
		if account.UserID != nil && *account.UserID == userID {
			return number, nil
		}
	}
	return "", sql.ErrNoRows
}

func (s memAccounts) GetForUpdateByNumber(_ context.Context, _ store.Getter, accountNumber, status string) (models.Account, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	account, ok := s.state.accounts[accountNumber]
	if !ok || account.Status != status {
		return models.Account{}, sql.ErrNoRows
	}
	return *account, nil
}

func (s memAccounts) UpdateBalance(_ context.Context, _ store.Execer, accountID string, balance money.Money) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	account := s.state.accountByID(accountID)
	if account == nil {
		return sql.ErrNoRows
	}
	account.Balance = balance
	return nil
}

func (s memAccounts) AppendTransaction(_ context.Context, _ store.Execer, accountID, transactionID string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.owned[accountID] = append(s.state.owned[accountID], transactionID)
	return nil
}

func (s memAccounts) OwnsTransaction(_ context.Context, accountID, transactionID string) (bool, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	for _, owned := range s.state.owned[accountID] {
		if owned == transactionID {
			return true, nil
		}
	}
	return false, nil
}

type memTransactions struct{ state *memState }

func (s memTransactions) Create(_ context.Context, _ store.Execer, txn models.Transaction) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.transactions[txn.ID] = txn
	return nil
}

func (s memTransactions) GetByID(_ context.Context, transactionID string) (models.Transaction, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	txn, ok := s.state.transactions[transactionID]
	if !ok {
		return models.Transaction{}, sql.ErrNoRows
	}
	return txn, nil
}

func (s memTransactions) ListByAccount(_ context.Context, accountID, txType string, limit, offset int) ([]models.Transaction, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	owned := s.state.owned[accountID]
	var matched []models.Transaction
	for i := len(owned) - 1; i >= 0; i-- {
		txn := s.state.transactions[owned[i]]
		if txType != "" && txn.Type != txType {
			continue
		}
		matched = append(matched, txn)
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s memTransactions) CountByAccount(_ context.Context, accountID, txType string) (int, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	count := 0
	for _, id := range s.state.owned[accountID] {
		if txType == "" || s.state.transactions[id].Type == txType {
			count++
		}
	}
	return count, nil
}

type memLedger struct{ state *memState }

func (s memLedger) InsertEntries(_ context.Context, _ store.Execer, entries []models.LedgerEntry) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.ledger = append(s.state.ledger, entries...)
	return nil
}

func (s memLedger) ListByTransaction(_ context.Context, transactionID string) ([]models.LedgerEntry, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	var matched []models.LedgerEntry
	for _, entry := range s.state.ledger {
		if entry.TransactionID == transactionID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (s memLedger) SumByTransaction(_ context.Context, transactionID string) (store.DirectionSums, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	sums := store.DirectionSums{Debits: money.Zero, Credits: money.Zero}
	for _, entry := range s.state.ledger {
		if entry.TransactionID != transactionID {
			continue
		}
		if entry.Direction == models.DirectionDebit {
			sums.Debits = sums.Debits.Add(entry.Amount)
		} else {
			sums.Credits = sums.Credits.Add(entry.Amount)
		}
	}
	return sums, nil
}

func (s memLedger) SumByAccount(_ context.Context, accountID string) (money.Money, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	position := money.Zero
	for _, entry := range s.state.ledger {
		if entry.AccountID != accountID {
			continue
		}
		if entry.Direction == models.DirectionCredit {
			position = position.Add(entry.Amount)
		} else {
			position = position.Sub(entry.Amount)
		}
	}
	return position, nil
}

type memUsers struct{ state *memState }

func (s memUsers) GetByID(_ context.Context, userID string) (models.User, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	user, ok := s.state.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

type memCurrencies struct{}

func (memCurrencies) Exists(_ context.Context, code string) (bool, error) {
	switch code {
	case "NGN", "USD", "EUR":
		return true, nil
	}
	return false, nil
}

type memConverter struct{ state *memState }

func (s memConverter) Convert(_ context.Context, amount money.Money, _, _ string) (money.Money, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.convertCalls++
	if s.state.convertErr != nil {
		return money.Zero, s.state.convertErr
	}
	if s.state.rate != nil {
		return s.state.rate(amount), nil
	}
	return amount, nil
}

type memAudit struct{ state *memState }

func (s memAudit) Log(_ context.Context, _ store.Execer, actorID *string, action, _, _, _ string) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.audits = append(s.state.audits, auditRecord{actor: actorID, action: action})
	return nil
}

type memHub struct{ state *memState }

func (s memHub) BroadcastBalance(_ string, update websocket.BalanceUpdate) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.updates = append(s.state.updates, update)
}

// passthroughTxRunner invokes fn directly; the memory stores ignore the
// transaction handle.
type passthroughTxRunner struct{}

func (passthroughTxRunner) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

// serialTxRunner admits one unit of work at a time, the way row locks
// serialize conflicting transactions against a real database.
type serialTxRunner struct{ mu sync.Mutex }

func (r *serialTxRunner) WithTx(_ context.Context, fn func(*sqlx.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

func newTestService(state *memState) *TransactionService {
	return newTestServiceWithRunner(state, passthroughTxRunner{})
}

func newTestServiceWithRunner(state *memState, runner db.TxRunner) *TransactionService {
	pins := PinVerifierFunc(func(hashedPin, pin string) error {
		state.mu.Lock()
		state.pinChecks++
		state.mu.Unlock()
		if hashedPin != pin {
			return errors.New("mismatch")
		}
		return nil
	})
	return NewTransactionService(
		Config{BaseCurrency: "NGN", SystemCashAccount: "SYSTEM_CASH"},
		runner,
		memAccounts{state},
		memTransactions{state},
		memLedger{state},
		memUsers{state},
		memCurrencies{},
		memConverter{state},
		pins,
		memAudit{state},
		memHub{state},
		zap.NewNop(),
	)
}

func ngn(t *testing.T, raw string) money.Money {
	t.Helper()
	amount, err := money.Parse(raw)
	require.NoError(t, err)
	return amount
}

func seedState(t *testing.T) *memState {
	t.Helper()
	state := newMemState()
	pin := "1234"
	state.addUser(models.User{ID: "user-a", FirstName: "Ada", LastName: "Obi", Status: models.StatusVerified, IsPinSet: true, PinHash: &pin})
	state.addUser(models.User{ID: "user-b", FirstName: "Bola", LastName: "Eze", Status: models.StatusVerified, IsPinSet: true, PinHash: &pin})
	userA, userB := "user-a", "user-b"
	state.addAccount(models.Account{ID: "acc-a", UserID: &userA, AccountNumber: "1111111111", Balance: money.Zero, Currency: "NGN", Status: models.StatusVerified})
	state.addAccount(models.Account{ID: "acc-b", UserID: &userB, AccountNumber: "2222222222", Balance: money.Zero, Currency: "NGN", Status: models.StatusVerified})
	state.addAccount(models.Account{ID: "acc-sys", AccountNumber: "SYSTEM_CASH", Balance: ngn(t, "1000000.00"), Currency: "NGN", Status: models.StatusVerified})
	return state
}

func TestDepositCreditsAccountAndSystemCash(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	svc := newTestService(state)

	txn, err := svc.Deposit(ctx, DepositRequest{
		AccountNumber: "1111111111",
		Amount:        ngn(t, "100.00"),
		Currency:      "NGN",
		Description:   "cash deposit",
	})
	require.NoError(t, err)

	require.Equal(t, models.TypeDeposit, txn.Type)
	require.True(t, txn.Credit)
	require.Equal(t, "100.00", txn.Amount.String())
	require.NotNil(t, txn.DestinationAccountID)
	require.Equal(t, "acc-a", *txn.DestinationAccountID)

	require.Equal(t, "100.00", state.balance("1111111111"))
	require.Equal(t, "1000100.00", state.balance("SYSTEM_CASH"))

	require.Len(t, state.ledger, 2)
	require.Equal(t, models.DirectionCredit, state.ledger[0].Direction)
	require.Equal(t, "acc-a", state.ledger[0].AccountID)
	require.Equal(t, models.DirectionDebit, state.ledger[1].Direction)
	require.Equal(t, "acc-sys", state.ledger[1].AccountID)
	require.Equal(t, state.ledger[0].Amount.String(), state.ledger[1].Amount.String())

	require.Len(t, state.audits, 1)
	require.Nil(t, state.audits[0].actor)
	require.Equal(t, "deposit", state.audits[0].action)

	require.Len(t, state.updates, 1)
	require.Equal(t, "100.00", state.updates[0].Balance)
}

func TestDepositForeignCurrencyMovesConvertedAmount(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.rate = func(amount money.Money) money.Money {
		return money.FromDecimal(amount.Decimal().Mul(ngn(t, "1500.00").Decimal()))
	}
	svc := newTestService(state)

	txn, err := svc.Deposit(ctx, DepositRequest{
		AccountNumber: "1111111111",
		Amount:        ngn(t, "100.00"),
		Currency:      "USD",
	})
	require.NoError(t, err)

	// Balances move by the base-currency equivalent; the transaction and
	// ledger keep the presented amount and currency.
	require.Equal(t, "150000.00", state.balance("1111111111"))
	require.Equal(t, "1150000.00", state.balance("SYSTEM_CASH"))
	require.Equal(t, "100.00", txn.Amount.String())
	require.Equal(t, "USD", txn.Currency)
	require.Equal(t, "USD", state.ledger[0].Currency)
	require.Equal(t, "100.00", state.ledger[0].Amount.String())
}

func TestDepositRejectsUnknownCurrency(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	svc := newTestService(state)

	_, err := svc.Deposit(ctx, DepositRequest{AccountNumber: "1111111111", Amount: ngn(t, "10.00"), Currency: "XXX"})
	require.ErrorIs(t, err, ErrInvalidCurrency)
	require.Empty(t, state.ledger)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(seedState(t))

	_, err := svc.Deposit(ctx, DepositRequest{AccountNumber: "1111111111", Amount: money.Zero, Currency: "NGN"})
	require.ErrorIs(t, err, ErrInvalidAmount)

	negative, parseErr := money.Parse("-5.00")
	require.NoError(t, parseErr)
	_, err = svc.Deposit(ctx, DepositRequest{AccountNumber: "1111111111", Amount: negative, Currency: "NGN"})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDepositUnknownAccount(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	svc := newTestService(state)

	_, err := svc.Deposit(ctx, DepositRequest{AccountNumber: "9999999999", Amount: ngn(t, "10.00"), Currency: "NGN"})
	require.ErrorIs(t, err, ErrAccountNotFound)
	require.Equal(t, "1000000.00", state.balance("SYSTEM_CASH"))
}

func TestWithdrawDebitsAccountAndSystemCash(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestService(state)

	txn, err := svc.Withdraw(ctx, "user-a", WithdrawRequest{Amount: ngn(t, "50.00"), Currency: "NGN", Pin: "1234"})
	require.NoError(t, err)

	require.Equal(t, models.TypeWithdrawal, txn.Type)
	require.False(t, txn.Credit)
	require.Equal(t, "50.00", state.balance("1111111111"))
	require.Equal(t, "999950.00", state.balance("SYSTEM_CASH"))

	require.Len(t, state.ledger, 2)
	require.Equal(t, models.DirectionDebit, state.ledger[0].Direction)
	require.Equal(t, "acc-a", state.ledger[0].AccountID)
	require.Equal(t, models.DirectionCredit, state.ledger[1].Direction)
	require.Equal(t, "acc-sys", state.ledger[1].AccountID)

	require.Len(t, state.audits, 1)
	require.NotNil(t, state.audits[0].actor)
	require.Equal(t, "user-a", *state.audits[0].actor)
}

func TestWithdrawInsufficientFundsLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestService(state)

	_, err := svc.Withdraw(ctx, "user-a", WithdrawRequest{Amount: ngn(t, "150.00"), Currency: "NGN", Pin: "1234"})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	require.Equal(t, "100.00", state.balance("1111111111"))
	require.Equal(t, "1000000.00", state.balance("SYSTEM_CASH"))
	require.Empty(t, state.ledger)
	require.Empty(t, state.transactions)
	require.Empty(t, state.audits)
	// The funds check runs before the PIN is ever verified.
	require.Zero(t, state.pinChecks)
}

func TestWithdrawRequiresPinSet(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.addUser(models.User{ID: "user-nopin", Status: models.StatusVerified})
	userID := "user-nopin"
	state.addAccount(models.Account{ID: "acc-nopin", UserID: &userID, AccountNumber: "3333333333", Balance: ngn(t, "500.00"), Currency: "NGN", Status: models.StatusVerified})
	svc := newTestService(state)

	_, err := svc.Withdraw(ctx, "user-nopin", WithdrawRequest{Amount: ngn(t, "10.00"), Currency: "NGN", Pin: "1234"})
	require.ErrorIs(t, err, ErrPinNotSet)
	require.Equal(t, "500.00", state.balance("3333333333"))
	require.Zero(t, state.convertCalls)
}

func TestWithdrawWrongPin(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestService(state)

	_, err := svc.Withdraw(ctx, "user-a", WithdrawRequest{Amount: ngn(t, "50.00"), Currency: "NGN", Pin: "0000"})
	require.ErrorIs(t, err, ErrPinMismatch)
	require.Equal(t, "100.00", state.balance("1111111111"))
	require.Empty(t, state.ledger)
}

func TestWithdrawSuspendedCaller(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	user := state.users["user-a"]
	user.Status = models.StatusSuspended
	state.users["user-a"] = user
	svc := newTestService(state)

	_, err := svc.Withdraw(ctx, "user-a", WithdrawRequest{Amount: ngn(t, "10.00"), Currency: "NGN", Pin: "1234"})
	require.ErrorIs(t, err, ErrCallerInactive)
}

func TestWithdrawConversionFailureAborts(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	state.convertErr = errors.New("rate source down")
	svc := newTestService(state)

	_, err := svc.Withdraw(ctx, "user-a", WithdrawRequest{Amount: ngn(t, "10.00"), Currency: "USD", Pin: "1234"})
	require.ErrorContains(t, err, "rate source down")
	require.Equal(t, "100.00", state.balance("1111111111"))
	require.Empty(t, state.ledger)
	require.Empty(t, state.transactions)
}

func TestTransferMovesFundsBetweenAccounts(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestService(state)

	txn, err := svc.Transfer(ctx, "user-a", TransferRequest{
		RecipientAccountNumber: "2222222222",
		Amount:                 ngn(t, "50.00"),
		Currency:               "NGN",
		Description:            "rent",
		Pin:                    "1234",
	})
	require.NoError(t, err)

	require.Equal(t, "50.00", state.balance("1111111111"))
	require.Equal(t, "50.00", state.balance("2222222222"))
	require.Equal(t, "1000000.00", state.balance("SYSTEM_CASH"))

	// The returned transaction is the sender's debit leg.
	require.Equal(t, models.TypeTransfer, txn.Type)
	require.False(t, txn.Credit)
	require.NotNil(t, txn.DestinationAccountID)
	require.Equal(t, "acc-b", *txn.DestinationAccountID)

	require.Len(t, state.transactions, 2)
	var creditLeg models.Transaction
	for _, candidate := range state.transactions {
		if candidate.Credit {
			creditLeg = candidate
		}
	}
	require.NotNil(t, creditLeg.SenderAccountID)
	require.Equal(t, "acc-a", *creditLeg.SenderAccountID)
	require.NotNil(t, creditLeg.DepositorFirstName)
	require.Equal(t, "Ada", *creditLeg.DepositorFirstName)

	require.Len(t, state.owned["acc-a"], 1)
	require.Len(t, state.owned["acc-b"], 1)
	require.Len(t, state.ledger, 2)
	require.Equal(t, "Transfer to 2222222222", state.ledger[0].Description)
	require.Equal(t, "Transfer from 1111111111", state.ledger[1].Description)
	require.Len(t, state.updates, 2)
}

func TestTransferToSelfRejected(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestService(state)

	_, err := svc.Transfer(ctx, "user-a", TransferRequest{
		RecipientAccountNumber: "1111111111",
		Amount:                 ngn(t, "10.00"),
		Currency:               "NGN",
		Pin:                    "1234",
	})
	require.ErrorIs(t, err, ErrSelfTransfer)
	require.Equal(t, "100.00", state.balance("1111111111"))
}

func TestTransferRecipientMissing(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestService(state)

	_, err := svc.Transfer(ctx, "user-a", TransferRequest{
		RecipientAccountNumber: "9999999999",
		Amount:                 ngn(t, "10.00"),
		Currency:               "NGN",
		Pin:                    "1234",
	})
	require.ErrorIs(t, err, ErrRecipientNotFound)
	require.Equal(t, "100.00", state.balance("1111111111"))
	require.Empty(t, state.ledger)
}

func TestTransferInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "20.00")
	svc := newTestService(state)

	_, err := svc.Transfer(ctx, "user-a", TransferRequest{
		RecipientAccountNumber: "2222222222",
		Amount:                 ngn(t, "50.00"),
		Currency:               "NGN",
		Pin:                    "1234",
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, "20.00", state.balance("1111111111"))
	require.Equal(t, "0.00", state.balance("2222222222"))
	require.Zero(t, state.pinChecks)
}

func TestGetTransactionsPaginates(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	svc := newTestService(state)

	for i := 0; i < 3; i++ {
		_, err := svc.Deposit(ctx, DepositRequest{AccountNumber: "1111111111", Amount: ngn(t, "10.00"), Currency: "NGN"})
		require.NoError(t, err)
	}

	page, err := svc.GetTransactions(ctx, "user-a", TransactionQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	require.Equal(t, 3, page.TotalCount)
	require.Equal(t, 1, page.CurrentPage)
	require.Equal(t, 2, page.TotalPages)

	page, err = svc.GetTransactions(ctx, "user-a", TransactionQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)

	// Defaults apply when page and limit are out of range.
	page, err = svc.GetTransactions(ctx, "user-a", TransactionQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Transactions, 3)
}

func TestGetTransactionsFiltersByType(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestService(state)

	_, err := svc.Deposit(ctx, DepositRequest{AccountNumber: "1111111111", Amount: ngn(t, "10.00"), Currency: "NGN"})
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, "user-a", WithdrawRequest{Amount: ngn(t, "10.00"), Currency: "NGN", Pin: "1234"})
	require.NoError(t, err)

	page, err := svc.GetTransactions(ctx, "user-a", TransactionQuery{Type: models.TypeWithdrawal})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	require.Equal(t, models.TypeWithdrawal, page.Transactions[0].Type)
}

func TestGetTransactionRejectsForeignTransaction(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	svc := newTestService(state)

	deposited, err := svc.Deposit(ctx, DepositRequest{AccountNumber: "2222222222", Amount: ngn(t, "10.00"), Currency: "NGN"})
	require.NoError(t, err)

	_, err = svc.GetTransaction(ctx, "user-a", deposited.ID)
	require.ErrorIs(t, err, ErrTransactionNotFound)

	txn, err := svc.GetTransaction(ctx, "user-b", deposited.ID)
	require.NoError(t, err)
	require.Equal(t, deposited.ID, txn.ID)
}

func TestGetTransactionEntries(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	svc := newTestService(state)

	deposited, err := svc.Deposit(ctx, DepositRequest{AccountNumber: "1111111111", Amount: ngn(t, "100.00"), Currency: "NGN"})
	require.NoError(t, err)

	entries, err := svc.GetTransactionEntries(ctx, "user-a", deposited.ID)
	require.NoError(t, err)
	require.Len(t, entries.Entries, 2)
	require.Equal(t, deposited.ID, entries.Entries[0].TransactionID)
	require.Equal(t, "100.00", entries.Totals.Debits.String())
	require.Equal(t, "100.00", entries.Totals.Credits.String())

	_, err = svc.GetTransactionEntries(ctx, "user-b", deposited.ID)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestConcurrentWithdrawalsCannotOverdraw(t *testing.T) {
	ctx := context.Background()
	state := seedState(t)
	state.accounts["1111111111"].Balance = ngn(t, "100.00")
	svc := newTestServiceWithRunner(state, &serialTxRunner{})

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(ctx, "user-a", WithdrawRequest{Amount: ngn(t, "70.00"), Currency: "NGN", Pin: "1234"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failed []error
	for err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}

	// Whichever withdrawal locks the row second re-reads the drained
	// balance and must be refused; the account never goes negative.
	require.Len(t, failed, 1)
	require.ErrorIs(t, failed[0], ErrInsufficientFunds)
	require.Equal(t, "30.00", state.balance("1111111111"))
	require.False(t, state.accounts["1111111111"].Balance.IsNegative())
	require.Len(t, state.transactions, 1)
	require.Len(t, state.ledger, 2)
	require.Equal(t, "999930.00", state.balance("SYSTEM_CASH"))
}

func TestEnsureBalanced(t *testing.T) {
	ten := ngn(t, "10.00")
	five := ngn(t, "5.00")

	balanced := []models.LedgerEntry{
		{Amount: ten, Direction: models.DirectionDebit, Currency: "NGN"},
		{Amount: ten, Direction: models.DirectionCredit, Currency: "NGN"},
	}
	require.NoError(t, ensureBalanced(balanced))

	unbalanced := []models.LedgerEntry{
		{Amount: ten, Direction: models.DirectionDebit, Currency: "NGN"},
		{Amount: five, Direction: models.DirectionCredit, Currency: "NGN"},
	}
	require.ErrorIs(t, ensureBalanced(unbalanced), ErrUnbalancedEntries)

	mixedCurrency := []models.LedgerEntry{
		{Amount: ten, Direction: models.DirectionDebit, Currency: "NGN"},
		{Amount: ten, Direction: models.DirectionCredit, Currency: "USD"},
	}
	require.ErrorIs(t, ensureBalanced(mixedCurrency), ErrUnbalancedEntries)
}
