package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/bedehampo/banking-transaction-api/internal/db"
	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/money"
	"github.com/bedehampo/banking-transaction-api/internal/store"
	"github.com/bedehampo/banking-transaction-api/internal/websocket"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrAccountNotFound     = errors.New("account not found")
	ErrRecipientNotFound   = errors.New("recipient account not found")
	ErrTransactionNotFound = errors.New("transaction not associated with your account")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrPinNotSet           = errors.New("please set your transaction pin")
	ErrPinMismatch         = errors.New("invalid transaction pin")
	ErrSelfTransfer        = errors.New("cannot transfer to your own account")
	ErrCallerNotFound      = errors.New("operator account not found")
	ErrCallerInactive      = errors.New("unauthorised operator")
	ErrSystemCashMissing   = errors.New("system cash account not configured")
	ErrSystemCashDepleted  = errors.New("system cash account depleted")
	ErrUnbalancedEntries   = errors.New("ledger entries are not balanced")
)

// Config carries the deployment parameters the engine needs; there is no
// package-level mutable configuration.
type Config struct {
	BaseCurrency      string
	SystemCashAccount string
}

type AccountStore interface {
	GetByUser(ctx context.Context, userID string) (models.Account, error)
	GetNumberByUser(ctx context.Context, tx store.Getter, userID string) (string, error)
	GetForUpdateByNumber(ctx context.Context, tx store.Getter, accountNumber, status string) (models.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance money.Money) error
	AppendTransaction(ctx context.Context, tx store.Execer, accountID, transactionID string) error
	OwnsTransaction(ctx context.Context, accountID, transactionID string) (bool, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, txn models.Transaction) error
	GetByID(ctx context.Context, transactionID string) (models.Transaction, error)
	ListByAccount(ctx context.Context, accountID, txType string, limit, offset int) ([]models.Transaction, error)
	CountByAccount(ctx context.Context, accountID, txType string) (int, error)
}

type LedgerStore interface {
	InsertEntries(ctx context.Context, tx store.Execer, entries []models.LedgerEntry) error
	ListByTransaction(ctx context.Context, transactionID string) ([]models.LedgerEntry, error)
	SumByTransaction(ctx context.Context, transactionID string) (store.DirectionSums, error)
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type CurrencyValidator interface {
	Exists(ctx context.Context, code string) (bool, error)
}

type CurrencyConverter interface {
	Convert(ctx context.Context, amount money.Money, from, to string) (money.Money, error)
}

// PinVerifier checks a supplied transaction PIN against its stored hash.
type PinVerifier interface {
	VerifyPin(hashedPin, pin string) error
}

// PinVerifierFunc adapts a bare function, e.g. auth.CheckPin.
type PinVerifierFunc func(hashedPin, pin string) error

func (f PinVerifierFunc) VerifyPin(hashedPin, pin string) error {
	return f(hashedPin, pin)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID *string, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// TransactionService is the ledger engine: the sole writer of account
// balances, transactions, and ledger entries. Every mutating operation
// runs as one atomic unit; any failure rolls back everything written.
type TransactionService struct {
	cfg          Config
	txRunner     db.TxRunner
	accounts     AccountStore
	transactions TransactionStore
	ledger       LedgerStore
	users        UserStore
	currencies   CurrencyValidator
	converter    CurrencyConverter
	pins         PinVerifier
	audit        AuditStore
	hub          BalanceHub
	logger       *zap.Logger
}

func NewTransactionService(
	cfg Config,
	txRunner db.TxRunner,
	accounts AccountStore,
	transactions TransactionStore,
	ledger LedgerStore,
	users UserStore,
	currencies CurrencyValidator,
	converter CurrencyConverter,
	pins PinVerifier,
	audit AuditStore,
	hub BalanceHub,
	logger *zap.Logger,
) *TransactionService {
	return &TransactionService{
		cfg:          cfg,
		txRunner:     txRunner,
		accounts:     accounts,
		transactions: transactions,
		ledger:       ledger,
		users:        users,
		currencies:   currencies,
		converter:    converter,
		pins:         pins,
		audit:        audit,
		hub:          hub,
		logger:       logger,
	}
}

type DepositRequest struct {
	AccountNumber      string
	Amount             money.Money
	Currency           string
	Description        string
	DepositorFirstName *string
	DepositorLastName  *string
}

// Deposit credits a customer account with cash handed to the institution.
// The account balance moves by the base-currency equivalent; the
// transaction and ledger rows keep the presented amount and currency.
func (s *TransactionService) Deposit(ctx context.Context, req DepositRequest) (models.Transaction, error) {
	converted, err := s.checkAmountAndConvert(ctx, req.Amount, req.Currency)
	if err != nil {
		return models.Transaction{}, err
	}

	transactionID := uuid.NewString()
	var depositAccount models.Account
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, systemCash, err := s.lockWithSystemCash(ctx, tx, req.AccountNumber, ErrAccountNotFound)
		if err != nil {
			return err
		}
		depositAccount = account

		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance.Add(converted)); err != nil {
			return err
		}
		depositAccount.Balance = account.Balance.Add(converted)

		txn := models.Transaction{
			ID:                   transactionID,
			Type:                 models.TypeDeposit,
			Amount:               req.Amount,
			Currency:             req.Currency,
			Description:          req.Description,
			Credit:               true,
			DepositorFirstName:   req.DepositorFirstName,
			DepositorLastName:    req.DepositorLastName,
			DestinationAccountID: &account.ID,
		}
		if err := s.transactions.Create(ctx, tx, txn); err != nil {
			return err
		}
		if err := s.accounts.AppendTransaction(ctx, tx, account.ID, transactionID); err != nil {
			return err
		}

		entries := []models.LedgerEntry{
			{
				ID:            uuid.NewString(),
				TransactionID: transactionID,
				AccountID:     account.ID,
				Amount:        req.Amount,
				Direction:     models.DirectionCredit,
				Description:   "Deposit to account",
				Currency:      req.Currency,
			},
			{
				ID:            uuid.NewString(),
				TransactionID: transactionID,
				AccountID:     systemCash.ID,
				Amount:        req.Amount,
				Direction:     models.DirectionDebit,
				Description:   "Deposit from customer",
				Currency:      req.Currency,
			},
		}
		if err := ensureBalanced(entries); err != nil {
			return err
		}
		if err := s.ledger.InsertEntries(ctx, tx, entries); err != nil {
			return err
		}

		if err := s.accounts.UpdateBalance(ctx, tx, systemCash.ID, systemCash.Balance.Add(converted)); err != nil {
			return err
		}

		data, _ := json.Marshal(map[string]string{
			"transaction_id": transactionID,
			"account_number": req.AccountNumber,
		})
		return s.audit.Log(ctx, tx, nil, "deposit", "transaction", transactionID, string(data))
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.logger.Info("deposit committed",
		zap.String("transaction_id", transactionID),
		zap.String("account_number", req.AccountNumber),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency))
	s.broadcast(depositAccount)
	return s.transactions.GetByID(ctx, transactionID)
}

type WithdrawRequest struct {
	Amount      money.Money
	Currency    string
	Description string
	Pin         string
}

// Withdraw debits the caller's own account. The insufficient-funds check
// runs before PIN verification; the PIN gates any mutation.
func (s *TransactionService) Withdraw(ctx context.Context, callerID string, req WithdrawRequest) (models.Transaction, error) {
	caller, err := s.validateActiveCaller(ctx, callerID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !caller.IsPinSet || caller.PinHash == nil {
		return models.Transaction{}, ErrPinNotSet
	}
	converted, err := s.checkAmountAndConvert(ctx, req.Amount, req.Currency)
	if err != nil {
		return models.Transaction{}, err
	}

	transactionID := uuid.NewString()
	var callerAccount models.Account
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		accountNumber, err := s.accounts.GetNumberByUser(ctx, tx, callerID)
		if err != nil {
			return mapNoRows(err, ErrAccountNotFound)
		}
		account, systemCash, err := s.lockWithSystemCash(ctx, tx, accountNumber, ErrAccountNotFound)
		if err != nil {
			return err
		}

		if account.Balance.LessThan(converted) {
			return ErrInsufficientFunds
		}
		if err := s.pins.VerifyPin(*caller.PinHash, req.Pin); err != nil {
			return ErrPinMismatch
		}

		newBalance := account.Balance.Sub(converted)
		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, newBalance); err != nil {
			return err
		}
		callerAccount = account
		callerAccount.Balance = newBalance

		txn := models.Transaction{
			ID:          transactionID,
			Type:        models.TypeWithdrawal,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: req.Description,
			Credit:      false,
		}
		if err := s.transactions.Create(ctx, tx, txn); err != nil {
			return err
		}
		if err := s.accounts.AppendTransaction(ctx, tx, account.ID, transactionID); err != nil {
			return err
		}

		entries := []models.LedgerEntry{
			{
				ID:            uuid.NewString(),
				TransactionID: transactionID,
				AccountID:     account.ID,
				Amount:        req.Amount,
				Direction:     models.DirectionDebit,
				Description:   "Withdrawal from account",
				Currency:      req.Currency,
			},
			{
				ID:            uuid.NewString(),
				TransactionID: transactionID,
				AccountID:     systemCash.ID,
				Amount:        req.Amount,
				Direction:     models.DirectionCredit,
				Description:   "Withdrawal to customer",
				Currency:      req.Currency,
			},
		}
		if err := ensureBalanced(entries); err != nil {
			return err
		}
		if err := s.ledger.InsertEntries(ctx, tx, entries); err != nil {
			return err
		}

		newSystemBalance := systemCash.Balance.Sub(converted)
		if newSystemBalance.IsNegative() {
			return ErrSystemCashDepleted
		}
		if err := s.accounts.UpdateBalance(ctx, tx, systemCash.ID, newSystemBalance); err != nil {
			return err
		}

		data, _ := json.Marshal(map[string]string{
			"transaction_id": transactionID,
		})
		return s.audit.Log(ctx, tx, &callerID, "withdraw", "transaction", transactionID, string(data))
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.logger.Info("withdrawal committed",
		zap.String("transaction_id", transactionID),
		zap.String("user_id", callerID),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency))
	s.broadcast(callerAccount)
	return s.transactions.GetByID(ctx, transactionID)
}

type TransferRequest struct {
	RecipientAccountNumber string
	Amount                 money.Money
	Currency               string
	Description            string
	Pin                    string
}

// Transfer moves funds between two customer accounts as one atomic unit:
// both balance mutations, both transaction legs, and both ledger entries
// commit together or not at all. The sender's leg is returned.
func (s *TransactionService) Transfer(ctx context.Context, callerID string, req TransferRequest) (models.Transaction, error) {
	caller, err := s.validateActiveCaller(ctx, callerID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !caller.IsPinSet || caller.PinHash == nil {
		return models.Transaction{}, ErrPinNotSet
	}
	converted, err := s.checkAmountAndConvert(ctx, req.Amount, req.Currency)
	if err != nil {
		return models.Transaction{}, err
	}

	debitLegID := uuid.NewString()
	creditLegID := uuid.NewString()
	var senderAccount, recipientAccount models.Account
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		senderNumber, err := s.accounts.GetNumberByUser(ctx, tx, callerID)
		if err != nil {
			return mapNoRows(err, ErrAccountNotFound)
		}
		if senderNumber == req.RecipientAccountNumber {
			return ErrSelfTransfer
		}
		sender, recipient, err := s.lockPair(ctx, tx, senderNumber, req.RecipientAccountNumber, ErrAccountNotFound, ErrRecipientNotFound)
		if err != nil {
			return err
		}

		if sender.Balance.LessThan(converted) {
			return ErrInsufficientFunds
		}
		if err := s.pins.VerifyPin(*caller.PinHash, req.Pin); err != nil {
			return ErrPinMismatch
		}

		newSender := sender.Balance.Sub(converted)
		newRecipient := recipient.Balance.Add(converted)
		if err := s.accounts.UpdateBalance(ctx, tx, sender.ID, newSender); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalance(ctx, tx, recipient.ID, newRecipient); err != nil {
			return err
		}
		senderAccount, recipientAccount = sender, recipient
		senderAccount.Balance = newSender
		recipientAccount.Balance = newRecipient

		debitLeg := models.Transaction{
			ID:                   debitLegID,
			Type:                 models.TypeTransfer,
			Amount:               req.Amount,
			Currency:             req.Currency,
			Description:          req.Description,
			Credit:               false,
			DestinationAccountID: &recipient.ID,
		}
		creditLeg := models.Transaction{
			ID:                 creditLegID,
			Type:               models.TypeTransfer,
			Amount:             req.Amount,
			Currency:           req.Currency,
			Description:        req.Description,
			Credit:             true,
			SenderAccountID:    &sender.ID,
			DepositorFirstName: &caller.FirstName,
			DepositorLastName:  &caller.LastName,
		}
		if err := s.transactions.Create(ctx, tx, debitLeg); err != nil {
			return err
		}
		if err := s.transactions.Create(ctx, tx, creditLeg); err != nil {
			return err
		}
		if err := s.accounts.AppendTransaction(ctx, tx, sender.ID, debitLegID); err != nil {
			return err
		}
		if err := s.accounts.AppendTransaction(ctx, tx, recipient.ID, creditLegID); err != nil {
			return err
		}

		entries := []models.LedgerEntry{
			{
				ID:            uuid.NewString(),
				TransactionID: debitLegID,
				AccountID:     sender.ID,
				Amount:        req.Amount,
				Direction:     models.DirectionDebit,
				Description:   "Transfer to " + recipient.AccountNumber,
				Currency:      req.Currency,
			},
			{
				ID:            uuid.NewString(),
				TransactionID: creditLegID,
				AccountID:     recipient.ID,
				Amount:        req.Amount,
				Direction:     models.DirectionCredit,
				Description:   "Transfer from " + sender.AccountNumber,
				Currency:      req.Currency,
			},
		}
		if err := ensureBalanced(entries); err != nil {
			return err
		}
		if err := s.ledger.InsertEntries(ctx, tx, entries); err != nil {
			return err
		}

		data, _ := json.Marshal(map[string]string{
			"debit_leg":  debitLegID,
			"credit_leg": creditLegID,
		})
		return s.audit.Log(ctx, tx, &callerID, "transfer", "transaction", debitLegID, string(data))
	})
	if err != nil {
		return models.Transaction{}, err
	}

	s.logger.Info("transfer committed",
		zap.String("debit_leg", debitLegID),
		zap.String("credit_leg", creditLegID),
		zap.String("user_id", callerID),
		zap.String("amount", req.Amount.String()),
		zap.String("currency", req.Currency))
	s.broadcast(senderAccount)
	s.broadcast(recipientAccount)
	return s.transactions.GetByID(ctx, debitLegID)
}

type TransactionQuery struct {
	Type  string
	Page  int
	Limit int
}

type TransactionPage struct {
	Transactions []models.Transaction `json:"transactions"`
	TotalCount   int                  `json:"total_count"`
	CurrentPage  int                  `json:"current_page"`
	TotalPages   int                  `json:"total_pages"`
}

// GetTransactions lists the caller's own transaction history.
func (s *TransactionService) GetTransactions(ctx context.Context, callerID string, query TransactionQuery) (TransactionPage, error) {
	if _, err := s.validateActiveCaller(ctx, callerID); err != nil {
		return TransactionPage{}, err
	}
	account, err := s.accounts.GetByUser(ctx, callerID)
	if err != nil {
		return TransactionPage{}, mapNoRows(err, ErrAccountNotFound)
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	transactions, err := s.transactions.ListByAccount(ctx, account.ID, query.Type, limit, offset)
	if err != nil {
		return TransactionPage{}, err
	}
	total, err := s.transactions.CountByAccount(ctx, account.ID, query.Type)
	if err != nil {
		return TransactionPage{}, err
	}
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return TransactionPage{
		Transactions: transactions,
		TotalCount:   total,
		CurrentPage:  page,
		TotalPages:   totalPages,
	}, nil
}

// GetTransaction returns one transaction, only if it belongs to the
// caller's account.
func (s *TransactionService) GetTransaction(ctx context.Context, callerID, transactionID string) (models.Transaction, error) {
	if _, err := s.validateActiveCaller(ctx, callerID); err != nil {
		return models.Transaction{}, err
	}
	account, err := s.accounts.GetByUser(ctx, callerID)
	if err != nil {
		return models.Transaction{}, mapNoRows(err, ErrAccountNotFound)
	}
	owned, err := s.accounts.OwnsTransaction(ctx, account.ID, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	if !owned {
		return models.Transaction{}, ErrTransactionNotFound
	}
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return models.Transaction{}, mapNoRows(err, ErrTransactionNotFound)
	}
	return txn, nil
}

// TransactionEntries bundles a transaction's ledger rows with the
// per-direction totals summed from durable state.
type TransactionEntries struct {
	Entries []models.LedgerEntry `json:"entries"`
	Totals  store.DirectionSums  `json:"totals"`
}

// GetTransactionEntries returns the double-entry ledger rows behind one
// of the caller's transactions, with debit and credit totals so a
// reader can verify the transaction balances.
func (s *TransactionService) GetTransactionEntries(ctx context.Context, callerID, transactionID string) (TransactionEntries, error) {
	if _, err := s.validateActiveCaller(ctx, callerID); err != nil {
		return TransactionEntries{}, err
	}
	account, err := s.accounts.GetByUser(ctx, callerID)
	if err != nil {
		return TransactionEntries{}, mapNoRows(err, ErrAccountNotFound)
	}
	owned, err := s.accounts.OwnsTransaction(ctx, account.ID, transactionID)
	if err != nil {
		return TransactionEntries{}, err
	}
	if !owned {
		return TransactionEntries{}, ErrTransactionNotFound
	}
	entries, err := s.ledger.ListByTransaction(ctx, transactionID)
	if err != nil {
		return TransactionEntries{}, err
	}
	sums, err := s.ledger.SumByTransaction(ctx, transactionID)
	if err != nil {
		return TransactionEntries{}, err
	}
	return TransactionEntries{Entries: entries, Totals: sums}, nil
}

// validateActiveCaller resolves the caller and rejects suspended or
// deleted operators.
func (s *TransactionService) validateActiveCaller(ctx context.Context, callerID string) (models.User, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return models.User{}, mapNoRows(err, ErrCallerNotFound)
	}
	if caller.Status == models.StatusSuspended || caller.Status == models.StatusDeleted {
		return models.User{}, ErrCallerInactive
	}
	return caller, nil
}

// checkAmountAndConvert validates the presented amount and currency and
// returns the base-currency equivalent that balances move by.
func (s *TransactionService) checkAmountAndConvert(ctx context.Context, amount money.Money, currency string) (money.Money, error) {
	if !amount.IsPositive() {
		return money.Zero, ErrInvalidAmount
	}
	ok, err := s.currencies.Exists(ctx, currency)
	if err != nil {
		return money.Zero, err
	}
	if !ok {
		return money.Zero, ErrInvalidCurrency
	}
	if currency == s.cfg.BaseCurrency {
		return amount, nil
	}
	return s.converter.Convert(ctx, amount, currency, s.cfg.BaseCurrency)
}

// lockWithSystemCash locks a customer account and the system cash account
// in deterministic order and attributes a missing row to the right error.
func (s *TransactionService) lockWithSystemCash(ctx context.Context, tx store.Getter, accountNumber string, missing error) (models.Account, models.Account, error) {
	account, systemCash, err := s.lockPair(ctx, tx, accountNumber, s.cfg.SystemCashAccount, missing, ErrSystemCashMissing)
	if err != nil {
		return models.Account{}, models.Account{}, err
	}
	return account, systemCash, nil
}

// lockPair takes FOR UPDATE locks on two verified accounts, always in
// lexical account-number order so concurrent pairs cannot deadlock.
func (s *TransactionService) lockPair(ctx context.Context, tx store.Getter, firstNumber, secondNumber string, firstMissing, secondMissing error) (models.Account, models.Account, error) {
	numbers := []string{firstNumber, secondNumber}
	if numbers[0] > numbers[1] {
		numbers[0], numbers[1] = numbers[1], numbers[0]
	}
	locked := make(map[string]models.Account, 2)
	for _, number := range numbers {
		account, err := s.accounts.GetForUpdateByNumber(ctx, tx, number, models.StatusVerified)
		if err != nil {
			missing := firstMissing
			if number == secondNumber {
				missing = secondMissing
			}
			return models.Account{}, models.Account{}, mapNoRows(err, missing)
		}
		locked[number] = account
	}
	return locked[firstNumber], locked[secondNumber], nil
}

// ensureBalanced rejects a ledger write whose per-currency debit and
// credit totals differ.
func ensureBalanced(entries []models.LedgerEntry) error {
	debits := map[string]money.Money{}
	credits := map[string]money.Money{}
	for _, entry := range entries {
		if entry.Direction == models.DirectionDebit {
			debits[entry.Currency] = debits[entry.Currency].Add(entry.Amount)
		} else {
			credits[entry.Currency] = credits[entry.Currency].Add(entry.Amount)
		}
	}
	for currency, debit := range debits {
		if !debit.Equal(credits[currency]) {
			return ErrUnbalancedEntries
		}
	}
	for currency, credit := range credits {
		if _, ok := debits[currency]; !ok && !credit.IsZero() {
			return ErrUnbalancedEntries
		}
	}
	return nil
}

func (s *TransactionService) broadcast(account models.Account) {
	if account.UserID == nil {
		return
	}
	s.hub.BroadcastBalance(*account.UserID, websocket.BalanceUpdate{
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance.String(),
		Currency:      account.Currency,
	})
}

func mapNoRows(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}
