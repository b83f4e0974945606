package ledger

import (
	"fmt"
	"iter"

	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// Ledger is the transaction state machine.
// It holds a reference to the storage layer and a sink for ignored transactions.
type Ledger struct {
	store    interfaces.LedgerStore // account and deposit tables of the current run
	reporter interfaces.Reporter    // receives every rejected transaction
}

// NewLedger is a constructor function that creates a new Ledger instance
// We pass in a storage implementation and a reporter; a nil reporter drops diagnostics.
func NewLedger(store interfaces.LedgerStore, reporter interfaces.Reporter) *Ledger {
	if reporter == nil {
		reporter = nopReporter{}
	}

	return &Ledger{
		store:    store,
		reporter: reporter,
	}
}

// Process applies transactions strictly in the order the sequence yields them.
// Rejected transactions are reported and skipped. It returns the state of
// every client referenced by the sequence.
func (l *Ledger) Process(transactions iter.Seq[models.Transaction]) map[models.ClientID]models.ClientAccount {
	for tx := range transactions {
		if err := l.Apply(tx); err != nil {
			l.reporter.Rejected(tx, err)
		}
	}

	return l.store.Accounts()
}

// Apply applies a single transaction. A non-nil error is always a
// *RejectionError and means nothing was changed, except that an account
// is created for a client seen for the first time.
func (l *Ledger) Apply(tx models.Transaction) error {
	account := l.store.Account(tx.Client)

	// Locking is permanent and covers every kind, including resolves and
	// chargebacks of disputes opened before the lock.
	if account.Locked {
		return reject(tx, ErrAccountLocked)
	}

	switch kind := tx.Kind.(type) {
	case models.Deposit:
		return l.deposit(tx, account, kind.Amount)
	case models.Withdrawal:
		return l.withdraw(tx, account, kind.Amount)
	case models.Dispute:
		return l.dispute(tx, account)
	case models.Resolve:
		return l.resolve(tx, account)
	case models.Chargeback:
		return l.chargeback(tx, account)
	default:
		return reject(tx, fmt.Errorf("unsupported transaction kind %T", tx.Kind))
	}
}

func (l *Ledger) deposit(tx models.Transaction, account *models.ClientAccount, amount decimal.Decimal) error {
	if err := commit(tx, account, account.Available.Add(amount), account.Held); err != nil {
		return err
	}

	// Duplicate ids are not rejected: the latest deposit wins.
	l.store.SaveDeposit(tx.Tx, models.DepositRecord{
		Client: tx.Client,
		Amount: amount,
	})

	return nil
}

func (l *Ledger) withdraw(tx models.Transaction, account *models.ClientAccount, amount decimal.Decimal) error {
	if account.Available.LessThan(amount) {
		return reject(tx, ErrInsufficientFunds)
	}

	return commit(tx, account, account.Available.Sub(amount), account.Held)
}

func (l *Ledger) dispute(tx models.Transaction, account *models.ClientAccount) error {
	record, exists := l.store.Deposit(tx.Tx)
	switch {
	case !exists:
		return reject(tx, ErrUnknownTransaction)
	case record.UnderDispute:
		return reject(tx, ErrAlreadyDisputed)
	case record.Client != tx.Client:
		return reject(tx, ErrClientMismatch)
	case account.Available.LessThan(record.Amount):
		// held may never exceed what the account can fund
		return reject(tx, ErrInsufficientFunds)
	}

	err := commit(tx, account, account.Available.Sub(record.Amount), account.Held.Add(record.Amount))
	if err != nil {
		return err
	}

	record.UnderDispute = true

	return nil
}

func (l *Ledger) resolve(tx models.Transaction, account *models.ClientAccount) error {
	record, err := l.disputedDeposit(tx)
	if err != nil {
		return err
	}

	err = commit(tx, account, account.Available.Add(record.Amount), account.Held.Sub(record.Amount))
	if err != nil {
		return err
	}

	record.UnderDispute = false

	return nil
}

func (l *Ledger) chargeback(tx models.Transaction, account *models.ClientAccount) error {
	record, err := l.disputedDeposit(tx)
	if err != nil {
		return err
	}

	if err := commit(tx, account, account.Available, account.Held.Sub(record.Amount)); err != nil {
		return err
	}

	account.Locked = true
	// A charged-back deposit can never be disputed again.
	l.store.DeleteDeposit(tx.Tx)

	return nil
}

// disputedDeposit returns the deposit referenced by tx if it is under
// dispute and owned by the same client.
func (l *Ledger) disputedDeposit(tx models.Transaction) (*models.DepositRecord, error) {
	record, exists := l.store.Deposit(tx.Tx)
	switch {
	case !exists:
		return nil, reject(tx, ErrUnknownTransaction)
	case !record.UnderDispute:
		return nil, reject(tx, ErrNotDisputed)
	case record.Client != tx.Client:
		return nil, reject(tx, ErrClientMismatch)
	}

	return record, nil
}

// commit writes the new balances, refusing any transition that would leave
// either of them negative.
func commit(tx models.Transaction, account *models.ClientAccount, available, held decimal.Decimal) error {
	if available.IsNegative() || held.IsNegative() {
		return reject(tx, ErrInvariantViolation)
	}

	account.Available = available
	account.Held = held

	return nil
}

type nopReporter struct{}

func (nopReporter) Skipped(int, error)                 {}
func (nopReporter) Rejected(models.Transaction, error) {}
