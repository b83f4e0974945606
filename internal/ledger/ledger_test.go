package ledger

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/storage/memory"
)

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func deposit(client models.ClientID, tx models.TxID, amount string) models.Transaction {
	return models.Transaction{Client: client, Tx: tx, Kind: models.Deposit{Amount: dec(amount)}}
}

func withdrawal(client models.ClientID, tx models.TxID, amount string) models.Transaction {
	return models.Transaction{Client: client, Tx: tx, Kind: models.Withdrawal{Amount: dec(amount)}}
}

func dispute(client models.ClientID, tx models.TxID) models.Transaction {
	return models.Transaction{Client: client, Tx: tx, Kind: models.Dispute{}}
}

func resolve(client models.ClientID, tx models.TxID) models.Transaction {
	return models.Transaction{Client: client, Tx: tx, Kind: models.Resolve{}}
}

func chargeback(client models.ClientID, tx models.TxID) models.Transaction {
	return models.Transaction{Client: client, Tx: tx, Kind: models.Chargeback{}}
}

// recordingReporter keeps every rejection in arrival order.
type recordingReporter struct {
	rejected []error
}

func (r *recordingReporter) Skipped(int, error) {}

func (r *recordingReporter) Rejected(_ models.Transaction, err error) {
	r.rejected = append(r.rejected, err)
}

func process(t *testing.T, txs ...models.Transaction) (map[models.ClientID]models.ClientAccount, *recordingReporter) {
	t.Helper()

	reporter := &recordingReporter{}
	l := NewLedger(memory.NewMemoryLedgerStore(), reporter)

	return l.Process(slices.Values(txs)), reporter
}

func assertAccount(t *testing.T, got models.ClientAccount, available, held string, locked bool) {
	t.Helper()

	assert.True(t, got.Available.Equal(dec(available)), "available: want %s, got %s", available, got.Available)
	assert.True(t, got.Held.Equal(dec(held)), "held: want %s, got %s", held, got.Held)
	assert.Equal(t, locked, got.Locked, "locked")
	assert.True(t, got.Total().Equal(got.Available.Add(got.Held)))
}

func assertRejections(t *testing.T, reporter *recordingReporter, want ...error) {
	t.Helper()

	require.Len(t, reporter.rejected, len(want))
	for i, err := range reporter.rejected {
		assert.ErrorIs(t, err, want[i], "rejection %d", i)

		var rejection *RejectionError
		assert.True(t, errors.As(err, &rejection), "rejection %d is %T", i, err)
	}
}

// ---------------------------------------------------------------------------
// Deposits and withdrawals
// ---------------------------------------------------------------------------

func TestProcess_DepositAndWithdrawal(t *testing.T) {
	t.Parallel()

	clients, reporter := process(t,
		deposit(3, 2, "2.3456"),
		deposit(1, 1, "10.3"),
		deposit(3, 5, "0.0001"),
		withdrawal(3, 4, "1.1"),
		withdrawal(3, 6, "100.1"),
	)

	require.Len(t, clients, 2)
	assertAccount(t, clients[3], "1.2457", "0", false)
	assertAccount(t, clients[1], "10.3", "0", false)
	assertRejections(t, reporter, ErrInsufficientFunds)
}

func TestProcess_DepositsSumExactly(t *testing.T) {
	t.Parallel()

	amounts := []string{"0.1", "0.2", "0.0003", "1234.5678", "0.0001", "99.9999"}
	txs := make([]models.Transaction, 0, len(amounts))
	want := decimal.Zero

	for i, amount := range amounts {
		txs = append(txs, deposit(9, models.TxID(i+1), amount))
		want = want.Add(dec(amount))
	}

	clients, reporter := process(t, txs...)

	assertAccount(t, clients[9], "1334.8681", "0", false)
	assert.True(t, clients[9].Available.Equal(want))
	assert.Empty(t, reporter.rejected)
}

func TestApply_WithdrawalOverdrawIsNoop(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	l := NewLedger(store, nil)

	require.NoError(t, l.Apply(deposit(1, 1, "5")))
	before := store.Accounts()

	err := l.Apply(withdrawal(1, 2, "5.0001"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, before, store.Accounts())

	require.NoError(t, l.Apply(withdrawal(1, 3, "5")))
	assertAccount(t, store.Accounts()[1], "0", "0", false)
}

func TestApply_WithdrawalIsNotDisputable(t *testing.T) {
	t.Parallel()

	l := NewLedger(memory.NewMemoryLedgerStore(), nil)

	require.NoError(t, l.Apply(deposit(1, 1, "5")))
	require.NoError(t, l.Apply(withdrawal(1, 2, "1")))

	assert.ErrorIs(t, l.Apply(dispute(1, 2)), ErrUnknownTransaction)
}

// ---------------------------------------------------------------------------
// Disputes
// ---------------------------------------------------------------------------

func TestProcess_Dispute(t *testing.T) {
	t.Parallel()

	clients, reporter := process(t,
		deposit(3, 2, "2.3456"),
		withdrawal(3, 4, "2"),
		dispute(4, 2),   // foreign client
		dispute(3, 100), // unknown tx
		dispute(3, 2),   // not enough available left
		deposit(3, 10, "5.4321"),
		dispute(3, 10),
		dispute(3, 10), // already disputed
	)

	require.Len(t, clients, 2)
	assertAccount(t, clients[3], "0.3456", "5.4321", false)
	assertAccount(t, clients[4], "0", "0", false)
	assertRejections(t, reporter,
		ErrClientMismatch,
		ErrUnknownTransaction,
		ErrInsufficientFunds,
		ErrAlreadyDisputed,
	)
}

func TestApply_RejectedDisputeLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tx   models.Transaction
		want error
	}{
		{name: "unknown tx", tx: dispute(1, 99), want: ErrUnknownTransaction},
		{name: "other client", tx: dispute(2, 1), want: ErrClientMismatch},
		{name: "already disputed", tx: dispute(1, 2), want: ErrAlreadyDisputed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := memory.NewMemoryLedgerStore()
			l := NewLedger(store, nil)

			require.NoError(t, l.Apply(deposit(1, 1, "3")))
			require.NoError(t, l.Apply(deposit(1, 2, "4")))
			require.NoError(t, l.Apply(dispute(1, 2)))
			store.Account(2)

			before := store.Accounts()
			record, _ := store.Deposit(1)
			disputedBefore := record.UnderDispute

			assert.ErrorIs(t, l.Apply(tt.tx), tt.want)
			assert.Equal(t, before, store.Accounts())

			record, _ = store.Deposit(1)
			assert.Equal(t, disputedBefore, record.UnderDispute)
		})
	}
}

// ---------------------------------------------------------------------------
// Resolves
// ---------------------------------------------------------------------------

func TestProcess_Resolve(t *testing.T) {
	t.Parallel()

	clients, reporter := process(t,
		deposit(3, 10, "5.4321"),
		resolve(3, 10), // never disputed
		dispute(3, 10),
		resolve(4, 10),  // foreign client
		resolve(3, 200), // unknown tx
		resolve(3, 10),
		resolve(3, 10), // already resolved
	)

	assertAccount(t, clients[3], "5.4321", "0", false)
	assertAccount(t, clients[4], "0", "0", false)
	assertRejections(t, reporter,
		ErrNotDisputed,
		ErrClientMismatch,
		ErrUnknownTransaction,
		ErrNotDisputed,
	)
}

func TestProcess_ResolvedDepositCanBeDisputedAgain(t *testing.T) {
	t.Parallel()

	clients, reporter := process(t,
		deposit(1, 1, "2"),
		dispute(1, 1),
		resolve(1, 1),
		dispute(1, 1),
	)

	assertAccount(t, clients[1], "0", "2", false)
	assert.Empty(t, reporter.rejected)
}

func TestProcess_DisputeResolveThenChargebackIsNoop(t *testing.T) {
	t.Parallel()

	clients, reporter := process(t,
		deposit(3, 10, "5.4321"),
		dispute(3, 10),
	)
	assertAccount(t, clients[3], "0", "5.4321", false)
	assert.Empty(t, reporter.rejected)

	clients, reporter = process(t,
		deposit(3, 10, "5.4321"),
		dispute(3, 10),
		resolve(3, 10),
		chargeback(3, 10),
	)
	assertAccount(t, clients[3], "5.4321", "0", false)
	assertRejections(t, reporter, ErrNotDisputed)
}

// ---------------------------------------------------------------------------
// Chargebacks and locking
// ---------------------------------------------------------------------------

func TestProcess_Chargeback(t *testing.T) {
	t.Parallel()

	clients, reporter := process(t,
		deposit(3, 10, "5.4321"),
		chargeback(3, 10), // not disputed
		dispute(3, 10),
		chargeback(4, 10), // foreign client
		chargeback(3, 11), // unknown tx
		chargeback(3, 10),
		deposit(3, 11, "5"),
		dispute(3, 10),
	)

	require.Len(t, clients, 2)
	assertAccount(t, clients[3], "0", "0", true)
	assertAccount(t, clients[4], "0", "0", false)
	assertRejections(t, reporter,
		ErrNotDisputed,
		ErrClientMismatch,
		ErrUnknownTransaction,
		ErrAccountLocked,
		ErrAccountLocked,
	)
}

func TestApply_LockedAccountIgnoresEveryKind(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	l := NewLedger(store, nil)

	require.NoError(t, l.Apply(deposit(1, 1, "10")))
	require.NoError(t, l.Apply(deposit(1, 2, "4")))
	require.NoError(t, l.Apply(dispute(1, 1)))
	require.NoError(t, l.Apply(dispute(1, 2)))
	require.NoError(t, l.Apply(chargeback(1, 1)))

	assertAccount(t, store.Accounts()[1], "0", "4", true)

	_, exists := store.Deposit(1)
	assert.False(t, exists, "charged back deposit must be removed")

	before := store.Accounts()
	for _, tx := range []models.Transaction{
		deposit(1, 3, "1"),
		withdrawal(1, 4, "1"),
		dispute(1, 2),
		resolve(1, 2),
		chargeback(1, 2),
	} {
		assert.ErrorIs(t, l.Apply(tx), ErrAccountLocked, tx.String())
	}

	assert.Equal(t, before, store.Accounts())

	record, exists := store.Deposit(2)
	require.True(t, exists)
	assert.True(t, record.UnderDispute)
}

func TestApply_LockOnlyAffectsChargedBackClient(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	l := NewLedger(store, nil)

	require.NoError(t, l.Apply(deposit(1, 1, "1")))
	require.NoError(t, l.Apply(deposit(2, 2, "1")))
	require.NoError(t, l.Apply(dispute(1, 1)))
	require.NoError(t, l.Apply(chargeback(1, 1)))
	require.NoError(t, l.Apply(withdrawal(2, 3, "0.5")))

	assertAccount(t, store.Accounts()[2], "0.5", "0", false)
}

// ---------------------------------------------------------------------------
// Duplicate ids and invariants
// ---------------------------------------------------------------------------

func TestApply_DuplicateDepositIDLastWriteWins(t *testing.T) {
	t.Parallel()

	store := memory.NewMemoryLedgerStore()
	l := NewLedger(store, nil)

	require.NoError(t, l.Apply(deposit(1, 1, "1")))
	require.NoError(t, l.Apply(deposit(1, 1, "2")))
	require.NoError(t, l.Apply(dispute(1, 1)))

	assertAccount(t, store.Accounts()[1], "1", "2", false)
}

func TestApply_BalancesNeverNegative(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	l := NewLedger(memory.NewMemoryLedgerStore(), reporter)

	clients := l.Process(slices.Values([]models.Transaction{
		deposit(1, 1, "3"),
		withdrawal(1, 2, "2"),
		dispute(1, 1),
		deposit(1, 3, "2"),
		dispute(1, 1),
		chargeback(1, 1),
		withdrawal(1, 4, "1"),
	}))

	for client, account := range clients {
		assert.False(t, account.Available.IsNegative(), "client %d", client)
		assert.False(t, account.Held.IsNegative(), "client %d", client)
	}
	assertAccount(t, clients[1], "0", "0", true)
	assertRejections(t, reporter, ErrInsufficientFunds, ErrAccountLocked)
}

func TestRejectionError_Message(t *testing.T) {
	t.Parallel()

	err := reject(withdrawal(2, 7, "1.5"), ErrInsufficientFunds)

	assert.Equal(t, "withdrawal(1.5) client=2 tx=7 ignored: insufficient available funds", err.Error())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}
