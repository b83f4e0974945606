package memory

import (
	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces" // interface LedgerStore
	"github.com/sheikh-saqib/payments-engine/internal/models"                // domain models: ClientAccount, DepositRecord
)

// MemoryLedgerStore is an in-memory implementation of interfaces.LedgerStore.
// It belongs to a single run and is not safe for concurrent use.
type MemoryLedgerStore struct {
	accounts map[models.ClientID]*models.ClientAccount // one entry per client seen
	deposits map[models.TxID]*models.DepositRecord     // one entry per deposit not charged back
}

// NewMemoryLedgerStore creates and returns a new MemoryLedgerStore instance
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts: make(map[models.ClientID]*models.ClientAccount),
		deposits: make(map[models.TxID]*models.DepositRecord),
	}
}

// Account returns the live account for client, creating a zero one if needed.
// Changes made through the returned pointer are kept by the store.
func (m *MemoryLedgerStore) Account(client models.ClientID) *models.ClientAccount {
	account, exists := m.accounts[client]
	if !exists {
		account = &models.ClientAccount{}
		m.accounts[client] = account
	}
	return account
}

// Accounts returns a copy of every account so callers can't modify internal state.
func (m *MemoryLedgerStore) Accounts() map[models.ClientID]models.ClientAccount {
	copied := make(map[models.ClientID]models.ClientAccount, len(m.accounts))
	for client, account := range m.accounts {
		copied[client] = *account
	}
	return copied
}

func (m *MemoryLedgerStore) Deposit(tx models.TxID) (*models.DepositRecord, bool) {
	record, exists := m.deposits[tx]
	return record, exists
}

// SaveDeposit stores record under tx, replacing any earlier deposit with the same id.
func (m *MemoryLedgerStore) SaveDeposit(tx models.TxID, record models.DepositRecord) {
	m.deposits[tx] = &record
}

func (m *MemoryLedgerStore) DeleteDeposit(tx models.TxID) {
	delete(m.deposits, tx)
}

// Compile-time check: ensure MemoryLedgerStore implements LedgerStore interface
var _ interfaces.LedgerStore = (*MemoryLedgerStore)(nil)
