package interfaces

import (
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// LedgerStore holds the per-client and per-deposit tables of one run.
type LedgerStore interface {
	// Account returns the account for client, creating an empty one on first use.
	Account(client models.ClientID) *models.ClientAccount
	Accounts() map[models.ClientID]models.ClientAccount

	Deposit(tx models.TxID) (*models.DepositRecord, bool)
	SaveDeposit(tx models.TxID, record models.DepositRecord)
	DeleteDeposit(tx models.TxID)
}
