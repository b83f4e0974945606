package interfaces

import "github.com/sheikh-saqib/payments-engine/internal/models"

// Reporter receives diagnostics for records that were skipped.
type Reporter interface {
	// Skipped reports a record that failed before it became a transaction.
	Skipped(line int, err error)
	// Rejected reports a valid transaction the ledger refused to apply.
	Rejected(tx models.Transaction, err error)
}

