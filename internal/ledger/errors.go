package ledger

import (
	"errors"
	"fmt"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

var (
	ErrAccountLocked      = errors.New("account is locked")
	ErrInsufficientFunds  = errors.New("insufficient available funds")
	ErrUnknownTransaction = errors.New("no deposit found for tx")
	ErrAlreadyDisputed    = errors.New("deposit is already under dispute")
	ErrNotDisputed        = errors.New("deposit is not under dispute")
	ErrClientMismatch     = errors.New("deposit belongs to another client")
	ErrInvariantViolation = errors.New("balance would become negative")
)

// RejectionError is returned for a transaction the ledger ignored.
// The account and deposit tables are unchanged when it is returned.
type RejectionError struct {
	Transaction models.Transaction
	Reason      error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s ignored: %v", e.Transaction, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

func reject(tx models.Transaction, reason error) error {
	return &RejectionError{Transaction: tx, Reason: reason}
}
