package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClientID identifies the owner of an account.
type ClientID uint16

// TxID identifies a deposit or withdrawal. Disputes, resolves and
// chargebacks reuse the id of the deposit they refer to.
type TxID uint32

// Transaction is a validated record ready to be applied to the ledger.
type Transaction struct {
	Client ClientID
	Tx     TxID
	Kind   Kind
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s client=%d tx=%d", t.Kind, t.Client, t.Tx)
}

// Kind is the closed set of transaction types. Only the types in this
// package implement it.
type Kind interface {
	fmt.Stringer
	isKind()
}

// Deposit credits the client's available funds.
type Deposit struct {
	Amount decimal.Decimal
}

// Withdrawal debits the client's available funds.
type Withdrawal struct {
	Amount decimal.Decimal
}

// Dispute claims an earlier deposit was erroneous and holds its amount.
type Dispute struct{}

// Resolve releases a held dispute back to available funds.
type Resolve struct{}

// Chargeback finalizes a dispute, removing the held funds and locking the account.
type Chargeback struct{}

func (Deposit) isKind()    {}
func (Withdrawal) isKind() {}
func (Dispute) isKind()    {}
func (Resolve) isKind()    {}
func (Chargeback) isKind() {}

func (k Deposit) String() string    { return "deposit(" + k.Amount.String() + ")" }
func (k Withdrawal) String() string { return "withdrawal(" + k.Amount.String() + ")" }
func (Dispute) String() string      { return "dispute" }
func (Resolve) String() string      { return "resolve" }
func (Chargeback) String() string   { return "chargeback" }
