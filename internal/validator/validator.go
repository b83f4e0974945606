// Package validator turns decoded input records into ledger transactions.
//
// Amounts are rounded to four decimal places using round-half-to-even
// (banker's rounding) before they are checked for positivity, so an amount
// that rounds to zero is rejected.
package validator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/records"
)

// AmountPlaces is the number of decimal places kept on every amount.
const AmountPlaces = 4

// Record type tags accepted on input.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeDispute    = "dispute"
	TypeResolve    = "resolve"
	TypeChargeback = "chargeback"
)

// ErrorCode classifies a validation failure.
type ErrorCode string

const (
	// CodeUnknownRecordType indicates the type tag is not one of the known kinds.
	CodeUnknownRecordType ErrorCode = "UnknownRecordType"
	// CodeMissingAmount indicates a deposit or withdrawal without an amount.
	CodeMissingAmount ErrorCode = "MissingAmount"
	// CodeInvalidAmount indicates a zero or negative amount after rounding.
	CodeInvalidAmount ErrorCode = "InvalidAmount"
)

// ValidationError is a structured validation failure.
type ValidationError struct {
	Code    ErrorCode
	Line    int
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("line %d: %s: %s (%s)", e.Line, e.Code, e.Message, e.Field)
}

// Is matches another ValidationError with the same code, so callers can
// compare against a bare ValidationError{Code: ...}.
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	return ok && t.Code == e.Code
}

// Validate converts rec into a Transaction. It has no side effects.
func Validate(rec records.Record) (models.Transaction, error) {
	tx := models.Transaction{
		Client: models.ClientID(rec.Client),
		Tx:     models.TxID(rec.Tx),
	}

	switch strings.TrimSpace(rec.Type) {
	case TypeDeposit:
		amount, err := validAmount(rec)
		if err != nil {
			return models.Transaction{}, err
		}

		tx.Kind = models.Deposit{Amount: amount}
	case TypeWithdrawal:
		amount, err := validAmount(rec)
		if err != nil {
			return models.Transaction{}, err
		}

		tx.Kind = models.Withdrawal{Amount: amount}
	case TypeDispute:
		tx.Kind = models.Dispute{}
	case TypeResolve:
		tx.Kind = models.Resolve{}
	case TypeChargeback:
		tx.Kind = models.Chargeback{}
	default:
		return models.Transaction{}, ValidationError{
			Code:    CodeUnknownRecordType,
			Line:    rec.Line,
			Field:   "type",
			Message: fmt.Sprintf("unknown record type %q", rec.Type),
		}
	}

	return tx, nil
}

func validAmount(rec records.Record) (decimal.Decimal, error) {
	if !rec.Amount.Valid {
		return decimal.Decimal{}, ValidationError{
			Code:    CodeMissingAmount,
			Line:    rec.Line,
			Field:   "amount",
			Message: rec.Type + " requires an amount",
		}
	}

	amount := rec.Amount.Decimal.RoundBank(AmountPlaces)
	if !amount.IsPositive() {
		return decimal.Decimal{}, ValidationError{
			Code:    CodeInvalidAmount,
			Line:    rec.Line,
			Field:   "amount",
			Message: fmt.Sprintf("amount %s must be greater than zero", rec.Amount.Decimal),
		}
	}

	return amount, nil
}
