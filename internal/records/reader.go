// Package records decodes transaction rows from CSV and encodes account rows back to CSV.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// InputHeader is the header row expected on transaction input.
var InputHeader = []string{"type", "client", "tx", "amount"}

// Record is one decoded input row. Amount is only Valid when the column was non-empty.
type Record struct {
	Line   int
	Type   string
	Client uint16
	Tx     uint32
	Amount decimal.NullDecimal
}

// ParseError describes a row that could not be decoded.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}

	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrBadHeader is returned when the first row is not InputHeader, with or
// without its trailing amount column.
var ErrBadHeader = errors.New("unexpected header")

// byteOrderMark is written by some spreadsheet exports before the header.
const byteOrderMark = "\ufeff"

// Reader decodes transaction rows lazily from an io.Reader.
type Reader struct {
	csv *csv.Reader
	err error
}

// NewReader returns a Reader over r. Fields are trimmed and rows may omit
// the trailing amount column.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Reader{csv: cr}
}

// All yields every row after the header. A row that fails to decode is
// yielded with a *ParseError and reading continues with the next row.
// Errors that stop the stream, including a bad header, end the sequence
// and are returned by Err. Empty input yields nothing and is not an error.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if err := r.readHeader(); err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}

			return
		}

		for {
			fields, err := r.csv.Read()
			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				var perr *csv.ParseError
				if !errors.As(err, &perr) {
					r.err = fmt.Errorf("read input: %w", err)
					return
				}

				if !yield(Record{Line: perr.Line}, &ParseError{Line: perr.Line, Err: perr.Err}) {
					return
				}

				continue
			}

			line, _ := r.csv.FieldPos(0)
			if !yield(decode(line, fields)) {
				return
			}
		}
	}
}

// Err returns the error that stopped the stream, if any.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return io.EOF
	}

	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], byteOrderMark)
	}

	// the amount column may be left out entirely
	if len(header) < 3 || len(header) > len(InputHeader) {
		return fmt.Errorf("%w: %q", ErrBadHeader, header)
	}

	for i, name := range header {
		if strings.TrimSpace(name) != InputHeader[i] {
			return fmt.Errorf("%w: %q", ErrBadHeader, header)
		}
	}

	return nil
}

func decode(line int, fields []string) (Record, error) {
	if len(fields) < 3 || len(fields) > len(InputHeader) {
		return Record{Line: line}, &ParseError{Line: line, Err: fmt.Errorf("expected 3 or 4 fields, got %d", len(fields))}
	}

	rec := Record{Line: line, Type: strings.TrimSpace(fields[0])}

	client, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return Record{Line: line}, &ParseError{Line: line, Field: "client", Err: err}
	}

	rec.Client = uint16(client)

	tx, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return Record{Line: line}, &ParseError{Line: line, Field: "tx", Err: err}
	}

	rec.Tx = uint32(tx)

	if len(fields) == 4 {
		if raw := strings.TrimSpace(fields[3]); raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return Record{Line: line}, &ParseError{Line: line, Field: "amount", Err: err}
			}

			rec.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
	}

	return rec, nil
}
