package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientStateReported carries the final state of one client at the end of a run.
type ClientStateReported struct {
	RunID      string          `json:"run_id"`
	Client     uint16          `json:"client"`
	Available  decimal.Decimal `json:"available"`
	Held       decimal.Decimal `json:"held"`
	Total      decimal.Decimal `json:"total"`
	Locked     bool            `json:"locked"`
	OccurredAt time.Time       `json:"occurred_at"`
}
