package interfaces

import (
	"context"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// ReportStore saves the final account rows of a run.
type ReportStore interface {
	SaveRun(ctx context.Context, runID string, accounts map[models.ClientID]models.ClientAccount) error
}
