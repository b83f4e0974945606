// Package pipeline runs one pass of the engine: CSV rows in, client states out.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/ledger"
	"github.com/sheikh-saqib/payments-engine/internal/logging"
	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/models/events"
	"github.com/sheikh-saqib/payments-engine/internal/records"
	"github.com/sheikh-saqib/payments-engine/internal/storage/memory"
	"github.com/sheikh-saqib/payments-engine/internal/validator"
)

// Options wires the collaborators of a run. Only Logger is commonly set;
// everything else is optional.
type Options struct {
	RunID    string
	Logger   *zap.Logger
	Reporter interfaces.Reporter // defaults to a logging.Reporter on Logger

	Publisher   interfaces.EventPublisher // receives one event per client when set
	ReportStore interfaces.ReportStore    // receives the final rows when set

	Now func() time.Time
}

// Summary counts what happened to the input rows of a run.
type Summary struct {
	Rows     int // data rows read, header excluded
	Skipped  int // rows that could not be decoded
	Invalid  int // rows that failed validation
	Applied  int // transactions that changed the ledger
	Rejected int // valid transactions the ledger ignored
	Clients  int
}

// Run reads transactions from in, applies them in order and writes the
// resulting client states to out. Bad rows and ignored transactions are
// reported and skipped; the returned error is only set for failures that
// abort the run, in which case nothing is written to out.
func Run(ctx context.Context, in io.Reader, out io.Writer, opts Options) (Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = logging.NewReporter(logger)
	}

	var (
		summary  Summary
		valid    int
		stopErr  error
		reader   = records.NewReader(in)
		counting = &countingReporter{next: reporter}
	)

	transactions := func(yield func(models.Transaction) bool) {
		for rec, err := range reader.All() {
			if stopErr = ctx.Err(); stopErr != nil {
				return
			}

			summary.Rows++

			if err != nil {
				summary.Skipped++
				reporter.Skipped(rec.Line, err)
				continue
			}

			tx, err := validator.Validate(rec)
			if err != nil {
				summary.Invalid++
				reporter.Skipped(rec.Line, err)
				continue
			}

			valid++
			if !yield(tx) {
				return
			}
		}
	}

	l := ledger.NewLedger(memory.NewMemoryLedgerStore(), counting)
	accounts := l.Process(transactions)

	if stopErr != nil {
		return summary, fmt.Errorf("processing stopped: %w", stopErr)
	}

	if err := reader.Err(); err != nil {
		return summary, fmt.Errorf("read transactions: %w", err)
	}

	summary.Rejected = counting.rejected
	summary.Applied = valid - counting.rejected
	summary.Clients = len(accounts)

	if err := records.WriteAccounts(out, accounts); err != nil {
		return summary, fmt.Errorf("write client states: %w", err)
	}

	logger.Info("run finished",
		zap.Int("rows", summary.Rows),
		zap.Int("skipped", summary.Skipped),
		zap.Int("invalid", summary.Invalid),
		zap.Int("applied", summary.Applied),
		zap.Int("rejected", summary.Rejected),
		zap.Int("clients", summary.Clients),
	)

	export(ctx, logger, opts, accounts)

	return summary, nil
}

// export hands the final states to the optional sinks. The CSV output is
// already complete at this point, so failures are logged and not returned.
func export(ctx context.Context, logger *zap.Logger, opts Options, accounts map[models.ClientID]models.ClientAccount) {
	if opts.ReportStore != nil {
		if err := opts.ReportStore.SaveRun(ctx, opts.RunID, accounts); err != nil {
			logger.Error("save client states", zap.Error(err))
		}
	}

	if opts.Publisher == nil {
		return
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	occurredAt := now().UTC()
	failed := 0

	for _, client := range slices.Sorted(maps.Keys(accounts)) {
		account := accounts[client]

		event := events.ClientStateReported{
			RunID:      opts.RunID,
			Client:     uint16(client),
			Available:  account.Available,
			Held:       account.Held,
			Total:      account.Total(),
			Locked:     account.Locked,
			OccurredAt: occurredAt,
		}

		if err := opts.Publisher.Publish(ctx, strconv.Itoa(int(client)), event); err != nil {
			logger.Error("publish client state", zap.Uint16("client", uint16(client)), zap.Error(err))
			failed++
		}
	}

	if failed > 0 {
		logger.Error("client states not published", zap.Int("failed", failed), zap.Int("clients", len(accounts)))
	}
}

// countingReporter forwards to next and counts rejections.
type countingReporter struct {
	next     interfaces.Reporter
	rejected int
}

func (c *countingReporter) Skipped(line int, err error) {
	c.next.Skipped(line, err)
}

func (c *countingReporter) Rejected(tx models.Transaction, err error) {
	c.rejected++
	c.next.Rejected(tx, err)
}
