// Package logging builds the zap logger used for diagnostics and adapts it
// to the ledger's Reporter interface.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// New returns a console logger writing to stderr at the given level.
// Stdout is reserved for the CSV output.
func New(level string) (*zap.Logger, error) {
	return NewWithSink(level, zapcore.Lock(os.Stderr))
}

// NewWithSink is like New but writes to sink.
func NewWithSink(level string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), sink, lvl)

	return zap.New(core), nil
}

// Reporter logs skipped records and rejected transactions at warn level.
type Reporter struct {
	logger *zap.Logger
}

// NewReporter returns a Reporter writing to logger. A nil logger discards everything.
func NewReporter(logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reporter{logger: logger}
}

func (r *Reporter) Skipped(line int, err error) {
	r.logger.Warn("record skipped", zap.Int("line", line), zap.Error(err))
}

func (r *Reporter) Rejected(tx models.Transaction, err error) {
	r.logger.Warn("transaction ignored",
		zap.Uint16("client", uint16(tx.Client)),
		zap.Uint32("tx", uint32(tx.Tx)),
		zap.Stringer("kind", tx.Kind),
		zap.Error(err),
	)
}

var _ interfaces.Reporter = (*Reporter)(nil)
