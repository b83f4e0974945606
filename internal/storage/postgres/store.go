package postgres

import (
	"context"
	"database/sql"
	"maps"
	"slices"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces" // interface ReportStore
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// Schema creates the table the report store writes to.
const Schema = `CREATE TABLE IF NOT EXISTS client_states (
	run_id     TEXT        NOT NULL,
	client     INTEGER     NOT NULL,
	available  NUMERIC     NOT NULL,
	held       NUMERIC     NOT NULL,
	total      NUMERIC     NOT NULL,
	locked     BOOLEAN     NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, client)
)`

// PostgresReportStore records the final client states of each run.
// Rows are only ever inserted; nothing is read back into a later run.
type PostgresReportStore struct {
	db *sql.DB
}

func NewPostgresReportStore(db *sql.DB) *PostgresReportStore {
	return &PostgresReportStore{
		db: db,
	}
}

// EnsureSchema creates the client_states table if it is missing.
func (p *PostgresReportStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, Schema)
	return err
}

// SaveRun inserts one row per client inside a single SQL transaction.
func (p *PostgresReportStore) SaveRun(ctx context.Context, runID string, accounts map[models.ClientID]models.ClientAccount) (err error) {
	const query = `INSERT INTO client_states (run_id, client, available, held, total, locked)
	VALUES ($1,$2,$3,$4,$5,$6)`

	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	stmt, err := dbTx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, client := range slices.Sorted(maps.Keys(accounts)) {
		account := accounts[client]

		_, err = stmt.ExecContext(ctx,
			runID,
			int(client),
			account.Available.String(),
			account.Held.String(),
			account.Total().String(),
			account.Locked,
		)
		if err != nil {
			return err
		}
	}

	return dbTx.Commit()
}

var _ interfaces.ReportStore = (*PostgresReportStore)(nil)
