package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// OutputHeader is the header row written before the account rows.
var OutputHeader = []string{"client", "available", "held", "total", "locked"}

// WriteAccounts writes one row per client, ordered by client id.
func WriteAccounts(w io.Writer, accounts map[models.ClientID]models.ClientAccount) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(OutputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(OutputHeader))
	for _, client := range slices.Sorted(maps.Keys(accounts)) {
		account := accounts[client]

		row[0] = strconv.FormatUint(uint64(client), 10)
		row[1] = account.Available.String()
		row[2] = account.Held.String()
		row[3] = account.Total().String()
		row[4] = strconv.FormatBool(account.Locked)

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write client %d: %w", client, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
