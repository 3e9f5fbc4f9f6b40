package sheets

import (
	"context"

	"worklife/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter mirrors ledger entries into an external spreadsheet.
	TransactionExporter interface {
		// Export writes one row for t and returns a reference to it.
		Export(ctx context.Context, t core.Transaction) (rowRef string, err error)
		// Remove clears the row previously returned by Export.
		Remove(ctx context.Context, rowRef string) error
	}

	// OverviewReader rebuilds a month overview from exported rows, so the
	// spreadsheet can be checked against the local ledger.
	OverviewReader interface {
		ReadMonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error)
	}
)
