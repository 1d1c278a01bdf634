package sheets

import (
	"context"

	"smartsave/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter mirrors stored transactions to a spreadsheet.
	// Appending the same transaction twice must not duplicate its row.
	TransactionWriter interface {
		AppendTransactions(ctx context.Context, txs []core.Transaction) (appended int, err error)
	}

	// TransactionLister reads back the mirrored rows for a year.
	TransactionLister interface {
		ListTransactions(ctx context.Context, year int) ([]core.Transaction, error)
	}
)
