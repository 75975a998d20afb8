// Package sheets defines the spreadsheet export ports of the ledger.
package sheets

import (
	"context"

	"finledger/internal/core"
)

// StatementWriter exports the statement of a paid bill.
type StatementWriter interface {
	// WriteStatement appends the statement rows and returns a reference to
	// the written range.
	WriteStatement(ctx context.Context, st core.Statement) (rowRef string, err error)
}
