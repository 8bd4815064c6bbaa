// Package sheets defines the port the export worker appends transactions
// through. Implementations live in subpackages.
package sheets

import (
	"context"

	"finbook/internal/core"
)

// TransactionAppender appends a transaction row to a backing sheet.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, tx *core.Transaction) error
}
