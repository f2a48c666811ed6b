package export

import (
	"context"

	"tally/internal/core"
)

// RecordWriter is the outbound port for pushing ledger records to an
// external sink, one row per record.
type RecordWriter interface {
	Append(ctx context.Context, rec core.Record) (rowRef string, err error)
}
