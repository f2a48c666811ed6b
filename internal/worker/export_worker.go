package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
)

// ExportWorker pushes appended ledger records to an external sink. Removal
// messages are acknowledged but not mirrored: the sink is an append-only
// journal, not a replica of the collection.
type ExportWorker struct {
	writer export.RecordWriter
	logger *applog.Logger

	handled atomic.Int64
}

func NewExportWorker(writer export.RecordWriter, logger *applog.Logger) *ExportWorker {
	return &ExportWorker{
		writer: writer,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChangeMessage processes a single ledger change message from AMQP.
func (w *ExportWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	defer w.handled.Add(1)

	switch msg.Kind {
	case amqp.KindAppended:
		if msg.Record == nil {
			return fmt.Errorf("appended message without record payload")
		}
		rec, err := recordFromPayload(msg.Record)
		if err != nil {
			return fmt.Errorf("decode record payload: %w", err)
		}

		ref, err := w.writer.Append(ctx, rec)
		if err != nil {
			return fmt.Errorf("append record to sink: %w", err)
		}

		w.logger.InfoContext(ctx, "Exported record",
			applog.FieldRecordID, rec.ID,
			applog.FieldAmount, rec.Amount.String(),
			"row_ref", ref)
		return nil

	case amqp.KindRemoved:
		w.logger.InfoContext(ctx, "Ledger records removed, sink left as journal",
			"removed", msg.Removed,
			"remaining", msg.Remaining)
		return nil

	default:
		w.logger.WarnContext(ctx, "Ignoring unknown message kind", "kind", msg.Kind)
		return nil
	}
}

// RunIdleLogger periodically reports how many messages this worker has
// handled, so a quiet queue is distinguishable from a dead consumer. It
// blocks until ctx is done.
func (w *ExportWorker) RunIdleLogger(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.logger.InfoContext(ctx, "Export worker alive",
				applog.FieldCount, w.handled.Load())
		}
	}
}

func recordFromPayload(p *amqp.RecordPayload) (core.Record, error) {
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("parse amount %q: %w", p.Amount, err)
	}
	rec := core.Record{
		ID:       p.ID,
		Amount:   amount,
		Category: p.Category,
		At:       p.Date,
	}
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}
