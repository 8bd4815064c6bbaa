// Package worker contains the background export pipeline that copies
// transactions into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/log"
	"finbook/internal/sheets"
)

// ExportStore is the slice of storage the worker needs.
type ExportStore interface {
	GetTransactionByID(ctx context.Context, id int64) (core.Transaction, error)
	UnexportedTransactions(ctx context.Context, limit int) ([]int64, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// ExportWorker appends transactions to a sheet and records the outcome.
type ExportWorker struct {
	store     ExportStore
	sheet     sheets.TransactionAppender
	batchSize int
	logger    *log.Logger
}

func NewExportWorker(store ExportStore, sheet sheets.TransactionAppender, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 25
	}
	return &ExportWorker{
		store:     store,
		sheet:     sheet,
		batchSize: batchSize,
		logger:    log.ForComponent(log.ComponentWorker),
	}
}

// HandleExportMessage processes one queued export. A transaction deleted
// between publish and consume is not an error.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	if msg == nil {
		return errors.New("nil export message")
	}
	return w.exportOne(ctx, msg.ID)
}

// ProcessUnexported exports one batch of transactions that never made it
// through the queue. Returns the number of rows successfully exported.
func (w *ExportWorker) ProcessUnexported(ctx context.Context) (int, error) {
	ids, err := w.store.UnexportedTransactions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unexported: %w", err)
	}

	exported := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return exported, ctx.Err()
		}
		if err := w.exportOne(ctx, id); err != nil {
			w.logger.ErrorContext(ctx, "Catch-up export failed", log.FieldTxID, id, log.FieldError, err)
			continue
		}
		exported++
	}

	if exported > 0 {
		w.logger.InfoContext(ctx, "Catch-up export batch done",
			"exported", exported, "candidates", len(ids))
	}
	return exported, nil
}

func (w *ExportWorker) exportOne(ctx context.Context, id int64) error {
	tx, err := w.store.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "Transaction gone before export, skipping", log.FieldTxID, id)
			return nil
		}
		return fmt.Errorf("load transaction %d: %w", id, err)
	}

	if err := w.sheet.AppendTransaction(ctx, &tx); err != nil {
		if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to record export error",
				log.FieldTxID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("append transaction %d: %w", id, err)
	}

	if err := w.store.MarkExported(ctx, id); err != nil {
		return fmt.Errorf("mark exported %d: %w", id, err)
	}
	return nil
}
