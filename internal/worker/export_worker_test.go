package worker

import (
	"context"
	"errors"
	"testing"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/sheets/memory"
)

type fakeExportStore struct {
	txs          map[int64]core.Transaction
	exported     []int64
	exportErrors []int64
	listErr      error
}

func newFakeExportStore(txs ...core.Transaction) *fakeExportStore {
	f := &fakeExportStore{txs: make(map[int64]core.Transaction)}
	for _, tx := range txs {
		f.txs[tx.ID] = tx
	}
	return f
}

func (f *fakeExportStore) GetTransactionByID(_ context.Context, id int64) (core.Transaction, error) {
	tx, ok := f.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (f *fakeExportStore) UnexportedTransactions(_ context.Context, limit int) ([]int64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []int64
	for id := range f.txs {
		ids = append(ids, id)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeExportStore) MarkExported(_ context.Context, id int64) error {
	f.exported = append(f.exported, id)
	return nil
}

func (f *fakeExportStore) MarkExportError(_ context.Context, id int64) error {
	f.exportErrors = append(f.exportErrors, id)
	return nil
}

func sampleTx(id int64) core.Transaction {
	return core.Transaction{
		ID:          id,
		AccountID:   1,
		Type:        core.TransactionExpense,
		Amount:      core.Money{Cents: 1250},
		Date:        core.NewDate(2025, 6, 1),
		Description: "coffee",
		AccountName: "Wallet",
	}
}

func TestHandleExportMessage(t *testing.T) {
	store := newFakeExportStore(sampleTx(1))
	sink := memory.New()
	w := NewExportWorker(store, sink, 25)

	msg := amqp.NewTransactionExportMessage(1)
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	if got := sink.Appended(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected transaction 1 appended, got %+v", got)
	}
	if len(store.exported) != 1 || store.exported[0] != 1 {
		t.Fatalf("expected transaction 1 marked exported, got %v", store.exported)
	}
}

func TestHandleExportMessageMissingTransaction(t *testing.T) {
	store := newFakeExportStore()
	w := NewExportWorker(store, memory.New(), 25)

	// Deleted between publish and consume: the message is dropped, not requeued.
	if err := w.HandleExportMessage(context.Background(), amqp.NewTransactionExportMessage(99)); err != nil {
		t.Fatalf("expected nil for missing transaction, got %v", err)
	}
	if len(store.exported) != 0 {
		t.Fatalf("nothing should be marked exported")
	}
}

func TestHandleExportMessageAppendFailure(t *testing.T) {
	store := newFakeExportStore(sampleTx(1))
	sink := memory.New()
	sink.FailWith(errors.New("quota exceeded"))
	w := NewExportWorker(store, sink, 25)

	err := w.HandleExportMessage(context.Background(), amqp.NewTransactionExportMessage(1))
	if err == nil {
		t.Fatalf("expected error when append fails")
	}
	if len(store.exportErrors) != 1 || store.exportErrors[0] != 1 {
		t.Fatalf("expected export error recorded for 1, got %v", store.exportErrors)
	}
	if len(store.exported) != 0 {
		t.Fatalf("failed export must not be marked exported")
	}
}

func TestHandleExportMessageNil(t *testing.T) {
	w := NewExportWorker(newFakeExportStore(), memory.New(), 25)
	if err := w.HandleExportMessage(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil message")
	}
}

func TestProcessUnexported(t *testing.T) {
	store := newFakeExportStore(sampleTx(1), sampleTx(2), sampleTx(3))
	sink := memory.New()
	w := NewExportWorker(store, sink, 25)

	n, err := w.ProcessUnexported(context.Background())
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 exported, got %d", n)
	}
	if len(sink.Appended()) != 3 {
		t.Fatalf("expected 3 rows in sink, got %d", len(sink.Appended()))
	}
}

func TestProcessUnexportedContinuesAfterFailure(t *testing.T) {
	store := newFakeExportStore(sampleTx(1), sampleTx(2))
	sink := memory.New()
	sink.FailWith(errors.New("offline"))
	w := NewExportWorker(store, sink, 25)

	n, err := w.ProcessUnexported(context.Background())
	if err != nil {
		t.Fatalf("per-row failures should not abort the batch, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 exported, got %d", n)
	}
	if len(store.exportErrors) != 2 {
		t.Fatalf("expected 2 export errors recorded, got %d", len(store.exportErrors))
	}
}

func TestProcessUnexportedListError(t *testing.T) {
	store := newFakeExportStore()
	store.listErr = errors.New("db locked")
	w := NewExportWorker(store, memory.New(), 25)

	if _, err := w.ProcessUnexported(context.Background()); err == nil {
		t.Fatalf("expected error when listing fails")
	}
}
