package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finbook/internal/core"
	"finbook/internal/storage"
)

// Tests run without a broker: publishExportMessage skips when the AMQP
// client is nil, and the worker catches up from the unexported queue.
func newTestService(t *testing.T) (*TransactionService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewTransactionService(repo, nil), repo
}

func seedAccount(t *testing.T, repo *storage.SQLiteRepository) (userID, accountID int64) {
	t.Helper()
	ctx := context.Background()

	userID, err := repo.CreateUser(ctx, core.User{Email: "alice@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	currencies, err := repo.ListCurrencies(ctx)
	if err != nil || len(currencies) == 0 {
		t.Fatalf("list currencies: %v", err)
	}
	accountID, err = repo.CreateAccount(ctx, core.Account{
		UserID:     userID,
		Name:       "Checking",
		Type:       core.AccountBank,
		CurrencyID: currencies[0].ID,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return userID, accountID
}

func TestCreateTransactionWithoutBroker(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	uid, accID := seedAccount(t, repo)

	id, err := svc.CreateTransaction(ctx, uid, core.Transaction{
		AccountID:   accID,
		Type:        core.TransactionExpense,
		Amount:      core.Money{Cents: 1250},
		Date:        core.NewDate(2025, 6, 1),
		Description: "lunch",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tx, err := repo.GetTransaction(ctx, uid, id)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if tx.Amount.Cents != 1250 {
		t.Fatalf("expected 1250 cents, got %d", tx.Amount.Cents)
	}

	// The row still lands in the export catch-up queue.
	ids, err := repo.UnexportedTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("unexported: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expected [%d] queued, got %v", id, ids)
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	uid, accID := seedAccount(t, repo)

	id, err := svc.CreateTransaction(ctx, uid, core.Transaction{
		AccountID: accID,
		Type:      core.TransactionExpense,
		Amount:    core.Money{Cents: 1000},
		Date:      core.NewDate(2025, 6, 1),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.UpdateTransaction(ctx, uid, core.Transaction{
		ID:        id,
		AccountID: accID,
		Type:      core.TransactionExpense,
		Amount:    core.Money{Cents: 2000},
		Date:      core.NewDate(2025, 6, 1),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	a, err := repo.GetAccount(ctx, uid, accID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if a.Balance.Cents != -2000 {
		t.Fatalf("expected balance -2000, got %d", a.Balance.Cents)
	}

	if err := svc.DeleteTransaction(ctx, uid, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, uid, id); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTransactionOwnershipErrors(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	_, accID := seedAccount(t, repo)

	stranger, err := repo.CreateUser(ctx, core.User{Email: "bob@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err = svc.CreateTransaction(ctx, stranger, core.Transaction{
		AccountID: accID,
		Type:      core.TransactionExpense,
		Amount:    core.Money{Cents: 100},
		Date:      core.NewDate(2025, 6, 1),
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign account, got %v", err)
	}
}
