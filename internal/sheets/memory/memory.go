// Package memory provides an in-memory TransactionAppender used by tests
// and local runs without Google credentials.
package memory

import (
	"context"
	"errors"
	"sync"

	"finbook/internal/core"
	ports "finbook/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	fail  error
}

var _ ports.TransactionAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// FailWith makes every subsequent append return err. Pass nil to clear.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Store) AppendTransaction(_ context.Context, tx *core.Transaction) error {
	if tx == nil {
		return errors.New("nil transaction")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.items = append(s.items, *tx)
	return nil
}

// Appended returns a copy of everything stored so far.
func (s *Store) Appended() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}
