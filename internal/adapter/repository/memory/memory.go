// Package memory provides in-memory repository implementations. They are the
// default backend and the backing store used by tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"budgetpulse/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// TransactionStore is a mutex-guarded in-memory transaction repository.
type TransactionStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]domain.Transaction
}

// NewTransactionStore creates an empty in-memory transaction repository.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{rows: make(map[uuid.UUID]domain.Transaction)}
}

// List returns a snapshot copy ordered by date ascending.
func (s *TransactionStore) List(_ context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.rows))
	for _, tx := range s.rows {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *TransactionStore) Add(_ context.Context, tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[tx.ID] = tx
	return nil
}

func (s *TransactionStore) Update(_ context.Context, tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[tx.ID]; !ok {
		return ErrNotFound
	}
	s.rows[tx.ID] = tx
	return nil
}

func (s *TransactionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

// BudgetStore is a mutex-guarded in-memory budget repository.
type BudgetStore struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]domain.Budget
}

// NewBudgetStore creates an empty in-memory budget repository.
func NewBudgetStore() *BudgetStore {
	return &BudgetStore{rows: make(map[uuid.UUID]domain.Budget)}
}

// List returns a snapshot copy ordered by creation time ascending.
func (s *BudgetStore) List(_ context.Context) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Budget, 0, len(s.rows))
	for _, b := range s.rows {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *BudgetStore) Add(_ context.Context, b domain.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.ID] = b
	return nil
}

func (s *BudgetStore) Update(_ context.Context, b domain.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[b.ID]; !ok {
		return ErrNotFound
	}
	s.rows[b.ID] = b
	return nil
}

func (s *BudgetStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrNotFound
	}
	delete(s.rows, id)
	return nil
}
