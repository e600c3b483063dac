package domain

import (
	"context"

	"github.com/google/uuid"
)

// TransactionRepository defines the interface for transaction persistence operations.
// List returns a snapshot copy ordered by date ascending; callers own the slice
// and may read it without further synchronization.
type TransactionRepository interface {
	// List retrieves a snapshot of all transactions ordered by date ascending
	List(ctx context.Context) ([]Transaction, error)

	// Add stores a new transaction
	Add(ctx context.Context, tx Transaction) error

	// Update replaces the stored transaction with the same ID
	Update(ctx context.Context, tx Transaction) error

	// Delete removes the transaction with the given ID
	Delete(ctx context.Context, id uuid.UUID) error
}

// BudgetRepository defines the interface for budget persistence operations.
type BudgetRepository interface {
	// List retrieves a snapshot of all budgets ordered by creation time ascending
	List(ctx context.Context) ([]Budget, error)

	// Add stores a new budget
	Add(ctx context.Context, b Budget) error

	// Update replaces the stored budget with the same ID
	Update(ctx context.Context, b Budget) error

	// Delete removes the budget with the given ID
	Delete(ctx context.Context, id uuid.UUID) error
}
