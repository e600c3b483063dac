package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetpulse/internal/domain"
)

func TestTransactionStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	tx := domain.NewTransaction(decimal.NewFromFloat(25.50), "Lunch", "Food & Dining", domain.TypeExpense)
	require.NoError(t, store.Add(ctx, tx))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(decimal.NewFromFloat(25.50)))

	updated := tx.WithDescription("Team lunch")
	require.NoError(t, store.Update(ctx, updated))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", list[0].Description)

	require.NoError(t, store.Delete(ctx, tx.ID))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTransactionStoreListOrdersByDate(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	newest := domain.NewTransaction(decimal.NewFromInt(30), "c", "Shopping", domain.TypeExpense)
	middle := domain.NewTransaction(decimal.NewFromInt(20), "b", "Shopping", domain.TypeExpense)
	oldest := domain.NewTransaction(decimal.NewFromInt(10), "a", "Shopping", domain.TypeExpense)
	oldest.Date = time.Now().AddDate(0, 0, -2)
	middle.Date = time.Now().AddDate(0, 0, -1)

	for _, tx := range []domain.Transaction{newest, oldest, middle} {
		require.NoError(t, store.Add(ctx, tx))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].Description)
	assert.Equal(t, "b", list[1].Description)
	assert.Equal(t, "c", list[2].Description)
}

func TestTransactionStoreListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	tx := domain.NewTransaction(decimal.NewFromInt(10), "Lunch", "Food & Dining", domain.TypeExpense)
	require.NoError(t, store.Add(ctx, tx))

	list, err := store.List(ctx)
	require.NoError(t, err)
	list[0].Description = "mutated"

	fresh, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", fresh[0].Description)
}

func TestTransactionStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	missing := domain.NewTransaction(decimal.NewFromInt(10), "Lunch", "Food & Dining", domain.TypeExpense)
	assert.ErrorIs(t, store.Update(ctx, missing), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, uuid.New()), ErrNotFound)

	invalid := missing.WithAmount(decimal.NewFromInt(-1))
	assert.ErrorIs(t, store.Add(ctx, invalid), domain.ErrNegativeAmount)
}

func TestBudgetStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewBudgetStore()

	b := domain.NewBudget("Food & Dining", decimal.NewFromInt(500), domain.PeriodMonthly)
	require.NoError(t, store.Add(ctx, b))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, store.Update(ctx, b.WithActive(false)))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.False(t, list[0].Active)

	require.NoError(t, store.Delete(ctx, b.ID))
	list, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBudgetStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewBudgetStore()

	missing := domain.NewBudget("Shopping", decimal.NewFromInt(100), domain.PeriodWeekly)
	assert.ErrorIs(t, store.Update(ctx, missing), ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, uuid.New()), ErrNotFound)
}
