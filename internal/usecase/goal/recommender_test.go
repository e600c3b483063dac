package goal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
)

type notifierRecorder struct {
	requests []notify.Request
}

func (r *notifierRecorder) Notify(_ context.Context, req notify.Request) error {
	r.requests = append(r.requests, req)
	return nil
}

var testNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func txn(amount float64, category string, txType domain.TransactionType, daysAgo int) domain.Transaction {
	tx := domain.NewTransaction(decimal.NewFromFloat(amount), "entry", category, txType)
	tx.Date = testNow.AddDate(0, 0, -daysAgo)
	return tx
}

func findByType(goals []Recommendation, goalType Type) (Recommendation, bool) {
	for _, g := range goals {
		if g.Type == goalType {
			return g, true
		}
	}
	return Recommendation{}, false
}

func TestRecommendHealthySaverSkipsSavingsRateGoal(t *testing.T) {
	recorder := &notifierRecorder{}
	r := NewRecommender(recorder, log.Discard()).WithClock(fixedClock)

	txns := []domain.Transaction{
		txn(4000, "Income", domain.TypeIncome, 20),
		txn(3000, "Housing", domain.TypeExpense, 10),
	}

	goals := r.Recommend(context.Background(), txns)

	_, hasRateGoal := findByType(goals, SavingsRate)
	assert.False(t, hasRateGoal, "a 25 percent savings rate already beats the target")

	fund, ok := findByType(goals, EmergencyFund)
	require.True(t, ok)
	assert.InDelta(t, 18000.0, fund.TargetAmount, 0.001, "6x monthly expenses")
	assert.Equal(t, 18, fund.TimeframeMonths)
	assert.Equal(t, PriorityHigh, fund.Priority)

	var keys []string
	for _, req := range recorder.requests {
		keys = append(keys, req.DedupeKey)
	}
	assert.Contains(t, keys, "goal:opportunity")
	assert.Contains(t, keys, "goal:emergency_fund")
}

func TestRecommendLowSavingsRate(t *testing.T) {
	r := NewRecommender(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	txns := []domain.Transaction{
		txn(1000, "Income", domain.TypeIncome, 20),
		txn(950, "Housing", domain.TypeExpense, 10),
	}

	goals := r.Recommend(context.Background(), txns)

	rate, ok := findByType(goals, SavingsRate)
	require.True(t, ok)
	assert.Equal(t, PriorityMedium, rate.Priority)
	assert.Equal(t, 3, rate.TimeframeMonths)
	assert.Contains(t, rate.Title, "10%", "5 percentage points above the current 5%")
}

func TestRecommendSpendingReduction(t *testing.T) {
	r := NewRecommender(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	txns := []domain.Transaction{
		txn(5000, "Income", domain.TypeIncome, 20),
		txn(1000, "Shopping", domain.TypeExpense, 15),
		txn(150, "Pets", domain.TypeExpense, 10),
	}

	goals := r.Recommend(context.Background(), txns)

	var reductions []Recommendation
	for _, g := range goals {
		if g.Type == SpendingReduction {
			reductions = append(reductions, g)
		}
	}
	require.Len(t, reductions, 1, "only spend above $200 qualifies")
	assert.Equal(t, "Reduce Shopping Spending", reductions[0].Title)
	assert.InDelta(t, 150.0, reductions[0].TargetAmount, 0.001, "15 percent of 1000")
	assert.Equal(t, 2, reductions[0].TimeframeMonths)
}

func TestRecommendCategoryOptimizations(t *testing.T) {
	r := NewRecommender(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	txns := []domain.Transaction{
		txn(5000, "Income", domain.TypeIncome, 20),
		txn(500, "Food & Dining", domain.TypeExpense, 15),
		txn(350, "Transportation", domain.TypeExpense, 12),
		txn(150, "Entertainment", domain.TypeExpense, 8),
	}

	goals := r.Recommend(context.Background(), txns)

	var optimizations []Recommendation
	for _, g := range goals {
		if g.Type == CategoryOptimization {
			optimizations = append(optimizations, g)
		}
	}
	require.Len(t, optimizations, 2, "entertainment at $150 is under its $200 threshold")
	assert.Equal(t, "Optimize Food Spending", optimizations[0].Title)
	assert.InDelta(t, 100.0, optimizations[0].TargetAmount, 0.001)
	assert.Equal(t, "Optimize Transportation", optimizations[1].Title)
	assert.InDelta(t, 52.5, optimizations[1].TargetAmount, 0.001)
}

func TestRecommendIgnoresOldTransactions(t *testing.T) {
	r := NewRecommender(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	txns := []domain.Transaction{
		txn(4000, "Income", domain.TypeIncome, 45),
		txn(3000, "Housing", domain.TypeExpense, 40),
	}

	goals := r.Recommend(context.Background(), txns)

	_, hasFund := findByType(goals, EmergencyFund)
	assert.False(t, hasFund, "no savings inside the window")
	_, hasReduction := findByType(goals, SpendingReduction)
	assert.False(t, hasReduction, "housing spend falls outside the window")
}
