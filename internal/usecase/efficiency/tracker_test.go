package efficiency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
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

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func monthlyBudget(category string, amount float64, daysElapsed int) domain.Budget {
	start := testNow.AddDate(0, 0, -daysElapsed)
	return domain.Budget{
		ID:           uuid.New(),
		Category:     category,
		BudgetAmount: decimal.NewFromFloat(amount),
		SpentAmount:  decimal.Zero,
		Period:       domain.PeriodMonthly,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 30),
		Active:       true,
		CreatedAt:    start,
		UpdatedAt:    start,
	}
}

func spend(category string, amount float64, daysAgo int) domain.Transaction {
	tx := domain.NewTransaction(decimal.NewFromFloat(amount), "purchase", category, domain.TypeExpense)
	tx.Date = testNow.AddDate(0, 0, -daysAgo)
	return tx
}

func TestAnalyzeOverBudget(t *testing.T) {
	recorder := &notifierRecorder{}
	tr := NewTracker(recorder, log.Discard()).WithClock(fixedClock)

	budgets := []domain.Budget{monthlyBudget("Food & Dining", 300, 10)}
	txns := []domain.Transaction{
		spend("Food & Dining", 250, 8),
		spend("Food & Dining", 150, 3),
	}

	results := tr.Analyze(context.Background(), budgets, txns)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, OverBudget, r.Status)
	assert.InDelta(t, 400.0, r.ActualSpent, 0.001)
	assert.Greater(t, r.PctBudgetUsed, 100.0)
	assert.Contains(t, r.Recommendation, "Budget exceeded")

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, "efficiency:over:Food & Dining", recorder.requests[0].DedupeKey)
	assert.Equal(t, notify.ChannelWarning, recorder.requests[0].Channel)
}

func TestAnalyzeSpentExactlyBudgetIsOver(t *testing.T) {
	tr := NewTracker(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	budgets := []domain.Budget{monthlyBudget("Shopping", 200, 15)}
	txns := []domain.Transaction{spend("Shopping", 200, 5)}

	results := tr.Analyze(context.Background(), budgets, txns)

	require.Len(t, results, 1)
	assert.Equal(t, OverBudget, results[0].Status)
}

func TestAnalyzeUnderSpending(t *testing.T) {
	tr := NewTracker(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	budgets := []domain.Budget{monthlyBudget("Shopping", 300, 15)}
	txns := []domain.Transaction{spend("Shopping", 30, 5)}

	results := tr.Analyze(context.Background(), budgets, txns)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, UnderSpending, r.Status)
	assert.InDelta(t, 50.0, r.PctTimeElapsed, 0.001)
	assert.Equal(t, int64(15), r.DaysRemaining)
	assert.Contains(t, r.Recommendation, "extra flexibility")
}

func TestAnalyzeOnTrackScore(t *testing.T) {
	tr := NewTracker(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	// 50% used at 50% elapsed: ratio 1.0 scores a perfect 100.
	budgets := []domain.Budget{monthlyBudget("Shopping", 300, 15)}
	txns := []domain.Transaction{spend("Shopping", 150, 5)}

	results := tr.Analyze(context.Background(), budgets, txns)

	require.Len(t, results, 1)
	assert.Equal(t, OnTrack, results[0].Status)
	assert.InDelta(t, 100.0, results[0].EfficiencyScore, 0.001)
	assert.Contains(t, results[0].Recommendation, "healthy pace")
}

func TestAnalyzeSpendingTooFast(t *testing.T) {
	recorder := &notifierRecorder{}
	tr := NewTracker(recorder, log.Discard()).WithClock(fixedClock)

	// 60% used at 20% elapsed.
	budgets := []domain.Budget{monthlyBudget("Entertainment", 100, 6)}
	txns := []domain.Transaction{spend("Entertainment", 60, 2)}

	results := tr.Analyze(context.Background(), budgets, txns)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, SpendingTooFast, r.Status)
	assert.Less(t, r.EfficiencyScore, 50.0)
	assert.InDelta(t, 300.0, r.ProjectedTotal, 0.001, "60 over 6 days projects to 300 over 30")

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, "efficiency:fast:Entertainment", recorder.requests[0].DedupeKey)
}

func TestAnalyzeSkipsInactiveBudgets(t *testing.T) {
	tr := NewTracker(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	b := monthlyBudget("Shopping", 300, 15).WithActive(false)

	assert.Empty(t, tr.Analyze(context.Background(), []domain.Budget{b}, nil))
}

func TestAnalyzePeriodStartScoresFull(t *testing.T) {
	tr := NewTracker(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	budgets := []domain.Budget{monthlyBudget("Shopping", 300, 0)}

	results := tr.Analyze(context.Background(), budgets, nil)

	require.Len(t, results, 1)
	assert.InDelta(t, 100.0, results[0].EfficiencyScore, 0.001)
	assert.Equal(t, OnTrack, results[0].Status)
}
