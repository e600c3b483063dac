package forecast

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

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func txnAt(amount float64, txType domain.TransactionType, category string, daysAgo int) domain.Transaction {
	tx := domain.NewTransaction(decimal.NewFromFloat(amount), "entry", category, txType)
	tx.Date = testNow.AddDate(0, 0, -daysAgo)
	return tx
}

func TestGenerateInsufficientData(t *testing.T) {
	e := NewEngine(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	var txns []domain.Transaction
	for i := 0; i < 5; i++ {
		txns = append(txns, txnAt(20, domain.TypeExpense, "Shopping", 10+i))
	}

	result := e.Generate(context.Background(), txns)

	assert.Equal(t, Stable, result.Trend)
	assert.Equal(t, "Insufficient data for forecast", result.Narrative)
	assert.Zero(t, result.Spending)
	assert.Zero(t, result.Income)
}

func TestGenerateStableDeficit(t *testing.T) {
	recorder := &notifierRecorder{}
	e := NewEngine(recorder, log.Discard()).WithClock(fixedClock)

	var txns []domain.Transaction
	for i := 0; i < 5; i++ {
		txns = append(txns, txnAt(90, domain.TypeExpense, "Shopping", 80-4*i))
		txns = append(txns, txnAt(90, domain.TypeExpense, "Shopping", 40-4*i))
	}

	result := e.Generate(context.Background(), txns)

	assert.Equal(t, Stable, result.Trend)
	assert.InDelta(t, 300.0, result.Spending, 0.01, "900 over 90 days projected to 30")
	assert.InDelta(t, -300.0, result.Savings, 0.01)
	assert.Contains(t, result.Narrative, "Projected deficit")

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, "forecast:deficit", recorder.requests[0].DedupeKey)
	assert.Equal(t, notify.ChannelWarning, recorder.requests[0].Channel)
}

func TestGenerateIncreasingTrendAppliesMultiplier(t *testing.T) {
	recorder := &notifierRecorder{}
	e := NewEngine(recorder, log.Discard()).WithClock(fixedClock)

	var txns []domain.Transaction
	for i := 0; i < 5; i++ {
		txns = append(txns, txnAt(10, domain.TypeExpense, "Shopping", 80-2*i))
		txns = append(txns, txnAt(30, domain.TypeExpense, "Shopping", 30-2*i))
	}
	txns = append(txns,
		txnAt(500, domain.TypeIncome, "Income", 60),
		txnAt(500, domain.TypeIncome, "Income", 15),
	)

	result := e.Generate(context.Background(), txns)

	assert.Equal(t, Increasing, result.Trend)
	assert.InDelta(t, 200.0/90*30*1.15, result.Spending, 0.01)
	assert.InDelta(t, 1000.0/90*30, result.Income, 0.01)
	assert.Greater(t, result.Savings, 0.0)

	require.Len(t, recorder.requests, 1)
	assert.Equal(t, "forecast:trend-up", recorder.requests[0].DedupeKey)
}

func TestCategoryForecasts(t *testing.T) {
	e := NewEngine(notify.Nop{}, log.Discard()).WithClock(fixedClock)

	txns := []domain.Transaction{
		txnAt(90, domain.TypeExpense, "Shopping", 10),
		txnAt(180, domain.TypeExpense, "Food & Dining", 20),
		txnAt(45, domain.TypeExpense, "Shopping", 120), // outside the window
		txnAt(300, domain.TypeIncome, "Income", 5),
	}

	forecasts := e.CategoryForecasts(txns)

	require.Len(t, forecasts, 2)
	assert.InDelta(t, 30.0, forecasts["Shopping"], 0.01)
	assert.InDelta(t, 60.0, forecasts["Food & Dining"], 0.01)

	assert.Equal(t, []string{"Food & Dining", "Shopping"}, SortedCategories(forecasts))
}
