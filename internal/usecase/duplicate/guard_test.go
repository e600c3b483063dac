package duplicate

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

func entry(amount float64, description string, date time.Time) domain.Transaction {
	tx := domain.NewTransaction(decimal.NewFromFloat(amount), description, "Food & Dining", domain.TypeExpense)
	tx.Date = date
	return tx
}

var base = time.Date(2026, 4, 10, 13, 0, 0, 0, time.UTC)

func TestCheckExactReentry(t *testing.T) {
	g := NewGuard(notify.Nop{}, log.Discard())

	existing := entry(12.50, "Coffee at Blue Bottle", base)
	newTx := entry(12.50, "Coffee at Blue Bottle", base.Add(time.Minute))

	result := g.Check(context.Background(), newTx, []domain.Transaction{existing})

	require.True(t, result.IsDuplicate)
	assert.Equal(t, ConfidenceVeryHigh, result.Confidence)
	require.Len(t, result.Candidates, 1)
	assert.Greater(t, result.Candidates[0].Score, 0.95)
	assert.Contains(t, result.Message, "very high confidence")
}

func TestCheckHighConfidenceNotifies(t *testing.T) {
	recorder := &notifierRecorder{}
	g := NewGuard(recorder, log.Discard())

	existing := entry(12.50, "Coffee at Blue Bottle", base)
	newTx := entry(12.50, "Coffee at Blue Bottle", base.Add(15*time.Minute))

	result := g.Check(context.Background(), newTx, []domain.Transaction{existing})

	require.True(t, result.IsDuplicate)
	assert.Equal(t, ConfidenceHigh, result.Confidence)
	require.Len(t, recorder.requests, 1)
	assert.Equal(t, notify.ChannelAlert, recorder.requests[0].Channel)
	assert.Equal(t, "duplicate:"+newTx.ID.String(), recorder.requests[0].DedupeKey)
}

func TestCheckScoreDropsWithTimeDistance(t *testing.T) {
	g := NewGuard(notify.Nop{}, log.Discard())

	existing := entry(12.50, "Coffee at Blue Bottle", base)
	near := entry(12.50, "Coffee at Blue Bottle", base.Add(2*time.Minute))
	far := entry(12.50, "Coffee at Blue Bottle", base.Add(28*time.Minute))

	nearScore := g.Check(context.Background(), near, []domain.Transaction{existing}).Candidates[0].Score
	farScore := g.Check(context.Background(), far, []domain.Transaction{existing}).Candidates[0].Score

	assert.Greater(t, nearScore, farScore)
}

func TestCheckFiltersOut(t *testing.T) {
	g := NewGuard(notify.Nop{}, log.Discard())
	existing := entry(12.50, "Coffee at Blue Bottle", base)

	t.Run("outside time window", func(t *testing.T) {
		newTx := entry(12.50, "Coffee at Blue Bottle", base.Add(31*time.Minute))
		result := g.Check(context.Background(), newTx, []domain.Transaction{existing})
		assert.False(t, result.IsDuplicate)
		assert.Equal(t, ConfidenceNone, result.Confidence)
	})

	t.Run("amount differs beyond tolerance", func(t *testing.T) {
		newTx := entry(12.60, "Coffee at Blue Bottle", base.Add(time.Minute))
		result := g.Check(context.Background(), newTx, []domain.Transaction{existing})
		assert.False(t, result.IsDuplicate)
	})

	t.Run("different transaction type", func(t *testing.T) {
		newTx := entry(12.50, "Coffee at Blue Bottle", base.Add(time.Minute))
		newTx.Type = domain.TypeIncome
		result := g.Check(context.Background(), newTx, []domain.Transaction{existing})
		assert.False(t, result.IsDuplicate)
	})

	t.Run("dissimilar description", func(t *testing.T) {
		newTx := entry(12.50, "Monthly parking garage fee", base.Add(time.Minute))
		result := g.Check(context.Background(), newTx, []domain.Transaction{existing})
		assert.False(t, result.IsDuplicate)
	})
}

func TestCheckRanksCandidates(t *testing.T) {
	g := NewGuard(notify.Nop{}, log.Discard())

	closer := entry(12.50, "Coffee at Blue Bottle", base.Add(-time.Minute))
	farther := entry(12.50, "Coffee at Blue Bottle", base.Add(-25*time.Minute))
	newTx := entry(12.50, "Coffee at Blue Bottle", base)

	result := g.Check(context.Background(), newTx, []domain.Transaction{farther, closer})

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, closer.ID, result.Candidates[0].Transaction.ID)
}

func TestDescriptionSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, DescriptionSimilarity("Coffee Shop", "coffee  shop!"), 0.001)
	assert.InDelta(t, 1.0, DescriptionSimilarity("", ""), 0.001)
	assert.Less(t, DescriptionSimilarity("Coffee Shop", "Gas Station"), 0.5)
}
