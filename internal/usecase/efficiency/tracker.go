// Package efficiency compares each active budget's consumption rate against
// its elapsed-time rate and scores the pacing on a 0-100 scale.
package efficiency

import (
	"context"
	"fmt"
	"math"
	"time"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
)

// Status buckets a budget's pacing.
type Status string

const (
	OverBudget       Status = "OVER_BUDGET"
	SpendingTooFast  Status = "SPENDING_TOO_FAST"
	SlightlyOverPace Status = "SLIGHTLY_OVER_PACE"
	OnTrack          Status = "ON_TRACK"
	UnderSpending    Status = "UNDER_SPENDING"
)

// Result describes the pacing analysis for one active budget.
type Result struct {
	Category        string
	BudgetAmount    float64
	ActualSpent     float64
	PctBudgetUsed   float64
	PctTimeElapsed  float64
	EfficiencyScore float64
	Status          Status
	DaysRemaining   int64
	ProjectedTotal  float64
	Recommendation  string
}

// Tracker analyzes budget pacing from a budget and transaction snapshot.
type Tracker struct {
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
}

// NewTracker creates a new Tracker instance
func NewTracker(notifier notify.Notifier, logger *log.Logger) *Tracker {
	return &Tracker{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentEfficiency),
		now:      time.Now,
	}
}

// WithClock overrides the tracker's clock; used in tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Analyze produces one Result per active budget. Actual spend is recomputed
// from the transaction snapshot rather than trusting the budget's running
// total. Over-budget and too-fast results request warning notifications;
// slightly-over-pace past 80% used requests an alert.
func (t *Tracker) Analyze(ctx context.Context, budgets []domain.Budget, transactions []domain.Transaction) []Result {
	var results []Result
	for _, budget := range budgets {
		if !budget.Active {
			continue
		}
		result := t.analyzeBudget(budget, transactions)
		results = append(results, result)
		t.triggerNotifications(ctx, result)
	}
	return results
}

func (t *Tracker) analyzeBudget(budget domain.Budget, transactions []domain.Transaction) Result {
	now := t.now()

	day := 24 * time.Hour
	totalDays := int64(budget.EndDate.Sub(budget.StartDate) / day)
	daysElapsed := int64(now.Sub(budget.StartDate) / day)
	daysRemaining := int64(budget.EndDate.Sub(now) / day)
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	var actualSpent float64
	for _, tx := range transactions {
		if tx.IsExpense() && tx.Category == budget.Category &&
			!tx.Date.Before(budget.StartDate) && !tx.Date.After(now) {
			actualSpent += tx.Amount.InexactFloat64()
		}
	}

	budgetAmount := budget.BudgetAmount.InexactFloat64()
	pctUsed := actualSpent / budgetAmount * 100
	var pctTime float64
	if totalDays > 0 {
		pctTime = float64(daysElapsed) / float64(totalDays) * 100
	}

	status := determineStatus(pctUsed, pctTime)
	score := efficiencyScore(pctUsed, pctTime)

	elapsedDivisor := daysElapsed
	if elapsedDivisor < 1 {
		elapsedDivisor = 1
	}
	projectedTotal := actualSpent / float64(elapsedDivisor) * float64(totalDays)

	return Result{
		Category:        budget.Category,
		BudgetAmount:    budgetAmount,
		ActualSpent:     actualSpent,
		PctBudgetUsed:   pctUsed,
		PctTimeElapsed:  pctTime,
		EfficiencyScore: score,
		Status:          status,
		DaysRemaining:   daysRemaining,
		ProjectedTotal:  projectedTotal,
		Recommendation:  recommendation(status, pctUsed, pctTime, daysRemaining, projectedTotal, budgetAmount),
	}
}

func determineStatus(pctUsed, pctTime float64) Status {
	if pctUsed >= 100 {
		return OverBudget
	}
	if pctTime > 0 {
		ratio := pctUsed / pctTime
		switch {
		case ratio > 1.2:
			return SpendingTooFast
		case ratio > 1.0:
			return SlightlyOverPace
		case ratio > 0.8:
			return OnTrack
		default:
			return UnderSpending
		}
	}
	return OnTrack
}

// efficiencyScore is 100 at period start, rewards staying at or under pace,
// and decays hyperbolically once the pace ratio exceeds 1.
func efficiencyScore(pctUsed, pctTime float64) float64 {
	if pctTime == 0 {
		return 100
	}
	ratio := pctUsed / pctTime
	if ratio <= 1.0 {
		return math.Min(100, 100*(2-ratio))
	}
	return math.Max(0, 100/ratio)
}

func recommendation(status Status, pctUsed, pctTime float64, daysRemaining int64, projectedTotal, budgetAmount float64) string {
	switch status {
	case OverBudget:
		return fmt.Sprintf("⚠️ Budget exceeded! Consider reducing spending or adjusting budget by $%.2f",
			projectedTotal-budgetAmount)
	case SpendingTooFast:
		divisor := daysRemaining
		if divisor < 1 {
			divisor = 1
		}
		dailyBudget := (budgetAmount - budgetAmount*pctUsed/100) / float64(divisor)
		return fmt.Sprintf("🚨 Spending too fast! Limit to $%.2f per day for remaining %d days",
			dailyBudget, daysRemaining)
	case SlightlyOverPace:
		return fmt.Sprintf("⚡ Slightly over pace. Consider slowing spending for next %d days", daysRemaining)
	case UnderSpending:
		availableExtra := budgetAmount*(100-pctUsed)/100 - budgetAmount*(100-pctTime)/100
		return fmt.Sprintf("💰 Under-spending! You have $%.2f extra flexibility", availableExtra)
	}
	return "✅ Great! You're spending at a healthy pace"
}

func (t *Tracker) triggerNotifications(ctx context.Context, r Result) {
	switch r.Status {
	case OverBudget:
		t.notify(ctx, notify.Request{
			Channel: notify.ChannelWarning,
			Title:   "Budget Exceeded",
			Body: fmt.Sprintf("🚨 %s budget exceeded! $%.2f over limit",
				r.Category, r.ActualSpent-r.BudgetAmount),
			DedupeKey: "efficiency:over:" + r.Category,
		})
	case SpendingTooFast:
		t.notify(ctx, notify.Request{
			Channel: notify.ChannelWarning,
			Title:   "Spending Alert",
			Body: fmt.Sprintf("🚨 %.0f%% of %s budget used. Adjust or slow down!",
				r.PctBudgetUsed, r.Category),
			DedupeKey: "efficiency:fast:" + r.Category,
		})
	case SlightlyOverPace:
		if r.PctBudgetUsed > 80 {
			t.notify(ctx, notify.Request{
				Channel: notify.ChannelAlert,
				Title:   "Budget Warning",
				Body: fmt.Sprintf("⚠️ %.0f%% of %s budget used with %d days remaining",
					r.PctBudgetUsed, r.Category, r.DaysRemaining),
				DedupeKey: "efficiency:pace:" + r.Category,
			})
		}
	}
}

func (t *Tracker) notify(ctx context.Context, req notify.Request) {
	if err := t.notifier.Notify(ctx, req); err != nil {
		t.logger.Warn("notify failed", log.FieldError, err)
	}
}
