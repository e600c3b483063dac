// Package forecast projects 30-day income, spending and savings from a 90-day
// trailing window, adjusted by the detected spending trend.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
)

const (
	forecastDays = 30
	analysisDays = 90
	// minSample is the minimum number of in-window transactions required.
	minSample = 10
	// trendChangePct is the half-over-half change that flips the trend.
	trendChangePct = 15.0
)

// Trend is the detected direction of spending over the analysis window.
type Trend string

const (
	Increasing Trend = "INCREASING"
	Decreasing Trend = "DECREASING"
	Stable     Trend = "STABLE"
)

// multiplier returns the fixed adjustment applied to the spending projection.
func (t Trend) multiplier() float64 {
	switch t {
	case Increasing:
		return 1.15
	case Decreasing:
		return 0.85
	}
	return 1.0
}

// Result is the 30-day projection produced from one snapshot.
type Result struct {
	Spending  float64
	Income    float64
	Savings   float64
	Trend     Trend
	Narrative string
}

// Engine produces cash-flow forecasts from a transaction snapshot.
type Engine struct {
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
}

// NewEngine creates a new Engine instance
func NewEngine(notifier notify.Notifier, logger *log.Logger) *Engine {
	return &Engine{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentForecast),
		now:      time.Now,
	}
}

// WithClock overrides the engine's clock; used in tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Generate computes the 30-day forecast. Fewer than 10 transactions inside
// the 90-day window yields a zeroed, stable result with an insufficient-data
// narrative. A projected deficit requests a savings-alert notification and an
// increasing trend requests a spending-trend alert.
func (e *Engine) Generate(ctx context.Context, transactions []domain.Transaction) Result {
	now := e.now()
	windowStart := now.Add(-analysisDays * 24 * time.Hour)

	var recent []domain.Transaction
	for _, t := range transactions {
		if !t.Date.Before(windowStart) {
			recent = append(recent, t)
		}
	}

	if len(recent) < minSample {
		return Result{Trend: Stable, Narrative: "Insufficient data for forecast"}
	}

	avgDailySpending := averageDaily(recent, domain.TypeExpense)
	avgDailyIncome := averageDaily(recent, domain.TypeIncome)

	trend := analyzeTrend(recent, now)

	spending := avgDailySpending * forecastDays * trend.multiplier()
	income := avgDailyIncome * forecastDays
	savings := income - spending

	result := Result{
		Spending:  spending,
		Income:    income,
		Savings:   savings,
		Trend:     trend,
		Narrative: buildNarrative(spending, income, savings, trend),
	}

	if savings < 0 {
		e.notify(ctx, notify.ChannelWarning, "Savings Alert",
			"📉 Your savings trend is decreasing. Consider reviewing your spending!", "forecast:deficit")
	}
	if trend == Increasing {
		e.notify(ctx, notify.ChannelAlert, "Spending Trend Alert",
			"📈 Your spending has been increasing. Time to review your budget!", "forecast:trend-up")
	}

	return result
}

// CategoryForecasts projects 30-day spend per expense category from the same
// 90-day daily average, without trend adjustment.
func (e *Engine) CategoryForecasts(transactions []domain.Transaction) map[string]float64 {
	now := e.now()
	windowStart := now.Add(-analysisDays * 24 * time.Hour)

	totals := make(map[string]float64)
	for _, t := range transactions {
		if t.IsExpense() && !t.Date.Before(windowStart) {
			totals[t.Category] += t.Amount.InexactFloat64()
		}
	}

	forecasts := make(map[string]float64, len(totals))
	for category, total := range totals {
		forecasts[category] = total / analysisDays * forecastDays
	}
	return forecasts
}

// averageDaily spreads the window's total for one transaction type across the
// full 90 days, not just the days that saw activity.
func averageDaily(transactions []domain.Transaction, txType domain.TransactionType) float64 {
	var total float64
	for _, t := range transactions {
		if t.Type == txType {
			total += t.Amount.InexactFloat64()
		}
	}
	return total / analysisDays
}

// analyzeTrend splits the window at its midpoint and compares average daily
// expense between the halves.
func analyzeTrend(transactions []domain.Transaction, now time.Time) Trend {
	midPoint := now.Add(-analysisDays * 24 * time.Hour / 2)

	var firstHalf, secondHalf float64
	var firstCount, secondCount int
	for _, t := range transactions {
		if !t.IsExpense() {
			continue
		}
		if t.Date.Before(midPoint) {
			firstHalf += t.Amount.InexactFloat64()
			firstCount++
		} else {
			secondHalf += t.Amount.InexactFloat64()
			secondCount++
		}
	}
	if firstCount == 0 || secondCount == 0 {
		return Stable
	}

	halfDays := float64(analysisDays) / 2
	firstAvg := firstHalf / halfDays
	secondAvg := secondHalf / halfDays

	changePct := (secondAvg - firstAvg) / firstAvg * 100
	switch {
	case changePct > trendChangePct:
		return Increasing
	case changePct < -trendChangePct:
		return Decreasing
	}
	return Stable
}

func buildNarrative(spending, income, savings float64, trend Trend) string {
	var b strings.Builder
	b.WriteString("Next 30 days forecast:\n")
	fmt.Fprintf(&b, "• Expected spending: $%.2f\n", spending)
	fmt.Fprintf(&b, "• Expected income: $%.2f\n", income)
	fmt.Fprintf(&b, "• Projected savings: $%.2f\n", savings)

	if savings < 0 {
		b.WriteString("⚠️ Warning: Projected deficit. Consider reducing expenses.\n")
	} else if savings > income*0.2 {
		b.WriteString("✅ Great! You're on track to save over 20% of income.\n")
	}

	switch trend {
	case Increasing:
		b.WriteString("📈 Spending trend is increasing. Monitor expenses closely.\n")
	case Decreasing:
		b.WriteString("📉 Spending trend is decreasing. Good financial discipline!\n")
	default:
		b.WriteString("➡️ Spending pattern is stable.\n")
	}
	return b.String()
}

// SortedCategories returns the forecast categories in descending projected
// spend order, ties broken by name, for stable presentation.
func SortedCategories(forecasts map[string]float64) []string {
	categories := make([]string, 0, len(forecasts))
	for c := range forecasts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if forecasts[categories[i]] != forecasts[categories[j]] {
			return forecasts[categories[i]] > forecasts[categories[j]]
		}
		return categories[i] < categories[j]
	})
	return categories
}

func (e *Engine) notify(ctx context.Context, channel notify.Channel, title, body, key string) {
	err := e.notifier.Notify(ctx, notify.Request{Channel: channel, Title: title, Body: body, DedupeKey: key})
	if err != nil {
		e.logger.Warn("notify failed", log.FieldError, err)
	}
}
