// Package summary produces weekly and monthly rollups of transaction and
// budget activity, including a week-over-week spend comparison.
package summary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
)

const (
	weekDays  = 7
	monthDays = 30
)

// BudgetStatus buckets how much of a budget the period consumed.
type BudgetStatus string

const (
	StatusUnderBudget BudgetStatus = "UNDER_BUDGET"
	StatusOnTrack     BudgetStatus = "ON_TRACK"
	StatusWarning     BudgetStatus = "WARNING"
	StatusCritical    BudgetStatus = "CRITICAL"
	StatusOverBudget  BudgetStatus = "OVER_BUDGET"
)

// BudgetPerformance reports one active budget's consumption inside the
// summary window.
type BudgetPerformance struct {
	Category     string
	BudgetAmount float64
	Spent        float64
	PercentUsed  float64
	Status       BudgetStatus
}

// WeeklyComparison compares this week's spend to the prior 7-day window.
type WeeklyComparison struct {
	ThisWeekSpending float64
	LastWeekSpending float64
	ChangePercent    float64
}

// WeeklySummary is the 7-day rollup.
type WeeklySummary struct {
	TotalIncome       float64
	TotalExpenses     float64
	NetSavings        float64
	CategorySpending  map[string]float64
	TopCategory       string
	TopCategoryAmount float64
	BudgetPerformance []BudgetPerformance
	Insights          []string
	Comparison        WeeklyComparison
}

// MonthlySummary is the 30-day rollup with a daily-spend breakdown.
type MonthlySummary struct {
	TotalIncome      float64
	TotalExpenses    float64
	NetSavings       float64
	SavingsRate      float64
	CategorySpending map[string]float64
	DailySpending    map[string]float64
	AvgDailySpending float64
	TransactionCount int
	Insights         []string
}

// Generator builds periodic summaries from transaction and budget snapshots.
type Generator struct {
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
}

// NewGenerator creates a new Generator instance
func NewGenerator(notifier notify.Notifier, logger *log.Logger) *Generator {
	return &Generator{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentSummary),
		now:      time.Now,
	}
}

// WithClock overrides the generator's clock; used in tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Weekly rolls up the last 7 days and always requests a low-priority summary
// notification. The week-over-week comparison looks at the full snapshot so
// the prior window is populated.
func (g *Generator) Weekly(ctx context.Context, transactions []domain.Transaction, budgets []domain.Budget) WeeklySummary {
	now := g.now()
	weekStart := now.Add(-weekDays * 24 * time.Hour)

	var weekly []domain.Transaction
	for _, t := range transactions {
		if t.Date.After(weekStart) {
			weekly = append(weekly, t)
		}
	}

	income, expenses := totals(weekly)
	categorySpending := spendByCategory(weekly)
	topCategory, topAmount := topSpendingCategory(categorySpending)
	performance := budgetPerformance(budgets, weekly)

	s := WeeklySummary{
		TotalIncome:       income,
		TotalExpenses:     expenses,
		NetSavings:        income - expenses,
		CategorySpending:  categorySpending,
		TopCategory:       topCategory,
		TopCategoryAmount: topAmount,
		BudgetPerformance: performance,
		Comparison:        weeklyComparison(transactions, now),
	}
	s.Insights = weeklyInsights(s)

	g.notifySummary(ctx, s)
	return s
}

// Monthly rolls up the last 30 days plus a per-day spend breakdown.
func (g *Generator) Monthly(_ context.Context, transactions []domain.Transaction, _ []domain.Budget) MonthlySummary {
	now := g.now()
	monthStart := now.Add(-monthDays * 24 * time.Hour)

	var monthly []domain.Transaction
	for _, t := range transactions {
		if t.Date.After(monthStart) {
			monthly = append(monthly, t)
		}
	}

	income, expenses := totals(monthly)
	netSavings := income - expenses
	var savingsRate float64
	if income > 0 {
		savingsRate = netSavings / income * 100
	}

	daily := dailySpending(monthly)
	var avgDaily float64
	if len(daily) > 0 {
		var sum float64
		for _, v := range daily {
			sum += v
		}
		avgDaily = sum / float64(len(daily))
	}

	return MonthlySummary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		NetSavings:       netSavings,
		SavingsRate:      savingsRate,
		CategorySpending: spendByCategory(monthly),
		DailySpending:    daily,
		AvgDailySpending: avgDaily,
		TransactionCount: len(monthly),
		Insights:         monthlyInsights(savingsRate),
	}
}

func totals(transactions []domain.Transaction) (income, expenses float64) {
	for _, t := range transactions {
		switch {
		case t.IsIncome():
			income += t.Amount.InexactFloat64()
		case t.IsExpense():
			expenses += t.Amount.InexactFloat64()
		}
	}
	return income, expenses
}

func spendByCategory(transactions []domain.Transaction) map[string]float64 {
	spending := make(map[string]float64)
	for _, t := range transactions {
		if t.IsExpense() {
			spending[t.Category] += t.Amount.InexactFloat64()
		}
	}
	return spending
}

// topSpendingCategory returns the max-spend category, ties broken by name,
// or "None" when there was no spending.
func topSpendingCategory(spending map[string]float64) (string, float64) {
	top, amount := "None", 0.0
	first := true
	categories := make([]string, 0, len(spending))
	for c := range spending {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		if first || spending[c] > amount {
			top, amount = c, spending[c]
			first = false
		}
	}
	return top, amount
}

func budgetPerformance(budgets []domain.Budget, transactions []domain.Transaction) []BudgetPerformance {
	var performances []BudgetPerformance
	for _, b := range budgets {
		if !b.Active {
			continue
		}
		var spent float64
		for _, t := range transactions {
			if t.IsExpense() && t.Category == b.Category {
				spent += t.Amount.InexactFloat64()
			}
		}
		budgetAmount := b.BudgetAmount.InexactFloat64()
		pctUsed := spent / budgetAmount * 100
		performances = append(performances, BudgetPerformance{
			Category:     b.Category,
			BudgetAmount: budgetAmount,
			Spent:        spent,
			PercentUsed:  pctUsed,
			Status:       budgetStatus(pctUsed),
		})
	}
	return performances
}

func budgetStatus(pctUsed float64) BudgetStatus {
	switch {
	case pctUsed > 100:
		return StatusOverBudget
	case pctUsed > 90:
		return StatusCritical
	case pctUsed > 75:
		return StatusWarning
	case pctUsed > 50:
		return StatusOnTrack
	}
	return StatusUnderBudget
}

func weeklyComparison(transactions []domain.Transaction, now time.Time) WeeklyComparison {
	thisWeekStart := now.Add(-weekDays * 24 * time.Hour)
	lastWeekStart := thisWeekStart.Add(-weekDays * 24 * time.Hour)

	var thisWeek, lastWeek float64
	for _, t := range transactions {
		if !t.IsExpense() {
			continue
		}
		switch {
		case t.Date.After(thisWeekStart):
			thisWeek += t.Amount.InexactFloat64()
		case t.Date.After(lastWeekStart):
			lastWeek += t.Amount.InexactFloat64()
		}
	}

	var changePct float64
	if lastWeek > 0 {
		changePct = (thisWeek - lastWeek) / lastWeek * 100
	}
	return WeeklyComparison{
		ThisWeekSpending: thisWeek,
		LastWeekSpending: lastWeek,
		ChangePercent:    changePct,
	}
}

// dailySpending buckets expense amounts by calendar day ("Jan 02").
func dailySpending(transactions []domain.Transaction) map[string]float64 {
	daily := make(map[string]float64)
	for _, t := range transactions {
		if t.IsExpense() {
			daily[t.Date.Format("Jan 02")] += t.Amount.InexactFloat64()
		}
	}
	return daily
}

func weeklyInsights(s WeeklySummary) []string {
	var insights []string

	if s.NetSavings > 0 {
		insights = append(insights, fmt.Sprintf("💰 Great job! You saved $%.2f this week", s.NetSavings))
	} else if s.NetSavings < 0 {
		insights = append(insights, fmt.Sprintf("⚠️ You spent $%.2f more than you earned this week", -s.NetSavings))
	}

	if len(s.CategorySpending) > 0 {
		insights = append(insights, fmt.Sprintf("🏆 Top spending: %s ($%.2f)", s.TopCategory, s.TopCategoryAmount))
	}

	var overBudget int
	for _, bp := range s.BudgetPerformance {
		if bp.Status == StatusOverBudget {
			overBudget++
		}
	}
	if overBudget > 0 {
		insights = append(insights, fmt.Sprintf("🚨 %d budget(s) exceeded this week", overBudget))
	}

	return insights
}

func monthlyInsights(savingsRate float64) []string {
	insights := []string{fmt.Sprintf("📊 Monthly savings rate: %.1f%%", savingsRate)}
	switch {
	case savingsRate >= 20:
		insights = append(insights, "🌟 Excellent! You're saving over 20% of your income")
	case savingsRate >= 10:
		insights = append(insights, "👍 Good savings rate! Consider increasing to 20%")
	case savingsRate > 0:
		insights = append(insights, "💡 Try to increase your savings rate to at least 10%")
	default:
		insights = append(insights, "⚠️ Focus on reducing expenses to start saving")
	}
	return insights
}

func (g *Generator) notifySummary(ctx context.Context, s WeeklySummary) {
	var body string
	if s.NetSavings > 0 {
		body = fmt.Sprintf("📊 Weekly Summary: You saved $%.2f this week! Top spending: %s ($%.2f)",
			s.NetSavings, s.TopCategory, s.TopCategoryAmount)
	} else {
		body = fmt.Sprintf("📊 Weekly Summary: Spent $%.2f this week. Top category: %s ($%.2f)",
			s.TotalExpenses, s.TopCategory, s.TopCategoryAmount)
	}
	req := notify.Request{
		Channel:   notify.ChannelSummary,
		Title:     "Weekly Financial Summary",
		Body:      body,
		DedupeKey: "summary:weekly",
	}
	if err := g.notifier.Notify(ctx, req); err != nil {
		g.logger.Warn("notify failed", log.FieldError, err)
	}
}
