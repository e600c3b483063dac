// Package goal recommends savings and spending-reduction goals from a 30-day
// cash-flow analysis.
package goal

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
)

const (
	analysisDays = 30
	// healthySavingsRate is the savings-rate target in percent.
	healthySavingsRate = 20.0
	// reductionFloor is the minimum monthly category spend that justifies a
	// reduction goal.
	reductionFloor = 200.0
	reductionPct   = 0.15
	maxReductions  = 3
)

// Type names the kind of goal being recommended.
type Type string

const (
	EmergencyFund        Type = "EMERGENCY_FUND"
	SavingsRate          Type = "SAVINGS_RATE"
	SpendingReduction    Type = "SPENDING_REDUCTION"
	CategoryOptimization Type = "CATEGORY_OPTIMIZATION"
)

// Priority orders goals for presentation and notification.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Recommendation is one suggested goal.
type Recommendation struct {
	Type            Type
	Title           string
	TargetAmount    float64
	TimeframeMonths int
	Description     string
	Priority        Priority
}

// analysis summarizes the trailing 30-day cash flow.
type analysis struct {
	monthlyIncome    float64
	monthlyExpenses  float64
	currentSavings   float64
	savingsRate      float64
	categorySpending map[string]float64
}

// Recommender produces goal recommendations from a transaction snapshot.
type Recommender struct {
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
}

// NewRecommender creates a new Recommender instance
func NewRecommender(notifier notify.Notifier, logger *log.Logger) *Recommender {
	return &Recommender{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentGoal),
		now:      time.Now,
	}
}

// WithClock overrides the recommender's clock; used in tests.
func (r *Recommender) WithClock(now func() time.Time) *Recommender {
	r.now = now
	return r
}

// Recommend analyzes the trailing 30 days and emits emergency-fund,
// savings-rate, spending-reduction and category-optimization goals. Healthy
// positive savings request an opportunity alert; every HIGH-priority goal
// requests a recommendation alert.
func (r *Recommender) Recommend(ctx context.Context, transactions []domain.Transaction) []Recommendation {
	a := r.analyze(transactions)

	var goals []Recommendation
	goals = append(goals, savingsGoals(a)...)
	goals = append(goals, reductionGoals(a)...)
	goals = append(goals, optimizationGoals(a)...)

	r.triggerNotifications(ctx, goals, a)
	return goals
}

func (r *Recommender) analyze(transactions []domain.Transaction) analysis {
	windowStart := r.now().Add(-analysisDays * 24 * time.Hour)

	a := analysis{categorySpending: make(map[string]float64)}
	for _, t := range transactions {
		if !t.Date.After(windowStart) {
			continue
		}
		amount := t.Amount.InexactFloat64()
		switch {
		case t.IsIncome():
			a.monthlyIncome += amount
		case t.IsExpense():
			a.monthlyExpenses += amount
			a.categorySpending[t.Category] += amount
		}
	}

	a.currentSavings = a.monthlyIncome - a.monthlyExpenses
	if a.monthlyIncome > 0 {
		a.savingsRate = a.currentSavings / a.monthlyIncome * 100
	}
	return a
}

func savingsGoals(a analysis) []Recommendation {
	var goals []Recommendation

	if a.currentSavings > 0 {
		target := a.monthlyExpenses * 6
		months := target / a.currentSavings
		goals = append(goals, Recommendation{
			Type:            EmergencyFund,
			Title:           "Emergency Fund",
			TargetAmount:    target,
			TimeframeMonths: int(math.Ceil(months)),
			Description: fmt.Sprintf("Build a 6-month emergency fund of $%.2f. At current savings rate of $%.2f/month, you'll reach this in %.0f months.",
				target, a.currentSavings, months),
			Priority: PriorityHigh,
		})
	}

	if a.savingsRate < healthySavingsRate {
		targetRate := math.Min(a.savingsRate+5, healthySavingsRate)
		targetAmount := a.monthlyIncome * targetRate / 100
		additionalNeeded := targetAmount - a.currentSavings
		goals = append(goals, Recommendation{
			Type:            SavingsRate,
			Title:           fmt.Sprintf("Improve Savings Rate to %.0f%%", targetRate),
			TargetAmount:    additionalNeeded,
			TimeframeMonths: 3,
			Description: fmt.Sprintf("Increase your savings rate from %.1f%% to %.0f%% by saving an additional $%.2f per month.",
				a.savingsRate, targetRate, additionalNeeded),
			Priority: PriorityMedium,
		})
	}

	return goals
}

// reductionGoals targets a 15% cut in the top spending categories above the
// floor, at most three, ties broken by category name for determinism.
func reductionGoals(a analysis) []Recommendation {
	categories := sortedByspend(a.categorySpending)
	if len(categories) > maxReductions {
		categories = categories[:maxReductions]
	}

	var goals []Recommendation
	for _, category := range categories {
		spend := a.categorySpending[category]
		if spend <= reductionFloor {
			continue
		}
		reduction := spend * reductionPct
		goals = append(goals, Recommendation{
			Type:            SpendingReduction,
			Title:           fmt.Sprintf("Reduce %s Spending", category),
			TargetAmount:    reduction,
			TimeframeMonths: 2,
			Description: fmt.Sprintf("Reduce %s spending from $%.2f to $%.2f (15%% reduction) to save $%.2f monthly.",
				category, spend, spend-reduction, reduction),
			Priority: PriorityMedium,
		})
	}
	return goals
}

// optimizationGoals carries fixed tips for the three optimizable categories,
// each with its own spend threshold and reduction percentage.
func optimizationGoals(a analysis) []Recommendation {
	var goals []Recommendation
	for _, category := range sortedByspend(a.categorySpending) {
		spend := a.categorySpending[category]
		switch strings.ToLower(category) {
		case "food & dining":
			if spend > 400 {
				goals = append(goals, Recommendation{
					Type:            CategoryOptimization,
					Title:           "Optimize Food Spending",
					TargetAmount:    spend * 0.20,
					TimeframeMonths: 1,
					Description:     "Try meal planning and cooking at home more often to reduce dining expenses by 20%.",
					Priority:        PriorityLow,
				})
			}
		case "transportation":
			if spend > 300 {
				goals = append(goals, Recommendation{
					Type:            CategoryOptimization,
					Title:           "Optimize Transportation",
					TargetAmount:    spend * 0.15,
					TimeframeMonths: 2,
					Description:     "Consider carpooling, public transport, or combining trips to reduce transportation costs.",
					Priority:        PriorityLow,
				})
			}
		case "entertainment":
			if spend > 200 {
				goals = append(goals, Recommendation{
					Type:            CategoryOptimization,
					Title:           "Optimize Entertainment",
					TargetAmount:    spend * 0.25,
					TimeframeMonths: 1,
					Description:     "Look for free or low-cost entertainment alternatives to reduce spending by 25%.",
					Priority:        PriorityLow,
				})
			}
		}
	}
	return goals
}

func sortedByspend(spending map[string]float64) []string {
	categories := make([]string, 0, len(spending))
	for c := range spending {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if spending[categories[i]] != spending[categories[j]] {
			return spending[categories[i]] > spending[categories[j]]
		}
		return categories[i] < categories[j]
	})
	return categories
}

func (r *Recommender) triggerNotifications(ctx context.Context, goals []Recommendation, a analysis) {
	if a.currentSavings > 0 && a.savingsRate > 10 {
		r.notify(ctx, notify.Request{
			Channel:   notify.ChannelAlert,
			Title:     "Savings Goal Opportunity",
			Body:      fmt.Sprintf("🎯 Saved $%.2f this month! Consider setting a savings goal?", a.currentSavings),
			DedupeKey: "goal:opportunity",
		})
	}
	for _, g := range goals {
		if g.Priority == PriorityHigh {
			r.notify(ctx, notify.Request{
				Channel:   notify.ChannelAlert,
				Title:     "Goal Recommendation",
				Body:      fmt.Sprintf("💡 %s - %s", g.Title, g.Description),
				DedupeKey: "goal:" + strings.ToLower(string(g.Type)),
			})
		}
	}
}

func (r *Recommender) notify(ctx context.Context, req notify.Request) {
	if err := r.notifier.Notify(ctx, req); err != nil {
		r.logger.Warn("notify failed", log.FieldError, err)
	}
}
