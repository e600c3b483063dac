package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetPeriod is the length of a budget cycle in fixed-day units.
type BudgetPeriod string

const (
	PeriodWeekly    BudgetPeriod = "WEEKLY"    // 7 days
	PeriodMonthly   BudgetPeriod = "MONTHLY"   // 30 days
	PeriodQuarterly BudgetPeriod = "QUARTERLY" // 90 days
	PeriodYearly    BudgetPeriod = "YEARLY"    // 365 days
)

var (
	ErrEmptyCategory     = errors.New("budget category cannot be empty")
	ErrNonPositiveBudget = errors.New("budget amount must be positive")
	ErrInvalidPeriod     = errors.New("budget period must be WEEKLY, MONTHLY, QUARTERLY or YEARLY")
	ErrInvalidDateRange  = errors.New("budget end date must be after start date")
)

// Days returns the fixed period length in days, or 0 for an unknown period.
func (p BudgetPeriod) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	case PeriodQuarterly:
		return 90
	case PeriodYearly:
		return 365
	}
	return 0
}

// Budget represents a spending budget for a single category over one period.
// SpentAmount is a running total maintained by the repository when expense
// transactions post; analyzers recompute spend-in-period from the transaction
// snapshot instead of trusting it.
type Budget struct {
	ID           uuid.UUID
	Category     string
	BudgetAmount decimal.Decimal
	SpentAmount  decimal.Decimal
	Period       BudgetPeriod
	StartDate    time.Time
	EndDate      time.Time
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewBudget creates an active budget starting now, with EndDate derived from
// the period's fixed day count.
func NewBudget(category string, amount decimal.Decimal, period BudgetPeriod) Budget {
	now := time.Now()
	return Budget{
		ID:           uuid.New(),
		Category:     category,
		BudgetAmount: amount,
		SpentAmount:  decimal.Zero,
		Period:       period,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, period.Days()),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate ensures the budget adheres to domain rules
func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.BudgetAmount.IsPositive() {
		return ErrNonPositiveBudget
	}
	if b.Period.Days() == 0 {
		return ErrInvalidPeriod
	}
	if !b.EndDate.After(b.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// RemainingAmount is the budget amount still unspent per the running total.
func (b Budget) RemainingAmount() decimal.Decimal {
	return b.BudgetAmount.Sub(b.SpentAmount)
}

// SpentPercentage is the running total as a percentage of the budget amount.
func (b Budget) SpentPercentage() float64 {
	if !b.BudgetAmount.IsPositive() {
		return 0
	}
	pct, _ := b.SpentAmount.Div(b.BudgetAmount).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// IsOverBudget reports whether the running total exceeds the budget amount.
func (b Budget) IsOverBudget() bool {
	return b.SpentAmount.GreaterThan(b.BudgetAmount)
}

// WithSpentAmount returns a copy with the running total replaced and UpdatedAt stamped.
func (b Budget) WithSpentAmount(spent decimal.Decimal) Budget {
	b.SpentAmount = spent
	b.UpdatedAt = time.Now()
	return b
}

// WithBudgetAmount returns a copy with the budget amount replaced and UpdatedAt stamped.
func (b Budget) WithBudgetAmount(amount decimal.Decimal) Budget {
	b.BudgetAmount = amount
	b.UpdatedAt = time.Now()
	return b
}

// WithActive returns a copy with the active flag replaced and UpdatedAt stamped.
func (b Budget) WithActive(active bool) Budget {
	b.Active = active
	b.UpdatedAt = time.Now()
	return b
}
