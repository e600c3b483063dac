// Package anomaly flags transactions whose amounts are statistical outliers
// within their category, plus rapid-spending clusters and odd-hour activity.
package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
)

const (
	// zThreshold is the outlier cutoff in standard deviations.
	zThreshold = 2.5
	// minTransactions is the minimum history size for any anomaly analysis.
	minTransactions = 10
	// minCategorySample is the minimum expense count per category for z-scoring.
	minCategorySample = 5

	rapidWindow      = time.Hour
	unusualHourFrom  = 2
	unusualHourTo    = 6
	unusualMinAmount = 50.0
)

// Type classifies what made a transaction anomalous.
type Type string

const (
	UnusuallyHigh Type = "UNUSUALLY_HIGH"
	UnusuallyLow  Type = "UNUSUALLY_LOW"
	RapidSpending Type = "RAPID_SPENDING"
	UnusualTiming Type = "UNUSUAL_TIMING"
)

// Severity buckets the anomaly score.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Result describes one detected anomaly. It holds a read reference to the
// triggering transaction and is produced fresh on every run.
type Result struct {
	Transaction domain.Transaction
	Type        Type
	Severity    Severity
	Category    string
	Score       float64
	Description string
}

// Detector performs anomaly analysis over a transaction snapshot.
type Detector struct {
	notifier notify.Notifier
	logger   *log.Logger
}

// NewDetector creates a new Detector instance
func NewDetector(notifier notify.Notifier, logger *log.Logger) *Detector {
	return &Detector{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentAnomaly),
	}
}

// Detect runs all anomaly scans over the snapshot. Fewer than 10 transactions
// means there is not enough data for a meaningful analysis and the result is
// empty (not an error). HIGH and CRITICAL results request a warning
// notification.
func (d *Detector) Detect(ctx context.Context, transactions []domain.Transaction) []Result {
	if len(transactions) < minTransactions {
		return nil
	}

	byCategory := make(map[string][]domain.Transaction)
	for _, t := range transactions {
		if t.IsExpense() {
			byCategory[t.Category] = append(byCategory[t.Category], t)
		}
	}

	// Category keys sorted for deterministic output order.
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var results []Result
	for _, category := range categories {
		group := byCategory[category]
		if len(group) >= minCategorySample {
			results = append(results, detectCategoryOutliers(category, group)...)
		}
	}

	results = append(results, detectRapidSpending(transactions)...)
	results = append(results, detectUnusualTiming(transactions)...)

	for _, r := range results {
		if r.Severity == SeverityHigh || r.Severity == SeverityCritical {
			d.notifyWarning(ctx, r)
		}
	}

	return results
}

// detectCategoryOutliers z-scores each amount against the statistics of the
// remaining samples in its category (leave-one-out), so a single extreme
// entry cannot mask itself by inflating the group's deviation.
func detectCategoryOutliers(category string, group []domain.Transaction) []Result {
	amounts := make([]float64, len(group))
	var sum float64
	for i, t := range group {
		amounts[i] = t.Amount.InexactFloat64()
		sum += amounts[i]
	}

	var results []Result
	for i, t := range group {
		mean, stdDev := holdoutStats(amounts, sum, i)
		z := zScore(amounts[i], mean, stdDev)
		if z <= zThreshold {
			continue
		}

		anomalyType := UnusuallyLow
		if amounts[i] > mean {
			anomalyType = UnusuallyHigh
		}

		var description string
		if math.IsInf(z, 1) {
			description = fmt.Sprintf("Amount $%.2f stands alone against a constant average of $%.2f",
				amounts[i], mean)
		} else {
			description = fmt.Sprintf("Amount $%.2f is %.1f standard deviations from average $%.2f",
				amounts[i], z, mean)
		}

		results = append(results, Result{
			Transaction: t,
			Type:        anomalyType,
			Severity:    determineSeverity(z),
			Category:    category,
			Score:       z,
			Description: description,
		})
	}
	return results
}

// holdoutStats returns the mean and population standard deviation of the
// amounts excluding index i.
func holdoutStats(amounts []float64, sum float64, i int) (mean, stdDev float64) {
	n := float64(len(amounts) - 1)
	mean = (sum - amounts[i]) / n

	var sq float64
	for j, v := range amounts {
		if j == i {
			continue
		}
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / n)
}

func zScore(amount, mean, stdDev float64) float64 {
	if stdDev == 0 {
		if amount == mean {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(amount-mean) / stdDev
}

func determineSeverity(z float64) Severity {
	switch {
	case z > 4.0:
		return SeverityCritical
	case z > 3.0:
		return SeverityHigh
	case z > 2.5:
		return SeverityMedium
	}
	return SeverityLow
}

// detectRapidSpending flags any 3 consecutive expense transactions where each
// pair is at most one hour apart.
func detectRapidSpending(transactions []domain.Transaction) []Result {
	var expenses []domain.Transaction
	for _, t := range transactions {
		if t.IsExpense() {
			expenses = append(expenses, t)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Date.Before(expenses[j].Date)
	})

	var results []Result
	for i := 0; i+2 < len(expenses); i++ {
		t1, t2, t3 := expenses[i], expenses[i+1], expenses[i+2]
		if t2.Date.Sub(t1.Date) <= rapidWindow && t3.Date.Sub(t2.Date) <= rapidWindow {
			results = append(results, Result{
				Transaction: t3, // latest in the triple
				Type:        RapidSpending,
				Severity:    SeverityMedium,
				Category:    "Multiple Categories",
				Score:       3.0,
				Description: "Multiple transactions detected within 1 hour",
			})
		}
	}
	return results
}

// detectUnusualTiming flags sizeable transactions posted in the small hours.
func detectUnusualTiming(transactions []domain.Transaction) []Result {
	var results []Result
	for _, t := range transactions {
		hour := t.Date.Hour()
		if hour >= unusualHourFrom && hour <= unusualHourTo && t.Amount.InexactFloat64() > unusualMinAmount {
			results = append(results, Result{
				Transaction: t,
				Type:        UnusualTiming,
				Severity:    SeverityLow,
				Category:    t.Category,
				Score:       2.0,
				Description: fmt.Sprintf("Transaction at unusual hour: %02d:00", hour),
			})
		}
	}
	return results
}

func (d *Detector) notifyWarning(ctx context.Context, r Result) {
	req := notify.Request{
		Channel: notify.ChannelWarning,
		Title:   "Unusual Transaction Detected",
		Body: fmt.Sprintf("⚠️ Unusual %s transaction: $%.2f in %s",
			typeLabel(r.Type), r.Transaction.Amount.InexactFloat64(), r.Category),
		DedupeKey: fmt.Sprintf("anomaly:%s:%s", r.Type, r.Transaction.ID),
	}
	if err := d.notifier.Notify(ctx, req); err != nil {
		d.logger.Warn("notify failed", log.FieldError, err)
	}
}

func typeLabel(t Type) string {
	switch t {
	case UnusuallyHigh:
		return "unusually high"
	case UnusuallyLow:
		return "unusually low"
	case RapidSpending:
		return "rapid spending"
	case UnusualTiming:
		return "unusual timing"
	}
	return "unknown"
}
