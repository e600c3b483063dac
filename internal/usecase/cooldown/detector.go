// Package cooldown detects rapid-succession spending clusters and whether the
// user is in the middle of one right now.
package cooldown

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
	// rapidThreshold is the clustering window anchored on the most recent
	// member of a burst.
	rapidThreshold = 15 * time.Minute
	// minBurstSize is the smallest cluster reported as a burst.
	minBurstSize = 3
	// recentLimit caps how many recent expenses the live-alert counter scans.
	recentLimit = 10
)

// Severity grades a spending burst.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Burst is one rapid-succession spending cluster.
type Burst struct {
	Count       int
	TotalAmount float64
	Duration    time.Duration
	Severity    Severity
	Categories  []string
	MostRecent  time.Time
	Description string
}

// Result is the full cooldown analysis for one snapshot.
type Result struct {
	Bursts          []Burst
	CurrentlyRapid  bool
	Recommendations []string
}

// Detector analyzes spending bursts from a transaction snapshot.
type Detector struct {
	notifier notify.Notifier
	logger   *log.Logger
	now      func() time.Time
}

// NewDetector creates a new Detector instance
func NewDetector(notifier notify.Notifier, logger *log.Logger) *Detector {
	return &Detector{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentCooldown),
		now:      time.Now,
	}
}

// WithClock overrides the detector's clock; used in tests.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// Analyze clusters expense transactions into bursts (each member within 15
// minutes of the cluster's most recent one, 3+ members) and checks whether
// 3+ expenses landed within the last 15 minutes of wall-clock now. An active
// rapid-spending state requests an alert notification.
func (d *Detector) Analyze(ctx context.Context, transactions []domain.Transaction) Result {
	expenses := make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.IsExpense() {
			expenses = append(expenses, t)
		}
	}
	// Most recent first.
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Date.After(expenses[j].Date)
	})

	bursts := detectBursts(expenses)
	currentlyRapid := d.isCurrentlyRapid(expenses)

	if currentlyRapid {
		d.notifyRapid(ctx, expenses)
	}

	return Result{
		Bursts:          bursts,
		CurrentlyRapid:  currentlyRapid,
		Recommendations: recommendations(bursts, currentlyRapid),
	}
}

// detectBursts slides over the descending-time list; a window is the maximal
// run whose members all fall within 15 minutes of the window's first (most
// recent) member. Windows that form a burst are skipped over so one cluster
// is reported once.
func detectBursts(expenses []domain.Transaction) []Burst {
	var bursts []Burst
	for i := 0; i+minBurstSize-1 < len(expenses); i++ {
		window := []domain.Transaction{expenses[i]}
		for j := i + 1; j < len(expenses); j++ {
			if expenses[i].Date.Sub(expenses[j].Date) <= rapidThreshold {
				window = append(window, expenses[j])
			} else {
				break
			}
		}
		if len(window) >= minBurstSize {
			bursts = append(bursts, analyzeBurst(window))
			i += len(window) - 1
		}
	}
	return bursts
}

func analyzeBurst(window []domain.Transaction) Burst {
	var total float64
	seen := make(map[string]bool)
	var categories []string
	for _, t := range window {
		total += t.Amount.InexactFloat64()
		if !seen[t.Category] {
			seen[t.Category] = true
			categories = append(categories, t.Category)
		}
	}
	sort.Strings(categories)

	// Window is ordered most recent first.
	duration := window[0].Date.Sub(window[len(window)-1].Date)

	return Burst{
		Count:       len(window),
		TotalAmount: total,
		Duration:    duration,
		Severity:    determineSeverity(len(window), total, duration),
		Categories:  categories,
		MostRecent:  window[0].Date,
		Description: burstDescription(len(window), total, duration, categories),
	}
}

func determineSeverity(count int, total float64, duration time.Duration) Severity {
	if count >= 5 && total >= 300 && duration <= 10*time.Minute {
		return SeverityHigh
	}
	if (count >= 4 && total >= 200) ||
		(count >= 3 && total >= 400) ||
		duration <= 5*time.Minute {
		return SeverityMedium
	}
	return SeverityLow
}

func (d *Detector) isCurrentlyRapid(expenses []domain.Transaction) bool {
	if len(expenses) < minBurstSize {
		return false
	}
	now := d.now()
	count := 0
	for _, t := range expenses {
		if now.Sub(t.Date) <= rapidThreshold {
			count++
		} else {
			break // sorted most recent first
		}
	}
	return count >= minBurstSize
}

// recommendations is a fixed set of situational tips selected by burst
// presence, severity and category diversity.
func recommendations(bursts []Burst, currentlyRapid bool) []string {
	var recs []string
	if currentlyRapid {
		recs = append(recs,
			"🛑 Take a 15-minute break before making another purchase",
			"💭 Ask yourself: 'Do I really need this right now?'",
			"📝 Write down what you want to buy and review it later",
		)
	}
	if len(bursts) > 0 {
		latest := bursts[0]
		if latest.Severity == SeverityHigh {
			recs = append(recs,
				"⚠️ Consider setting a daily spending limit",
				"🔒 Remove payment methods from quick access",
			)
		}
		if len(latest.Categories) > 2 {
			recs = append(recs, "🎯 Focus spending on one category at a time")
		}
		recs = append(recs, "📊 Review your recent purchases to identify patterns")
	}
	return recs
}

func burstDescription(count int, total float64, duration time.Duration, categories []string) string {
	minutes := int64(duration / time.Minute)
	timeDesc := "less than a minute"
	if minutes > 0 {
		timeDesc = fmt.Sprintf("%d minute(s)", minutes)
	}
	categoryDesc := fmt.Sprintf("%d categories", len(categories))
	if len(categories) == 1 {
		categoryDesc = categories[0]
	}
	return fmt.Sprintf("Spending burst: %d transactions totaling $%.2f in %s across %s",
		count, total, timeDesc, categoryDesc)
}

func (d *Detector) notifyRapid(ctx context.Context, expenses []domain.Transaction) {
	now := d.now()
	count := 0
	for i, t := range expenses {
		if i >= recentLimit {
			break
		}
		if now.Sub(t.Date) <= rapidThreshold {
			count++
		}
	}
	if count < minBurstSize {
		return
	}
	req := notify.Request{
		Channel:   notify.ChannelAlert,
		Title:     "Rapid Spending Detected",
		Body:      fmt.Sprintf("🛑 Multiple entries logged quickly (%d transactions). Review now?", count),
		DedupeKey: "cooldown:rapid",
	}
	if err := d.notifier.Notify(ctx, req); err != nil {
		d.logger.Warn("notify failed", log.FieldError, err)
	}
}
