// Package recurring detects periodic charges by clustering transactions on a
// normalized description key and checking interval regularity.
package recurring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
	"github.com/shopspring/decimal"
)

const (
	// minOccurrences is the smallest cluster that can form a pattern.
	minOccurrences = 3
	// gapTolerance is how far any single gap may stray from the average gap.
	gapTolerance = 3 * 24 * time.Hour
)

// Class names the cadence of a recurring pattern.
type Class string

const (
	Daily     Class = "DAILY"
	Weekly    Class = "WEEKLY"
	Monthly   Class = "MONTHLY"
	Quarterly Class = "QUARTERLY"
	Yearly    Class = "YEARLY"
	Custom    Class = "CUSTOM"
)

// Pattern describes one recurring charge cluster. Description, category and
// amount are carried from the cluster's earliest transaction.
type Pattern struct {
	Description   string
	Category      string
	Amount        decimal.Decimal
	IntervalDays  int
	Class         Class
	AlreadyMarked bool
}

// Detector finds recurring charge patterns in a transaction snapshot.
type Detector struct {
	notifier notify.Notifier
	logger   *log.Logger
}

// NewDetector creates a new Detector instance
func NewDetector(notifier notify.Notifier, logger *log.Logger) *Detector {
	return &Detector{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentRecurring),
	}
}

// Detect groups the snapshot by normalized description and reports every
// group of 3+ transactions whose consecutive gaps all sit within 3 days of
// the group's average gap. Newly detected patterns (not yet marked recurring
// by the user) request a reminder notification.
func (d *Detector) Detect(ctx context.Context, transactions []domain.Transaction) []Pattern {
	grouped := make(map[string][]domain.Transaction)
	for _, t := range transactions {
		key := NormalizeDescription(t.Description)
		grouped[key] = append(grouped[key], t)
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var patterns []Pattern
	for _, key := range keys {
		group := grouped[key]
		if len(group) < minOccurrences {
			continue
		}
		pattern, ok := analyzeGroup(group)
		if !ok {
			continue
		}
		patterns = append(patterns, pattern)

		if !pattern.AlreadyMarked {
			d.notifyReminder(ctx, pattern)
		}
	}
	return patterns
}

// NormalizeDescription produces the clustering key: lowercase, digits and
// non-letter characters stripped, whitespace collapsed.
func NormalizeDescription(description string) string {
	lower := strings.ToLower(description)
	var b strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func analyzeGroup(group []domain.Transaction) (Pattern, bool) {
	sorted := make([]domain.Transaction, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	gaps := make([]time.Duration, 0, len(sorted)-1)
	var total time.Duration
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Date.Sub(sorted[i-1].Date)
		gaps = append(gaps, gap)
		total += gap
	}
	avg := total / time.Duration(len(gaps))

	for _, gap := range gaps {
		delta := gap - avg
		if delta < 0 {
			delta = -delta
		}
		if delta > gapTolerance {
			return Pattern{}, false
		}
	}

	first := sorted[0]
	intervalDays := int(avg / (24 * time.Hour))
	return Pattern{
		Description:   first.Description,
		Category:      first.Category,
		Amount:        first.Amount,
		IntervalDays:  intervalDays,
		Class:         classify(intervalDays),
		AlreadyMarked: first.Recurring,
	}, true
}

func classify(days int) Class {
	switch {
	case days <= 1:
		return Daily
	case days >= 6 && days <= 8:
		return Weekly
	case days >= 28 && days <= 32:
		return Monthly
	case days >= 88 && days <= 95:
		return Quarterly
	case days >= 360 && days <= 370:
		return Yearly
	}
	return Custom
}

func (d *Detector) notifyReminder(ctx context.Context, p Pattern) {
	req := notify.Request{
		Channel: notify.ChannelReminder,
		Title:   "Recurring Transaction Detected",
		Body: fmt.Sprintf("🔁 '%s' appears to be recurring every %d days. Mark as recurring?",
			p.Description, p.IntervalDays),
		DedupeKey: "recurring:" + NormalizeDescription(p.Description),
	}
	if err := d.notifier.Notify(ctx, req); err != nil {
		d.logger.Warn("notify failed", log.FieldError, err)
	}
}
