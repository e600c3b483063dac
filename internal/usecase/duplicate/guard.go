// Package duplicate flags a candidate new transaction as a likely re-entry of
// an existing one, ranking candidates by a composite similarity score.
package duplicate

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
	// timeWindow is how far apart two entries may be and still be duplicates.
	timeWindow = 30 * time.Minute
	// amountTolerance is the maximum absolute amount difference in dollars.
	amountTolerance = 0.01
	// descriptionThreshold is the minimum normalized-description similarity.
	descriptionThreshold = 0.70

	amountWeight      = 0.4
	descriptionWeight = 0.4
	timeWeight        = 0.2
)

// Confidence is the ordinal duplicate-likelihood bucket.
type Confidence string

const (
	ConfidenceNone     Confidence = "NONE"
	ConfidenceLow      Confidence = "LOW"
	ConfidenceMedium   Confidence = "MEDIUM"
	ConfidenceHigh     Confidence = "HIGH"
	ConfidenceVeryHigh Confidence = "VERY_HIGH"
)

// Candidate pairs a potential duplicate with its composite score.
type Candidate struct {
	Transaction domain.Transaction
	Score       float64
}

// CheckResult reports whether the new transaction looks like a re-entry.
// Candidates are ranked by descending composite score.
type CheckResult struct {
	IsDuplicate bool
	Candidates  []Candidate
	Confidence  Confidence
	Message     string
}

// Guard performs duplicate checks against an existing-transaction snapshot.
type Guard struct {
	notifier notify.Notifier
	logger   *log.Logger
}

// NewGuard creates a new Guard instance
func NewGuard(notifier notify.Notifier, logger *log.Logger) *Guard {
	return &Guard{
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentDuplicate),
	}
}

// Check screens the existing transactions for entries within 30 minutes, of
// the same type, within a cent of the same amount and with description
// similarity above 0.70. Confidence comes from the best candidate's composite
// score; HIGH confidence requests an alert notification.
func (g *Guard) Check(ctx context.Context, newTx domain.Transaction, existing []domain.Transaction) CheckResult {
	var candidates []Candidate
	for _, tx := range existing {
		if isPotentialDuplicate(newTx, tx) {
			candidates = append(candidates, Candidate{
				Transaction: tx,
				Score:       compositeScore(newTx, tx),
			})
		}
	}

	if len(candidates) == 0 {
		return CheckResult{Confidence: ConfidenceNone}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	best := candidates[0]
	confidence := confidenceTier(best.Score)

	if confidence == ConfidenceHigh {
		g.notifyDuplicate(ctx, newTx)
	}

	return CheckResult{
		IsDuplicate: true,
		Candidates:  candidates,
		Confidence:  confidence,
		Message:     duplicateMessage(newTx, best.Transaction, confidence),
	}
}

func isPotentialDuplicate(newTx, existing domain.Transaction) bool {
	if absDuration(newTx.Date.Sub(existing.Date)) > timeWindow {
		return false
	}
	amountDiff := newTx.Amount.Sub(existing.Amount).Abs().InexactFloat64()
	if amountDiff > amountTolerance {
		return false
	}
	if newTx.Type != existing.Type {
		return false
	}
	return DescriptionSimilarity(newTx.Description, existing.Description) > descriptionThreshold
}

// compositeScore blends amount similarity (40%), description similarity (40%)
// and time proximity (20%).
func compositeScore(a, b domain.Transaction) float64 {
	amtA := a.Amount.InexactFloat64()
	amtB := b.Amount.InexactFloat64()
	amountSimilarity := math.Max(0, 1-math.Abs(amtA-amtB)/math.Max(amtA, amtB))

	descriptionSimilarity := DescriptionSimilarity(a.Description, b.Description)

	timeDiff := absDuration(a.Date.Sub(b.Date))
	timeProximity := math.Max(0, 1-float64(timeDiff)/float64(timeWindow))

	return amountSimilarity*amountWeight +
		descriptionSimilarity*descriptionWeight +
		timeProximity*timeWeight
}

// DescriptionSimilarity is 1 minus the normalized Levenshtein distance over
// the normalized descriptions; two empty descriptions count as identical.
func DescriptionSimilarity(a, b string) float64 {
	normA := normalizeDescription(a)
	normB := normalizeDescription(b)

	maxLen := len(normA)
	if len(normB) > maxLen {
		maxLen = len(normB)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(normA, normB))/float64(maxLen)
}

// normalizeDescription lowercases, strips non-alphanumerics and collapses
// whitespace.
func normalizeDescription(description string) string {
	lower := strings.ToLower(description)
	var b strings.Builder
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// levenshtein is the classic two-row dynamic-programming edit distance.
func levenshtein(s1, s2 string) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := 0; j <= len(s2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			if s1[i-1] == s2[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min3(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func confidenceTier(score float64) Confidence {
	switch {
	case score >= 0.95:
		return ConfidenceVeryHigh
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.75:
		return ConfidenceMedium
	case score >= 0.65:
		return ConfidenceLow
	}
	return ConfidenceNone
}

func duplicateMessage(newTx, existing domain.Transaction, confidence Confidence) string {
	minutes := int64(absDuration(newTx.Date.Sub(existing.Date)) / time.Minute)
	confidenceText := strings.ReplaceAll(strings.ToLower(string(confidence)), "_", " ")
	return fmt.Sprintf("Potential duplicate detected (%s confidence): Similar transaction of $%.2f for '%s' was recorded %d minutes ago.",
		confidenceText, existing.Amount.InexactFloat64(), existing.Description, minutes)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func (g *Guard) notifyDuplicate(ctx context.Context, newTx domain.Transaction) {
	req := notify.Request{
		Channel: notify.ChannelAlert,
		Title:   "Duplicate Transaction Detected",
		Body: fmt.Sprintf("❗ This looks like a duplicate: $%.2f for %s. Proceed anyway?",
			newTx.Amount.InexactFloat64(), newTx.Description),
		DedupeKey: "duplicate:" + newTx.ID.String(),
	}
	if err := g.notifier.Notify(ctx, req); err != nil {
		g.logger.Warn("notify failed", log.FieldError, err)
	}
}
