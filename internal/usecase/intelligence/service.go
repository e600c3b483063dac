// Package intelligence coordinates the full analysis pipeline: it snapshots
// the repositories once, fans the snapshot out to every analyzer, merges their
// outputs into a single insight bundle and publishes it to subscribers.
package intelligence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetpulse/internal/domain"
	"budgetpulse/internal/log"
	"budgetpulse/internal/notify"
	"budgetpulse/internal/usecase/anomaly"
	"budgetpulse/internal/usecase/categorize"
	"budgetpulse/internal/usecase/cooldown"
	"budgetpulse/internal/usecase/duplicate"
	"budgetpulse/internal/usecase/efficiency"
	"budgetpulse/internal/usecase/forecast"
	"budgetpulse/internal/usecase/goal"
	"budgetpulse/internal/usecase/recurring"
	"budgetpulse/internal/usecase/summary"
)

// maxConcurrentAnalyzers bounds the fan-out so a large snapshot does not run
// every analyzer at once.
const maxConcurrentAnalyzers = 4

// AnalyzerFailure records one analyzer that did not complete. A failed
// analyzer never aborts the run; its section of the bundle stays zero.
type AnalyzerFailure struct {
	Analyzer string
	Err      error
}

// InsightBundle is the merged output of one complete analysis run.
type InsightBundle struct {
	Insights          []string
	Recurring         []recurring.Pattern
	Anomalies         []anomaly.Result
	Forecast          forecast.Result
	CategoryForecasts map[string]float64
	Efficiency        []efficiency.Result
	Goals             []goal.Recommendation
	Weekly            summary.WeeklySummary
	Failures          []AnalyzerFailure
	GeneratedAt       time.Time
}

// Service is the analysis coordinator.
type Service struct {
	transactions domain.TransactionRepository
	budgets      domain.BudgetRepository
	logger       *log.Logger
	now          func() time.Time

	recurring  *recurring.Detector
	anomaly    *anomaly.Detector
	forecast   *forecast.Engine
	efficiency *efficiency.Tracker
	duplicate  *duplicate.Guard
	cooldown   *cooldown.Detector
	goals      *goal.Recommender
	summaries  *summary.Generator

	mu     sync.RWMutex
	latest *InsightBundle
	subs   []chan InsightBundle
}

// NewService creates a new Service instance
func NewService(
	transactions domain.TransactionRepository,
	budgets domain.BudgetRepository,
	notifier notify.Notifier,
	logger *log.Logger,
) *Service {
	return &Service{
		transactions: transactions,
		budgets:      budgets,
		logger:       logger.WithComponent(log.ComponentIntelligence),
		now:          time.Now,
		recurring:    recurring.NewDetector(notifier, logger),
		anomaly:      anomaly.NewDetector(notifier, logger),
		forecast:     forecast.NewEngine(notifier, logger),
		efficiency:   efficiency.NewTracker(notifier, logger),
		duplicate:    duplicate.NewGuard(notifier, logger),
		cooldown:     cooldown.NewDetector(notifier, logger),
		goals:        goal.NewRecommender(notifier, logger),
		summaries:    summary.NewGenerator(notifier, logger),
	}
}

// WithClock overrides the service clock and the clocks of every
// time-dependent analyzer; used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.forecast.WithClock(now)
	s.efficiency.WithClock(now)
	s.cooldown.WithClock(now)
	s.goals.WithClock(now)
	s.summaries.WithClock(now)
	return s
}

// RunCompleteAnalysis snapshots both repositories, runs every analyzer against
// the same snapshot and merges the results. Analyzer panics are contained and
// reported as failures. The finished bundle replaces the latest one and is
// broadcast to subscribers.
func (s *Service) RunCompleteAnalysis(ctx context.Context) (InsightBundle, error) {
	started := s.now()

	transactions, err := s.transactions.List(ctx)
	if err != nil {
		return InsightBundle{}, fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return InsightBundle{}, fmt.Errorf("list budgets: %w", err)
	}

	bundle := InsightBundle{GeneratedAt: started}

	if len(transactions) == 0 {
		bundle.Insights = []string{"Add some transactions to get AI insights!"}
		s.publish(bundle)
		return bundle, nil
	}

	var failuresMu sync.Mutex
	fail := func(analyzer string, err error) {
		failuresMu.Lock()
		bundle.Failures = append(bundle.Failures, AnalyzerFailure{Analyzer: analyzer, Err: err})
		failuresMu.Unlock()
		s.logger.Error("analyzer failed", log.FieldOperation, analyzer, log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAnalyzers)

	run := func(analyzer string, fn func(context.Context)) {
		g.Go(func() error {
			protect(analyzer, fail, func() { fn(gctx) })
			return nil
		})
	}

	run("recurring", func(ctx context.Context) {
		bundle.Recurring = s.recurring.Detect(ctx, transactions)
	})
	run("anomaly", func(ctx context.Context) {
		bundle.Anomalies = s.anomaly.Detect(ctx, transactions)
	})
	run("forecast", func(ctx context.Context) {
		bundle.Forecast = s.forecast.Generate(ctx, transactions)
		bundle.CategoryForecasts = s.forecast.CategoryForecasts(transactions)
	})
	run("efficiency", func(ctx context.Context) {
		bundle.Efficiency = s.efficiency.Analyze(ctx, budgets, transactions)
	})
	run("goal", func(ctx context.Context) {
		bundle.Goals = s.goals.Recommend(ctx, transactions)
	})
	run("summary", func(ctx context.Context) {
		bundle.Weekly = s.summaries.Weekly(ctx, transactions, budgets)
	})

	// Analyzers only fail by panicking, so the group error is always nil.
	_ = g.Wait()

	bundle.Insights = mergeInsights(bundle)

	s.logger.Info("analysis complete",
		log.FieldCount, len(transactions),
		log.FieldDuration, s.now().Sub(started),
		"insights", len(bundle.Insights),
		"failures", len(bundle.Failures),
	)

	s.publish(bundle)
	return bundle, nil
}

// Latest returns the bundle from the most recently completed run. Runs
// replace it in completion order, so a slow stale run can overwrite a newer
// one only if it finishes later.
func (s *Service) Latest() (InsightBundle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return InsightBundle{}, false
	}
	return *s.latest, true
}

// Subscribe returns a channel receiving every future bundle. The channel has
// a one-slot buffer; a slow consumer sees the newest bundle, not a backlog.
func (s *Service) Subscribe() <-chan InsightBundle {
	ch := make(chan InsightBundle, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Service) publish(bundle InsightBundle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &bundle
	for _, ch := range s.subs {
		select {
		case ch <- bundle:
		default:
			// Drop the stale bundle and replace it with the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- bundle:
			default:
			}
		}
	}
}

// CheckDuplicate screens a candidate transaction against the stored ones.
func (s *Service) CheckDuplicate(ctx context.Context, tx domain.Transaction) (duplicate.CheckResult, error) {
	existing, err := s.transactions.List(ctx)
	if err != nil {
		return duplicate.CheckResult{}, fmt.Errorf("list transactions: %w", err)
	}
	return s.duplicate.Check(ctx, tx, existing), nil
}

// AnalyzeCooldown runs the rapid-spending analysis on the current snapshot.
func (s *Service) AnalyzeCooldown(ctx context.Context) (cooldown.Result, error) {
	transactions, err := s.transactions.List(ctx)
	if err != nil {
		return cooldown.Result{}, fmt.Errorf("list transactions: %w", err)
	}
	return s.cooldown.Analyze(ctx, transactions), nil
}

// RunAnalysis runs a complete analysis, discarding the bundle. It exists so
// the service satisfies the scheduler's job contract.
func (s *Service) RunAnalysis(ctx context.Context) error {
	_, err := s.RunCompleteAnalysis(ctx)
	return err
}

// RunWeeklySummary builds the weekly rollup from the current snapshot, which
// also triggers the weekly summary notification.
func (s *Service) RunWeeklySummary(ctx context.Context) error {
	_, err := s.WeeklySummary(ctx)
	return err
}

// WeeklySummary builds the 7-day rollup from the current snapshot.
func (s *Service) WeeklySummary(ctx context.Context) (summary.WeeklySummary, error) {
	transactions, err := s.transactions.List(ctx)
	if err != nil {
		return summary.WeeklySummary{}, fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return summary.WeeklySummary{}, fmt.Errorf("list budgets: %w", err)
	}
	return s.summaries.Weekly(ctx, transactions, budgets), nil
}

// MonthlySummary builds the 30-day rollup from the current snapshot.
func (s *Service) MonthlySummary(ctx context.Context) (summary.MonthlySummary, error) {
	transactions, err := s.transactions.List(ctx)
	if err != nil {
		return summary.MonthlySummary{}, fmt.Errorf("list transactions: %w", err)
	}
	budgets, err := s.budgets.List(ctx)
	if err != nil {
		return summary.MonthlySummary{}, fmt.Errorf("list budgets: %w", err)
	}
	return s.summaries.Monthly(ctx, transactions, budgets), nil
}

// Categorize suggests a category for a transaction description.
func (s *Service) Categorize(description string) string {
	return categorize.Suggest(description)
}

// protect runs one analyzer contribution and converts a panic into a recorded
// failure so a single analyzer can never sink the whole batch.
func protect(analyzer string, fail func(string, error), fn func()) {
	defer func() {
		if r := recover(); r != nil {
			fail(analyzer, fmt.Errorf("panic: %v", r))
		}
	}()
	fn()
}

// mergeInsights assembles the human-readable insight list in a fixed section
// order: recurring, anomalies, forecast, efficiency, goals.
func mergeInsights(b InsightBundle) []string {
	var insights []string

	for i, p := range b.Recurring {
		if i >= 3 {
			break
		}
		insights = append(insights, fmt.Sprintf("🔁 Detected recurring pattern: %s every %d days ($%.2f)",
			p.Description, p.IntervalDays, p.Amount.InexactFloat64()))
	}
	if len(b.Recurring) > 3 {
		insights = append(insights, fmt.Sprintf("📅 You have %d recurring transaction patterns. Consider automating these!",
			len(b.Recurring)))
	}

	for _, a := range b.Anomalies {
		if a.Severity == anomaly.SeverityHigh || a.Severity == anomaly.SeverityCritical {
			insights = append(insights, "⚠️ "+a.Description)
		}
	}
	if len(b.Anomalies) > 5 {
		insights = append(insights, "🔍 Multiple unusual spending patterns detected. Review your recent transactions.")
	}

	if b.Forecast.Savings < 0 {
		insights = append(insights, fmt.Sprintf("📉 Forecast: Projected deficit of $%.2f next month", -b.Forecast.Savings))
	} else if b.Forecast.Savings > 1000 {
		insights = append(insights, fmt.Sprintf("💰 Forecast: Projected savings of $%.2f next month!", b.Forecast.Savings))
	}
	switch b.Forecast.Trend {
	case forecast.Increasing:
		insights = append(insights, "📈 Spending trend is increasing. Monitor expenses closely.")
	case forecast.Decreasing:
		insights = append(insights, "📉 Spending trend is decreasing. Good financial discipline!")
	}

	for _, e := range b.Efficiency {
		switch {
		case e.Status == efficiency.OverBudget:
			insights = append(insights, fmt.Sprintf("🚨 %s budget exceeded by $%.2f",
				e.Category, e.ActualSpent-e.BudgetAmount))
		case e.Status == efficiency.SpendingTooFast:
			insights = append(insights, fmt.Sprintf("⚡ %s: %.0f%% used with %d days remaining",
				e.Category, e.PctBudgetUsed, e.DaysRemaining))
		case e.Status == efficiency.OnTrack && e.EfficiencyScore > 90:
			insights = append(insights, fmt.Sprintf("✅ %s budget is perfectly on track!", e.Category))
		}
	}

	for _, g := range b.Goals {
		if g.Priority == goal.PriorityHigh {
			insights = append(insights, fmt.Sprintf("🎯 Goal suggestion: %s", g.Title))
		}
	}

	return insights
}
