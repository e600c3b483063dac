// Package notify defines the notification request model and the delivery port.
// The analysis engine decides whether and with what text to notify; delivery,
// channel routing and throttling belong to the implementation behind Notifier.
package notify

import (
	"context"

	"budgetpulse/internal/log"
)

// Channel routes a request to a delivery channel with its own priority.
type Channel string

const (
	ChannelAlert    Channel = "alert"    // smart financial alerts and suggestions
	ChannelReminder Channel = "reminder" // payment reminders and recurring transactions
	ChannelSummary  Channel = "summary"  // weekly and monthly summaries, low priority
	ChannelWarning  Channel = "warning"  // budget warnings and anomaly alerts, high priority
)

// Request is a single notification the engine asks the collaborator to deliver.
// DedupeKey is a stable identifier derived from the triggering result's content;
// it is not enforced to be globally unique.
type Request struct {
	Channel   Channel `json:"channel"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	DedupeKey string  `json:"dedupe_key"`
}

// Notifier accepts notification requests for delivery.
type Notifier interface {
	Notify(ctx context.Context, req Request) error
}

// Nop discards every request.
type Nop struct{}

func (Nop) Notify(context.Context, Request) error { return nil }

// LogNotifier writes requests to the structured log instead of delivering them.
// Used when no AMQP broker is configured.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a notifier that logs requests at info level.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotifier)}
}

func (n *LogNotifier) Notify(_ context.Context, req Request) error {
	n.logger.Info("notification",
		log.FieldChannel, string(req.Channel),
		"title", req.Title,
		"body", req.Body,
		log.FieldDedupeKey, req.DedupeKey,
	)
	return nil
}
