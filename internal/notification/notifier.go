// Package notification provides alert delivery to external channels
// (Telegram, webhooks) for trading events.
package notification

import (
	"context"
	"log"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`

	// Trade carries the structured fields behind trading alerts so
	// machine consumers get more than free text. Nil for plain alerts
	// (startup, shutdown).
	Trade *TradeEvent `json:"trade,omitempty"`
}

// TradeEvent describes the order or close an alert reports on.
type TradeEvent struct {
	ProductID string   `json:"product_id"`
	Side      string   `json:"side,omitempty"`
	Size      float64  `json:"size,omitempty"`
	Price     float64  `json:"price,omitempty"`
	Status    string   `json:"status,omitempty"`
	PnL       *float64 `json:"pnl,omitempty"`
	Simulated bool     `json:"simulated,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development
// and as the fallback when no channel is configured).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans an alert out to several backends. Delivery is best-effort:
// every backend is attempted and the first error is returned.
type Multi struct {
	backends []Notifier
}

// NewMulti creates a fan-out notifier over the given backends.
func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	var first error
	for _, b := range m.backends {
		if err := b.Send(ctx, alert); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// TrySend delivers an alert and logs the failure instead of returning it.
// Notification failures must never abort trading flow. A nil notifier is
// a no-op.
func TrySend(ctx context.Context, n Notifier, alert Alert) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, alert); err != nil {
		log.Printf("[notify] delivery failed (%s): %v", alert.Title, err)
	}
}
