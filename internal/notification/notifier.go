// Package notification provides alert delivery to external channels
// (Telegram, Discord, webhooks, etc.) for trading events.
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
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Fanout delivers each alert to every backend. Delivery failures are
// logged per backend and do not stop the others.
type Fanout struct {
	backends []Notifier
}

// NewFanout builds a fan-out notifier. Nil backends are skipped.
func NewFanout(backends ...Notifier) *Fanout {
	f := &Fanout{}
	for _, b := range backends {
		if b != nil {
			f.backends = append(f.backends, b)
		}
	}
	return f
}

func (f *Fanout) Send(ctx context.Context, alert Alert) error {
	for _, b := range f.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend %T failed: %v", b, err)
		}
	}
	return nil
}
