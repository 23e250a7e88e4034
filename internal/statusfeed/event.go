// Package statusfeed publishes the trading engine's state to observers.
// Events (entries, exits, alerts) flow through a lock-free ring from the
// trading loop into a WebSocket hub and an optional Redis publisher, so
// a slow or absent dashboard can never stall an order.
package statusfeed

import (
	"time"
)

// EventType classifies a feed event.
type EventType string

const (
	EventEntry   EventType = "ENTRY"
	EventExit    EventType = "EXIT"
	EventTrail   EventType = "TRAIL"
	EventAlert   EventType = "ALERT"
	EventBreaker EventType = "BREAKER"
)

// Event is a single trading event pushed to the feed.
type Event struct {
	Type    EventType `json:"type"`
	Symbol  string    `json:"symbol,omitempty"`
	Level   string    `json:"level,omitempty"`
	Message string    `json:"message"`
	PnL     float64   `json:"pnl,omitempty"` // rupees, exits only
	TS      time.Time `json:"ts"`
}
