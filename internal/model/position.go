package model

import "time"

// PositionStatus is the lifecycle state of a live position.
type PositionStatus string

const (
	PositionOpen    PositionStatus = "OPEN"
	PositionExiting PositionStatus = "EXITING"
	PositionClosed  PositionStatus = "CLOSED"
)

// Position is a live trade owned by the auto-trader for its lifetime.
// Created on entry fill, mutated on every tick while OPEN, moved to
// history once CLOSED. At most one per symbol at a time.
type Position struct {
	Symbol       string         `json:"symbol"`
	Token        string         `json:"token"`
	Exchange     string         `json:"exchange"`
	Strategy     string         `json:"strategy"`
	Status       PositionStatus `json:"status"`
	Qty          int64          `json:"qty"`
	EntryPrice   int64          `json:"entry_price"`  // paise
	StopLoss     int64          `json:"stop_loss"`    // paise, lifted by trailing
	InitialStop  int64          `json:"initial_stop"` // paise, the stop placed at entry
	Target       int64          `json:"target"`       // paise
	HighestSeen  int64          `json:"highest_seen"`
	LastPrice    int64          `json:"last_price"`
	EntryOrderID string         `json:"entry_order_id"`
	StopOrderID  string         `json:"stop_order_id,omitempty"`
	EntryTime    time.Time      `json:"entry_time"`
	ExitPrice    int64          `json:"exit_price,omitempty"`
	RealizedPnL  int64          `json:"realized_pnl"` // paise, set at close
	JournalID    int64          `json:"journal_id,omitempty"`
}

// InitialRisk is the per-share risk distance locked in at entry, in paise.
// The trailing stop trails the highest seen price by exactly this amount,
// so it must be measured against the entry-time stop, not the current
// (already-lifted) one.
func (p *Position) InitialRisk() int64 {
	return p.EntryPrice - p.InitialStop
}

// UnrealizedPnL computes mark-to-market profit/loss in paise.
func (p *Position) UnrealizedPnL() int64 {
	return (p.LastPrice - p.EntryPrice) * p.Qty
}
