package portfolio

import (
	"log"
	"sync"
)

// RiskLimits defines the hard limits the entry gate enforces.
type RiskLimits struct {
	MaxOpenPositions int   `json:"max_open_positions"`
	MaxDailyLoss     int64 `json:"max_daily_loss"` // paise, positive number
}

// DefaultRiskLimits returns conservative defaults.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxOpenPositions: 3,
		MaxDailyLoss:     500000, // ₹5,000
	}
}

// RiskManager gates new entries. A breached daily-loss limit halts new
// entries for the rest of the session but never blocks exits.
type RiskManager struct {
	mu     sync.RWMutex
	limits RiskLimits
	book   *Book

	dailyPnL int64
	breached bool
}

// NewRiskManager creates a RiskManager over the given book.
func NewRiskManager(limits RiskLimits, book *Book) *RiskManager {
	return &RiskManager{limits: limits, book: book}
}

// CanEnter checks whether opening a position in symbol is allowed.
// Returns false with a reason when a limit blocks the entry.
func (rm *RiskManager) CanEnter(symbol string) (bool, string) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if rm.breached {
		return false, "daily loss limit breached"
	}
	if _, open := rm.book.Get(symbol); open {
		return false, "position already open for symbol"
	}
	if rm.book.Count() >= rm.limits.MaxOpenPositions {
		return false, "max open positions reached"
	}
	return true, ""
}

// RecordPnL folds a realized P&L into the daily total and latches the
// breaker when the loss limit is crossed.
func (rm *RiskManager) RecordPnL(pnl int64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.dailyPnL += pnl
	if !rm.breached && rm.dailyPnL <= -rm.limits.MaxDailyLoss {
		rm.breached = true
		log.Printf("[risk] daily loss limit hit: pnl=%d limit=%d, new entries halted",
			rm.dailyPnL, rm.limits.MaxDailyLoss)
	}
}

// Breached reports whether the daily-loss breaker has tripped.
func (rm *RiskManager) Breached() bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.breached
}

// DailyPnL returns the session's realized P&L in paise.
func (rm *RiskManager) DailyPnL() int64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.dailyPnL
}

// ResetDaily clears the daily counter and the breaker. Call at session start.
func (rm *RiskManager) ResetDaily() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.dailyPnL = 0
	rm.breached = false
}
