package portfolio

import (
	"sync"
	"time"
)

// ClosedTrade is one completed round trip recorded in the session ledger.
type ClosedTrade struct {
	Symbol     string    `json:"symbol"`
	Strategy   string    `json:"strategy"`
	Qty        int64     `json:"qty"`
	EntryPrice int64     `json:"entry_price"` // paise
	ExitPrice  int64     `json:"exit_price"`  // paise
	PnL        int64     `json:"pnl"`         // paise
	ExitReason string    `json:"exit_reason"`
	ExitTime   time.Time `json:"exit_time"`
}

// Ledger accumulates realized P&L for the current session. Unrealized P&L
// lives on the Book; this only sees completed exits.
type Ledger struct {
	mu       sync.RWMutex
	closed   []ClosedTrade
	realized int64
}

// NewLedger creates an empty session ledger.
func NewLedger() *Ledger {
	return &Ledger{closed: make([]ClosedTrade, 0, 64)}
}

// Record adds a completed trade and returns the running realized P&L.
func (l *Ledger) Record(tr ClosedTrade) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = append(l.closed, tr)
	l.realized += tr.PnL
	return l.realized
}

// RealizedPnL returns the session's realized P&L in paise.
func (l *Ledger) RealizedPnL() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.realized
}

// Closed returns a snapshot of all completed trades this session.
func (l *Ledger) Closed() []ClosedTrade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]ClosedTrade, len(l.closed))
	copy(cp, l.closed)
	return cp
}

// Summary is the session-level P&L rollup.
type Summary struct {
	RealizedPnL   int64 `json:"realized_pnl"`
	UnrealizedPnL int64 `json:"unrealized_pnl"`
	TotalPnL      int64 `json:"total_pnl"`
	ClosedTrades  int   `json:"closed_trades"`
	OpenPositions int   `json:"open_positions"`
}

// Summarize combines the ledger with the current book state.
func (l *Ledger) Summarize(book *Book) Summary {
	l.mu.RLock()
	realized := l.realized
	closed := len(l.closed)
	l.mu.RUnlock()

	unrealized := book.TotalUnrealizedPnL()
	return Summary{
		RealizedPnL:   realized,
		UnrealizedPnL: unrealized,
		TotalPnL:      realized + unrealized,
		ClosedTrades:  closed,
		OpenPositions: book.Count(),
	}
}
