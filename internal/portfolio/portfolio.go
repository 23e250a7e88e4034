// Package portfolio tracks the live position book, session P&L, and the
// risk gate that decides whether a new entry is allowed.
//
// The book holds at most one position per symbol. The auto-trader is the
// only writer, but it must route every position mutation through the book
// so that snapshot reads (Open) never observe a half-written position.
package portfolio

import (
	"sync"

	"swing-traderv1/internal/model"
)

// Book tracks all open positions, keyed by symbol.
type Book struct {
	mu        sync.RWMutex
	positions map[string]*model.Position
}

// NewBook creates an empty position book.
func NewBook() *Book {
	return &Book{
		positions: make(map[string]*model.Position),
	}
}

// Add registers a position for its symbol, replacing any previous entry.
func (b *Book) Add(pos *model.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[pos.Symbol] = pos
}

// Get returns the position for a symbol, if any.
func (b *Book) Get(symbol string) (*model.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	pos, ok := b.positions[symbol]
	return pos, ok
}

// Remove drops a symbol's position from the book.
func (b *Book) Remove(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, symbol)
}

// UpdatePrice marks a symbol's position to the latest traded price and
// ratchets HighestSeen. No-op when the symbol has no position.
func (b *Book) UpdatePrice(symbol string, ltp int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos, ok := b.positions[symbol]; ok {
		pos.LastPrice = ltp
		if ltp > pos.HighestSeen {
			pos.HighestSeen = ltp
		}
	}
}

// Mutate runs fn on the symbol's position under the write lock. All
// position field updates after Add must go through here; writing to a
// position pointer directly races the snapshot copies taken by Open.
// No-op when the symbol has no position.
func (b *Book) Mutate(symbol string, fn func(*model.Position)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos, ok := b.positions[symbol]; ok {
		fn(pos)
	}
}

// Count returns the number of open positions.
func (b *Book) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}

// Open returns a snapshot copy of all positions.
func (b *Book) Open() []model.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]model.Position, 0, len(b.positions))
	for _, p := range b.positions {
		result = append(result, *p)
	}
	return result
}

// TotalUnrealizedPnL returns the unrealized P&L across the book in paise.
func (b *Book) TotalUnrealizedPnL() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var total int64
	for _, p := range b.positions {
		total += p.UnrealizedPnL()
	}
	return total
}
