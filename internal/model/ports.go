package model

import (
	"context"
	"time"
)

// ── Collaborator Ports ──
// Narrow interfaces to the surrounding system. The engine depends only on
// these; concrete implementations live in marketdata, execution and
// statusfeed packages.

// HistoricalSource supplies daily candle history for an instrument.
type HistoricalSource interface {
	// GetSeries returns up to lookback daily candles ending at the most
	// recent session, date-ascending.
	GetSeries(ctx context.Context, inst Instrument, lookback int) (Series, error)
}

// LiveQuoter supplies the current traded price for an instrument.
type LiveQuoter interface {
	// GetLTP returns the last traded price in paise.
	GetLTP(ctx context.Context, inst Instrument) (int64, error)
}

// TickSource pushes live price updates into a channel. The auto-trader
// reacts to ticks only; it carries no polling or timer mechanism of its
// own, so tests can drive it with synthetic sequences.
type TickSource interface {
	// Run blocks, delivering ticks to out until ctx is cancelled.
	Run(ctx context.Context, out chan<- Tick) error
}

// TradeJournal records trade open/close events. Failures are logged by
// callers and never affect trading state.
type TradeJournal interface {
	// SaveTrade inserts an opened trade and returns its journal id.
	SaveTrade(rec TradeRecord) (int64, error)

	// UpdateTrade patches exit fields on a previously saved trade.
	UpdateTrade(id int64, exitPrice int64, exitTime time.Time, pnl int64, status string) error

	// OpenTrades returns trades still marked open, for session restore.
	OpenTrades() ([]TradeRecord, error)

	// Close releases underlying resources.
	Close() error
}
