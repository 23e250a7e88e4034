package model

import "time"

// TradeRecord is the persisted form of a trade, written to the journal on
// entry and patched on exit. Journal failures never affect trading state.
type TradeRecord struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Exchange   string    `json:"exchange"`
	Strategy   string    `json:"strategy"`
	Qty        int64     `json:"qty"`
	EntryPrice int64     `json:"entry_price"` // paise
	StopLoss   int64     `json:"stop_loss"`
	Target     int64     `json:"target"`
	EntryTime  time.Time `json:"entry_time"`
	ExitPrice  int64     `json:"exit_price,omitempty"`
	ExitTime   time.Time `json:"exit_time,omitempty"`
	PnL        int64     `json:"pnl"` // paise, set at close
	Status     string    `json:"status"`
}
