package model

import "time"

// Tick is a live last-traded-price update for one instrument.
// Price is in paise (1 INR = 100 paise) to avoid float drift.
type Tick struct {
	Symbol   string    `json:"symbol"`
	Token    string    `json:"token"`
	Exchange string    `json:"exchange"`
	LTP      int64     `json:"ltp"` // paise
	TS       time.Time `json:"ts"`  // UTC timestamp
}
