package model

import (
	"fmt"
	"time"
)

// MinSeriesLen is the warm-up floor: analysis refuses to run on fewer bars.
const MinSeriesLen = 60

// Candle represents one daily OHLCV bar for a single instrument.
// All prices are in paise (int64) to avoid floating-point drift.
type Candle struct {
	Token    string    `json:"token"`
	Exchange string    `json:"exchange"`
	Date     time.Time `json:"date"`   // session date (IST midnight)
	Open     int64     `json:"open"`   // paise
	High     int64     `json:"high"`   // paise
	Low      int64     `json:"low"`    // paise
	Close    int64     `json:"close"`  // paise
	Volume   int64     `json:"volume"` // shares traded
}

// Key returns a unique key for this candle's instrument: "exchange:token".
func (c *Candle) Key() string {
	return c.Exchange + ":" + c.Token
}

// Series is a contiguous, date-ascending sequence of daily candles.
type Series []Candle

// Validate checks that the series is date-ascending and long enough for
// analysis. Returns a descriptive error otherwise.
func (s Series) Validate() error {
	if len(s) < MinSeriesLen {
		return fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(s), MinSeriesLen)
	}
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			return fmt.Errorf("series not date-ascending at bar %d (%s then %s)",
				i, s[i-1].Date.Format("2006-01-02"), s[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Last returns the most recent candle. Panics on an empty series; callers
// validate length first.
func (s Series) Last() Candle { return s[len(s)-1] }

// Closes returns all closing prices converted to rupees.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = Rupees(c.Close)
	}
	return out
}

// Highs returns all high prices converted to rupees.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = Rupees(c.High)
	}
	return out
}

// Lows returns all low prices converted to rupees.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = Rupees(c.Low)
	}
	return out
}

// Volumes returns all volumes as float64 for indicator math.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = float64(c.Volume)
	}
	return out
}
