package strategy

import (
	"swing-traderv1/internal/indicator"
	"swing-traderv1/internal/model"
)

// Context is the immutable view a strategy predicate evaluates against:
// the raw candle window plus the indicator snapshot and trend condition.
// Built once per analysis call and shared by every descriptor.
type Context struct {
	Series    model.Series
	Snap      indicator.Snapshot
	Condition MarketCondition

	highs []float64
	lows  []float64
}

// NewContext computes the snapshot and market condition for a series.
func NewContext(s model.Series) *Context {
	snap := indicator.Compute(s)

	cond := ConditionRangeBound
	switch {
	case snap.Price > snap.EMA50 && snap.EMA50 > snap.EMA200:
		cond = ConditionUptrend
	case snap.Price < snap.EMA50 && snap.EMA50 < snap.EMA200:
		cond = ConditionDowntrend
	}

	return &Context{
		Series:    s,
		Snap:      snap,
		Condition: cond,
		highs:     s.Highs(),
		lows:      s.Lows(),
	}
}

// Price is the latest close in rupees.
func (c *Context) Price() float64 { return c.Snap.Price }

// Curr returns the latest candle.
func (c *Context) Curr() model.Candle { return c.Series.Last() }

// Prev returns the candle n bars before the latest (Prev(1) is the bar
// immediately before it).
func (c *Context) Prev(n int) model.Candle { return c.Series[len(c.Series)-1-n] }

// HighestHigh returns the highest high of the trailing n bars.
func (c *Context) HighestHigh(n int) float64 { return indicator.Highest(c.highs, n) }

// LowestLow returns the lowest low of the trailing n bars.
func (c *Context) LowestLow(n int) float64 { return indicator.Lowest(c.lows, n) }
