package strategy

import (
	"fmt"
	"math"

	"swing-traderv1/internal/model"
)

// Outcome is what a descriptor's Evaluate reports: whether the setup is
// present, the declared confidence, and the price levels. Levels are in
// unrounded rupees; the analyzer rounds at the publication boundary.
type Outcome struct {
	Valid      bool
	Confidence float64
	Notes      string
	Targets    []float64
	Stop       float64
}

// Descriptor is one declarative strategy: a setup predicate with
// deterministic level formulas and a fixed risk:reward declaration.
type Descriptor struct {
	Name       string
	RiskReward float64
	Evaluate   func(c *Context) Outcome
}

// Registry returns the strategy panel in registration order. The order is
// load-bearing: primary selection breaks quality-score ties by it.
func Registry() []Descriptor {
	return []Descriptor{
		{
			Name:       "VCP Setup",
			RiskReward: 3,
			Evaluate: func(c *Context) Outcome {
				r1 := c.HighestHigh(15) - c.LowestLow(15)
				r2 := c.HighestHigh(10) - c.LowestLow(10)
				r3 := c.HighestHigh(5) - c.LowestLow(5)
				contracting := r3 < r2*0.8 && r2 < r1*0.8
				valid := contracting && c.Price() > c.Snap.EMA50 && float64(c.Curr().Volume) < c.Snap.AvgVolume
				return Outcome{
					Valid:      valid,
					Confidence: 0.9,
					Notes:      pick(valid, "Volatility contracting significantly.", "No VCP."),
					Targets:    []float64{c.Price() * 1.10, c.Price() * 1.20},
					Stop:       c.LowestLow(3),
				}
			},
		},
		{
			Name:       "Trend Following (ADX)",
			RiskReward: 2.5,
			Evaluate: func(c *Context) Outcome {
				valid := c.Price() > c.Snap.EMA50 && c.Snap.ADX > 25 && c.Snap.EMA20 > c.Snap.EMA50
				return Outcome{
					Valid:      valid,
					Confidence: 0.85,
					Notes:      pick(valid, fmt.Sprintf("Strong Trend (ADX %.0f).", c.Snap.ADX), "Trend weak."),
					Targets:    []float64{c.Price() * 1.15},
					Stop:       c.Snap.EMA50,
				}
			},
		},
		{
			Name:       "Golden Cross",
			RiskReward: 3,
			Evaluate: func(c *Context) Outcome {
				fresh := c.Snap.EMA50 > c.Snap.SMA200 && c.Snap.PrevClose < c.Snap.SMA200 && c.Price() > c.Snap.SMA200
				zone := c.Snap.EMA50 > c.Snap.SMA200 && c.Price() > c.Snap.EMA20
				conf := 0.8
				notes := "No Golden Cross."
				if fresh {
					conf = 0.95
					notes = "Fresh Golden Cross!"
				} else if zone {
					notes = "Golden Cross Zone."
				}
				return Outcome{
					Valid:      fresh || zone,
					Confidence: conf,
					Notes:      notes,
					Targets:    []float64{c.Price() * 1.25},
					Stop:       c.Snap.SMA200,
				}
			},
		},
		{
			Name:       "RSI Divergence",
			RiskReward: 3,
			Evaluate: func(c *Context) Outcome {
				low5 := c.LowestLow(5)
				valid := low5 < c.LowestLow(15) && c.Snap.RSI > 30 && c.Snap.RSI < 50
				return Outcome{
					Valid:      valid,
					Confidence: 0.85,
					Notes:      pick(valid, "Bullish Divergence detected.", "No divergence."),
					Targets:    []float64{c.Price() * 1.08},
					Stop:       low5,
				}
			},
		},
		{
			Name:       "20-Day Breakout",
			RiskReward: 2,
			Evaluate: func(c *Context) Outcome {
				valid := c.Price() > c.Snap.Resistance && c.Snap.VolumeSpike
				return Outcome{
					Valid:      valid,
					Confidence: 0.92,
					Notes:      pick(valid, "Breaking 20-day high + Vol.", "Inside range."),
					Targets:    []float64{c.Price() * 1.10},
					Stop:       c.Price() * 0.97,
				}
			},
		},
		{
			Name:       "VWAP Reversion",
			RiskReward: 2.5,
			Evaluate: func(c *Context) Outcome {
				prevLow := model.Rupees(c.Prev(1).Low)
				valid := prevLow <= c.Snap.VWAP && c.Price() > c.Snap.VWAP && c.Condition == ConditionUptrend
				return Outcome{
					Valid:      valid,
					Confidence: 0.88,
					Notes:      pick(valid, "Bounced off VWAP.", "No VWAP interaction."),
					Targets:    []float64{c.Snap.Resistance},
					Stop:       c.Snap.VWAP * 0.98,
				}
			},
		},
		{
			Name:       "50 EMA Pullback",
			RiskReward: 3,
			Evaluate: func(c *Context) Outcome {
				dist := math.Abs(c.Price()-c.Snap.EMA50) / c.Price()
				valid := c.Condition == ConditionUptrend && dist < 0.015 && c.Price() >= c.Snap.EMA50
				return Outcome{
					Valid:      valid,
					Confidence: 0.9,
					Notes:      pick(valid, "Perfect pullback to 50 EMA.", "Not near 50 EMA."),
					Targets:    []float64{c.Price() * 1.1},
					Stop:       c.Snap.EMA50 * 0.97,
				}
			},
		},
		{
			Name:       "Bollinger Squeeze",
			RiskReward: 2.5,
			Evaluate: func(c *Context) Outcome {
				squeeze := c.Snap.Bands.Bandwidth() < 0.10
				valid := squeeze && c.Price() > c.Snap.Bands.Upper
				notes := "No squeeze."
				if valid {
					notes = "Breakout from Squeeze."
				} else if squeeze {
					notes = "Market Squeezing."
				}
				return Outcome{
					Valid:      valid,
					Confidence: 0.95,
					Notes:      notes,
					Targets:    []float64{c.Price() * 1.15},
					Stop:       c.Snap.Bands.Middle,
				}
			},
		},
		{
			Name:       "Volume Spread (VPA)",
			RiskReward: 2,
			Evaluate: func(c *Context) Outcome {
				curr := c.Curr()
				spread := model.Rupees(curr.High - curr.Low)
				avgSpread := (c.HighestHigh(10) - c.LowestLow(10)) / 10
				wide := spread > avgSpread*1.5
				valid := wide && c.Snap.VolumeSpike && curr.Close > curr.Open
				return Outcome{
					Valid:      valid,
					Confidence: 0.85,
					Notes:      pick(valid, "Wide spread green candle + Volume.", "Normal VPA."),
					Targets:    []float64{c.Price() + spread*2},
					Stop:       model.Rupees(curr.Low),
				}
			},
		},
		{
			Name:       "Stochastic Oversold Bounce",
			RiskReward: 2.5,
			Evaluate: func(c *Context) Outcome {
				valid := c.Snap.StochK < 20 && c.Snap.PrevClose < c.Price() && c.Condition == ConditionUptrend
				return Outcome{
					Valid:      valid,
					Confidence: 0.82,
					Notes:      pick(valid, "Stochastic < 20 turning up.", "Not oversold."),
					Targets:    []float64{c.Price() * 1.08},
					Stop:       c.LowestLow(5),
				}
			},
		},
		{
			Name:       "MACD Histogram Reversal",
			RiskReward: 2.8,
			Evaluate: func(c *Context) Outcome {
				valid := c.Snap.MACDPrev.Histogram < 0 && c.Snap.MACD.Histogram > 0
				return Outcome{
					Valid:      valid,
					Confidence: 0.84,
					Notes:      pick(valid, "MACD histogram flipped positive.", "No MACD flip."),
					Targets:    []float64{c.Price() * 1.12},
					Stop:       c.LowestLow(3),
				}
			},
		},
		{
			Name:       "3-Bar Inside-Up",
			RiskReward: 2.3,
			Evaluate: func(c *Context) Outcome {
				valid := false
				if len(c.Series) >= 4 {
					c1, c2, c3 := c.Prev(1), c.Prev(2), c.Prev(3)
					valid = c3.High > c2.High && c3.Low < c2.Low &&
						c2.High > c1.High && c2.Low < c1.Low &&
						c.Curr().Close > c1.High && c.Snap.VolumeSpike
				}
				return Outcome{
					Valid:      valid,
					Confidence: 0.86,
					Notes:      pick(valid, "Triple inside bars broken upward.", "No pattern."),
					Targets:    []float64{c.Price() * 1.09},
					Stop:       model.Rupees(c.Curr().Low),
				}
			},
		},
		{
			Name:       "RSI Swing Re-entry",
			RiskReward: 2.4,
			Evaluate: func(c *Context) Outcome {
				valid := c.Snap.RSI > 45 && c.Snap.RSI < 55 && c.Condition == ConditionUptrend && c.Snap.EMA20 > c.Snap.EMA50
				return Outcome{
					Valid:      valid,
					Confidence: 0.8,
					Notes:      pick(valid, "RSI mid-zone pullback.", "RSI out of zone."),
					Targets:    []float64{c.Price() * 1.07},
					Stop:       c.Snap.EMA50,
				}
			},
		},
		{
			Name:       "BhavCopy Pullback",
			RiskReward: 2.5,
			Evaluate: func(c *Context) Outcome {
				low5 := c.LowestLow(5)
				valid := c.Condition == ConditionUptrend && c.Snap.EMA20 > c.Snap.EMA50 &&
					c.Price() <= c.Snap.EMA20*1.01 && c.Price() <= low5*1.02 && c.Snap.RSI < 45
				base := math.Min(c.Snap.EMA50, low5)
				return Outcome{
					Valid:      valid,
					Confidence: 0.85,
					Notes:      pick(valid, "Mid-cap pullback to 20 EMA.", "No setup."),
					Targets:    []float64{c.Snap.EMA20 + (c.Snap.EMA20 - base)},
					Stop:       base,
				}
			},
		},
	}
}

// ByName finds a registered descriptor. Used by the backtester to replay
// a single strategy.
func ByName(name string) (Descriptor, bool) {
	for _, d := range Registry() {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
