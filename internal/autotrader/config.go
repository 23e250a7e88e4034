package autotrader

import (
	"fmt"
	"time"

	"swing-traderv1/internal/model"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultMinConfidence    = 0.80
	DefaultCooldown         = 300 * time.Second
	DefaultLookbackDays     = 250
	DefaultTargetMultiplier = 2.0
)

// Position sizing and trailing constants.
const (
	maxPositionFraction = 0.25 // no single position above 25% of capital
	trailActivationPct  = 0.02 // trail only after price advances 2% past entry
)

// Config is the trader's construction-time configuration. One value,
// validated up front; the manager never reloads it.
type Config struct {
	Capital          float64 // rupees
	RiskPerTrade     float64 // fraction of capital risked per trade
	MaxDailyLoss     float64 // rupees, positive
	MaxOpenPositions int
	MinConfidence    float64 // entry gate threshold, default 0.80
	TargetMultiplier float64 // target = entry + risk distance * multiplier, default 2
	TrailingEnabled  bool
	Cooldown         time.Duration // per-symbol re-entry cooldown, default 300s
	LookbackDays     int           // daily bars fetched per evaluation
	Watchlist        []model.Instrument
}

// Validate rejects configurations that would make the sizing or risk
// arithmetic meaningless. Called by New; a bad config never trades.
func (c *Config) Validate() error {
	if c.Capital <= 0 {
		return fmt.Errorf("autotrader config: capital must be positive, got %.2f", c.Capital)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade >= 1 {
		return fmt.Errorf("autotrader config: risk per trade must be in (0, 1), got %.4f", c.RiskPerTrade)
	}
	if c.MaxDailyLoss <= 0 {
		return fmt.Errorf("autotrader config: max daily loss must be positive, got %.2f", c.MaxDailyLoss)
	}
	if c.MaxOpenPositions < 1 {
		return fmt.Errorf("autotrader config: max open positions must be >= 1, got %d", c.MaxOpenPositions)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("autotrader config: min confidence must be in [0, 1], got %.2f", c.MinConfidence)
	}
	if c.TargetMultiplier < 0 {
		return fmt.Errorf("autotrader config: target multiplier must be positive, got %.2f", c.TargetMultiplier)
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("autotrader config: empty watchlist")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MinConfidence == 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.Cooldown == 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	if c.TargetMultiplier == 0 {
		c.TargetMultiplier = DefaultTargetMultiplier
	}
}
