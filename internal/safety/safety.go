// Package safety pre-filters an instrument/series pair before strategy
// evaluation is trusted: illiquid counters and circuit-locked candles are
// rejected outright so they can never produce a spurious BUY.
package safety

import (
	"fmt"

	"swing-traderv1/internal/indicator"
	"swing-traderv1/internal/model"
)

// Liquidity floors on 20-bar average volume, in shares. BSE gets the
// lower absolute floor but is effectively stricter for its volumes:
// operator-driven counters there trade thin.
const (
	MinNSEVolume = 100000
	MinBSEVolume = 50000
)

// flatRangeRatio: a (high-low)/low under 0.5% counts as flat price action.
const flatRangeRatio = 0.005

// Rejection explains why a series was blocked from evaluation.
// Not an error: a deliberate NO-TRADE outcome, recoverable by re-running
// later.
type Rejection struct {
	Reason string
}

// Check runs the liquidity and circuit-lock filters. Returns nil on pass,
// a Rejection with a human-readable reason otherwise. Runs before any
// strategy computation.
func Check(s model.Series, exchange string) *Rejection {
	avgVol := indicator.SMA(s.Volumes(), indicator.VolumePeriod)
	if r := checkLiquidity(avgVol, exchange); r != nil {
		return r
	}
	return checkCircuitLock(s.Last())
}

func checkLiquidity(avgVolume float64, exchange string) *Rejection {
	floor := float64(MinNSEVolume)
	if exchange == "BSE" {
		floor = MinBSEVolume
	}
	if avgVolume < floor {
		return &Rejection{Reason: fmt.Sprintf("Liquidity Too Low (Avg Vol: %d)", int64(avgVolume))}
	}
	return nil
}

// checkCircuitLock flags a bar stuck at its high with a flat range: the
// upper-circuit pattern where buying is impossible or dangerous.
func checkCircuitLock(c model.Candle) *Rejection {
	if c.Low <= 0 {
		return nil
	}
	isFlat := float64(c.High-c.Low)/float64(c.Low) < flatRangeRatio
	isAtHigh := c.Close == c.High
	if isAtHigh && isFlat {
		return &Rejection{Reason: "Circuit Locked / Flat Price Action (Risk of Trap)"}
	}
	return nil
}
