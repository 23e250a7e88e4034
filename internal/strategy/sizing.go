package strategy

import "math"

// PositionSize converts an account risk percentage into a share quantity
// using an ATR-multiple stop distance. Returns 0 on a degenerate stop
// distance.
func PositionSize(accountEquity, riskPct, atr, atrMultiple float64) int64 {
	stopDistance := atr * atrMultiple
	if stopDistance <= 0 {
		return 0
	}
	riskBudget := accountEquity * (riskPct / 100)
	return int64(math.Floor(riskBudget / stopDistance))
}
