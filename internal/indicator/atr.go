package indicator

import (
	"math"

	"swing-traderv1/internal/model"
)

// ATR computes the 14-period Average True Range with Wilder smoothing.
// Returns 0 until period+1 bars are available.
func ATR(s model.Series, period int) float64 {
	if len(s) < period+1 {
		return 0
	}
	tr := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		h := model.Rupees(s[i].High)
		l := model.Rupees(s[i].Low)
		pc := model.Rupees(s[i-1].Close)
		tr = append(tr, math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc))))
	}
	atr := Sum(tr[:period]) / float64(period)
	for i := period; i < len(tr); i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
	}
	return atr
}
