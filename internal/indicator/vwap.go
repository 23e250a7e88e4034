package indicator

import "swing-traderv1/internal/model"

// VWAP computes the volume-weighted typical price over a trailing n-bar
// window. Trailing, not session-anchored: on daily candles a session
// anchor would collapse to a single bar. Returns 0 on zero total volume.
func VWAP(s model.Series, n int) float64 {
	start := 0
	if len(s) > n {
		start = len(s) - n
	}
	pv, vol := 0.0, 0.0
	for _, c := range s[start:] {
		tp := (model.Rupees(c.High) + model.Rupees(c.Low) + model.Rupees(c.Close)) / 3
		pv += tp * float64(c.Volume)
		vol += float64(c.Volume)
	}
	if vol == 0 {
		return 0
	}
	return pv / vol
}
