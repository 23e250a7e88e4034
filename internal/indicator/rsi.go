package indicator

// RSI computes the Relative Strength Index with Wilder's smoothing:
// average gain/loss seeded over the first period, then rolled forward as
// avg = (avg*(period-1) + delta) / period.
//
// Returns the neutral 50 when closes is shorter than period+1, and 100
// when there are no losses in the window (Wilder convention).
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}
	gains, losses := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	p := float64(period)
	avgG := gains / p
	avgL := losses / p
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgG = (avgG*(p-1) + gain) / p
		avgL = (avgL*(p-1) + loss) / p
	}
	if avgL == 0 {
		return 100
	}
	rs := avgG / avgL
	return 100 - 100/(1+rs)
}
