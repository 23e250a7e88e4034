package indicator

// StochK computes the 14-period Stochastic %K: where the latest close
// sits inside the window's high-low range. Returns the neutral 50 when
// the range is flat or closes is empty.
func StochK(closes, highs, lows []float64, period int) float64 {
	if len(closes) == 0 {
		return 50
	}
	c := closes[len(closes)-1]
	hh := Highest(highs, period)
	ll := Lowest(lows, period)
	if hh == ll {
		return 50
	}
	return (c - ll) / (hh - ll) * 100
}
