package indicator

import "math"

// ADX computes the Average Directional Index over 14 periods using
// Wilder's directional-movement smoothing (running sums decayed by
// sum/period, not a windowed average). Returns the neutral 0 until at
// least 2×period bars are available.
func ADX(highs, lows, closes []float64) float64 {
	period := ADXPeriod
	if len(highs) < period*2 {
		return 0
	}

	n := len(highs) - 1
	tr := make([]float64, 0, n)
	dmPlus := make([]float64, 0, n)
	dmMinus := make([]float64, 0, n)
	for i := 1; i < len(highs); i++ {
		h, l, pc := highs[i], lows[i], closes[i-1]
		tr = append(tr, math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc))))

		upMove := h - highs[i-1]
		downMove := lows[i-1] - l
		if upMove > downMove && upMove > 0 {
			dmPlus = append(dmPlus, upMove)
		} else {
			dmPlus = append(dmPlus, 0)
		}
		if downMove > upMove && downMove > 0 {
			dmMinus = append(dmMinus, downMove)
		} else {
			dmMinus = append(dmMinus, 0)
		}
	}

	smooth := func(d []float64) []float64 {
		out := make([]float64, 0, len(d)-period+1)
		sum := Sum(d[:period])
		out = append(out, sum)
		for i := period; i < len(d); i++ {
			sum = sum - sum/float64(period) + d[i]
			out = append(out, sum)
		}
		return out
	}
	trS := smooth(tr)
	dpS := smooth(dmPlus)
	dmS := smooth(dmMinus)

	dx := make([]float64, len(trS))
	for i, t := range trS {
		if t == 0 {
			continue
		}
		p := dpS[i] / t * 100
		m := dmS[i] / t * 100
		if p+m == 0 {
			continue
		}
		dx[i] = math.Abs(p-m) / (p + m) * 100
	}
	return SMA(dx, period)
}
