// Package indicator provides the pure numeric kernel of the engine:
// stateless functions over price/volume arrays with fixed lookback periods.
// All inputs are rupee values (converted from paise at the model boundary).
//
// Short-input policy: each function returns a neutral default (RSI 50,
// ADX 0, StochK 50, otherwise 0) instead of an error, so a panel of
// strategies degrades gracefully while the series is still warming up.
package indicator

// Fixed lookback periods. These are design constants, not runtime
// configuration, so strategy definitions stay reproducible.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9

	RSIPeriod       = 14
	BollingerPeriod = 20
	BollingerWidth  = 2.0
	ADXPeriod       = 14
	VWAPPeriod      = 20
	ATRPeriod       = 14
	StochPeriod     = 14

	VolumePeriod     = 20
	VolumeSpikeRatio = 1.5
)

// Sum returns the arithmetic sum of data.
func Sum(data []float64) float64 {
	s := 0.0
	for _, v := range data {
		s += v
	}
	return s
}

// tail returns the last n elements of data (all of data if n >= len).
func tail(data []float64, n int) []float64 {
	if n >= len(data) {
		return data
	}
	return data[len(data)-n:]
}

// SMA returns the simple moving average of the last n values.
// Returns 0 when data is shorter than n.
func SMA(data []float64, n int) float64 {
	if n <= 0 || len(data) < n {
		return 0
	}
	return Sum(tail(data, n)) / float64(n)
}

// EMA returns the exponential moving average of data with period n,
// seeded with the SMA of the first n values then rolled forward over the
// remainder. Returns 0 when data is shorter than n.
func EMA(data []float64, n int) float64 {
	if n <= 1 || len(data) < n {
		return 0
	}
	k := 2.0 / float64(n+1)
	ema := Sum(data[:n]) / float64(n)
	for i := n; i < len(data); i++ {
		ema = data[i]*k + ema*(1-k)
	}
	return ema
}

// EMASeries returns the full EMA series aligned with data: zeros before
// the seed index n-1, the SMA seed at n-1, rolled values after.
func EMASeries(data []float64, n int) []float64 {
	out := make([]float64, len(data))
	if n <= 1 || len(data) < n {
		return out
	}
	k := 2.0 / float64(n+1)
	ema := Sum(data[:n]) / float64(n)
	out[n-1] = ema
	for i := n; i < len(data); i++ {
		ema = data[i]*k + ema*(1-k)
		out[i] = ema
	}
	return out
}

// Highest returns the maximum of the last n values (0 on empty input).
func Highest(data []float64, n int) float64 {
	w := tail(data, n)
	if len(w) == 0 {
		return 0
	}
	max := w[0]
	for _, v := range w[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Lowest returns the minimum of the last n values (0 on empty input).
func Lowest(data []float64, n int) float64 {
	w := tail(data, n)
	if len(w) == 0 {
		return 0
	}
	min := w[0]
	for _, v := range w[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
