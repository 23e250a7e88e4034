package indicator

import "math"

// Bands holds Bollinger band levels for the latest bar.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bandwidth is (upper-lower)/middle, the squeeze measure. 0 on a zero middle.
func (b Bands) Bandwidth() float64 {
	if b.Middle == 0 {
		return 0
	}
	return (b.Upper - b.Lower) / b.Middle
}

// Bollinger computes 20-period bands at ±2 population standard deviations
// around the 20-period SMA. Zero-valued when closes is shorter than the
// period (SMA reports 0 there).
func Bollinger(closes []float64) Bands {
	m := SMA(closes, BollingerPeriod)
	w := tail(closes, BollingerPeriod)
	variance := 0.0
	for _, v := range w {
		variance += (v - m) * (v - m)
	}
	variance /= float64(BollingerPeriod)
	s := math.Sqrt(variance)
	return Bands{
		Upper:  m + s*BollingerWidth,
		Middle: m,
		Lower:  m - s*BollingerWidth,
	}
}
