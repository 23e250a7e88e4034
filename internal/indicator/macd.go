package indicator

// MACD holds one bar's MACD line, signal line and histogram.
type MACD struct {
	Line      float64
	Signal    float64
	Histogram float64
}

// MACDPair computes MACD(12,26,9) for the latest and the previous bar.
// The histogram sign flip between the two is what strategies react to.
func MACDPair(closes []float64) (curr, prev MACD) {
	if len(closes) < 2 {
		return MACD{}, MACD{}
	}
	fast := EMASeries(closes, MACDFast)
	slow := EMASeries(closes, MACDSlow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal := EMASeries(line, MACDSignal)

	at := func(i int) MACD {
		return MACD{
			Line:      line[i],
			Signal:    signal[i],
			Histogram: line[i] - signal[i],
		}
	}
	return at(len(closes) - 1), at(len(closes) - 2)
}
