package indicator

import "swing-traderv1/internal/model"

// Snapshot is the fixed indicator battery computed from a series at its
// most recent bar. Derived, read-only, recomputed fully on every
// evaluation call — never mutated incrementally.
type Snapshot struct {
	Price     float64 // latest close, rupees
	PrevClose float64

	RSI      float64
	ADX      float64
	MACD     MACD
	MACDPrev MACD
	Bands    Bands

	EMA9   float64
	EMA20  float64
	EMA50  float64
	EMA200 float64
	SMA200 float64

	VWAP   float64
	ATR    float64
	StochK float64

	AvgVolume   float64
	VolumeSpike bool

	Support    float64 // lowest low of 20
	Resistance float64 // highest high of 20
}

// Compute builds the full snapshot for a series. Callers validate series
// length first; Compute itself tolerates short input via each function's
// neutral default.
func Compute(s model.Series) Snapshot {
	closes := s.Closes()
	highs := s.Highs()
	lows := s.Lows()
	vols := s.Volumes()

	snap := Snapshot{
		RSI:    RSI(closes, RSIPeriod),
		ADX:    ADX(highs, lows, closes),
		Bands:  Bollinger(closes),
		EMA9:   EMA(closes, 9),
		EMA20:  EMA(closes, 20),
		EMA50:  EMA(closes, 50),
		EMA200: EMA(closes, 200),
		SMA200: SMA(closes, 200),
		VWAP:   VWAP(s, VWAPPeriod),
		ATR:    ATR(s, ATRPeriod),
		StochK: StochK(closes, highs, lows, StochPeriod),

		AvgVolume:  SMA(vols, VolumePeriod),
		Support:    Lowest(lows, 20),
		Resistance: Highest(highs, 20),
	}
	snap.MACD, snap.MACDPrev = MACDPair(closes)

	if len(s) > 0 {
		last := s.Last()
		snap.Price = model.Rupees(last.Close)
		snap.VolumeSpike = float64(last.Volume) > snap.AvgVolume*VolumeSpikeRatio
	}
	if len(s) > 1 {
		snap.PrevClose = model.Rupees(s[len(s)-2].Close)
	}
	return snap
}
