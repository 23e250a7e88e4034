package indicator

import (
	"math"
	"testing"
	"time"

	"swing-traderv1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// seriesFromCloses builds a daily series from close prices in paise,
// with high = close+50, low = close-50 and constant volume.
func seriesFromCloses(closes []int64) model.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, len(closes))
	for i, c := range closes {
		s[i] = model.Candle{
			Token: "TEST", Exchange: "NSE",
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 50, Low: c - 50, Close: c,
			Volume: 200000,
		}
	}
	return s
}

// ────────────────────────────────────────────────────────────
// SMA / EMA
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA(3) over the tail: (104+103+105)/3 = 104.0
	prices := []float64{100, 102, 104, 103, 105}
	assertClose(t, "SMA(3)", SMA(prices, 3), 104.0, 0.0001)
	assertClose(t, "SMA(5)", SMA(prices, 5), 102.8, 0.0001)
}

func TestSMA_ShortInput_IsZero(t *testing.T) {
	assertClose(t, "SMA short", SMA([]float64{100, 102}, 3), 0, 0.0001)
	assertClose(t, "SMA empty", SMA(nil, 3), 0, 0.0001)
}

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): multiplier = 2/(3+1) = 0.5
	// Prices: 100, 102, 104, 103, 105
	// Seed (first 3): (100+102+104)/3 = 102.0
	// Bar 4: 103*0.5 + 102.0*0.5 = 102.5
	// Bar 5: 105*0.5 + 102.5*0.5 = 103.75
	prices := []float64{100, 102, 104, 103, 105}
	assertClose(t, "EMA(3) seed only", EMA(prices[:3], 3), 102.0, 0.0001)
	assertClose(t, "EMA(3) bar 4", EMA(prices[:4], 3), 102.5, 0.0001)
	assertClose(t, "EMA(3) bar 5", EMA(prices, 3), 103.75, 0.0001)
}

func TestEMA_ShortInput_IsZero(t *testing.T) {
	assertClose(t, "EMA short", EMA([]float64{100, 102}, 3), 0, 0.0001)
	assertClose(t, "EMA period 1", EMA([]float64{100, 102}, 1), 0, 0.0001)
}

func TestEMASeries_Alignment(t *testing.T) {
	prices := []float64{100, 102, 104, 103, 105}
	out := EMASeries(prices, 3)
	if len(out) != len(prices) {
		t.Fatalf("EMASeries length: got %d, want %d", len(out), len(prices))
	}
	assertClose(t, "series[0]", out[0], 0, 0.0001)
	assertClose(t, "series[1]", out[1], 0, 0.0001)
	assertClose(t, "series[2] seed", out[2], 102.0, 0.0001)
	assertClose(t, "series[3]", out[3], 102.5, 0.0001)
	assertClose(t, "series[4]", out[4], 103.75, 0.0001)
}

// ────────────────────────────────────────────────────────────
// RSI (Wilder's method)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Prices: 44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84
	//
	// Deltas: +0.34, -0.25, -0.48, +0.72, +0.50
	// Seed: avgGain = 1.56/5 = 0.312, avgLoss = 0.73/5 = 0.146
	// RSI(6 bars)  = 100 - 100/(1 + 0.312/0.146)      = 68.112
	// Bar 7 (+0.27): avgG=0.3036, avgL=0.1168         → 72.219
	// Bar 8 (+0.32): avgG=0.30688, avgL=0.09344       → 76.658
	// Bar 9 (+0.42): avgG=0.329504, avgL=0.074752     → 81.509
	prices := []float64{44.00, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}

	assertClose(t, "RSI(5) 6 bars", RSI(prices[:6], 5), 68.112, 0.1)
	assertClose(t, "RSI(5) 7 bars", RSI(prices[:7], 5), 72.219, 0.1)
	assertClose(t, "RSI(5) 8 bars", RSI(prices[:8], 5), 76.658, 0.1)
	assertClose(t, "RSI(5) 9 bars", RSI(prices, 5), 81.509, 0.2)
}

func TestRSI_ShortInput_IsNeutral50(t *testing.T) {
	assertClose(t, "RSI short", RSI([]float64{100, 101, 102}, 5), 50, 0.0001)
}

func TestRSI_AllUp_Is100(t *testing.T) {
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	assertClose(t, "RSI all up", RSI(prices, 5), 100, 0.001)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 200 - float64(i)
	}
	assertClose(t, "RSI all down", RSI(prices, 5), 0, 0.001)
}

func TestRSI_Flat_Is100(t *testing.T) {
	// Flat: avgLoss == 0, Wilder convention returns 100.
	prices := make([]float64, 10)
	for i := range prices {
		prices[i] = 100
	}
	assertClose(t, "RSI flat", RSI(prices, 5), 100, 0.001)
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestMACD_FlatSeries_IsZero(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100
	}
	curr, prev := MACDPair(prices)
	assertClose(t, "flat MACD line", curr.Line, 0, 0.0001)
	assertClose(t, "flat MACD signal", curr.Signal, 0, 0.0001)
	assertClose(t, "flat MACD hist", curr.Histogram, 0, 0.0001)
	assertClose(t, "flat prev hist", prev.Histogram, 0, 0.0001)
}

func TestMACD_Uptrend_LineAboveZero(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	curr, _ := MACDPair(prices)
	if curr.Line <= 0 {
		t.Errorf("uptrend MACD line should be positive, got %.4f", curr.Line)
	}
	assertClose(t, "hist = line - signal", curr.Histogram, curr.Line-curr.Signal, 0.0001)
}

func TestMACD_PrevIsOneBarBehind(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	_, prev := MACDPair(prices)
	currShort, _ := MACDPair(prices[:59])
	assertClose(t, "prev equals MACD of series minus last bar", prev.Line, currShort.Line, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Bollinger Bands
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness(t *testing.T) {
	// 10 closes at 100, then 10 at 102: mean = 101, population
	// variance = 1, stdev = 1 → upper 103, lower 99.
	prices := make([]float64, 20)
	for i := range prices {
		if i < 10 {
			prices[i] = 100
		} else {
			prices[i] = 102
		}
	}
	b := Bollinger(prices)
	assertClose(t, "BB middle", b.Middle, 101, 0.0001)
	assertClose(t, "BB upper", b.Upper, 103, 0.0001)
	assertClose(t, "BB lower", b.Lower, 99, 0.0001)
	assertClose(t, "BB bandwidth", b.Bandwidth(), 4.0/101.0, 0.0001)
}

func TestBollinger_FlatSeries_ZeroWidth(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 150
	}
	b := Bollinger(prices)
	assertClose(t, "flat BB upper==middle", b.Upper, 150, 0.0001)
	assertClose(t, "flat BB lower==middle", b.Lower, 150, 0.0001)
}

// ────────────────────────────────────────────────────────────
// ADX
// ────────────────────────────────────────────────────────────

func TestADX_ShortInput_IsZero(t *testing.T) {
	highs := make([]float64, 20)
	assertClose(t, "ADX short", ADX(highs, highs, highs), 0, 0.0001)
}

func TestADX_MonotonicUptrend_Is100(t *testing.T) {
	// Rising 1/bar with high = close+0.5, low = close-0.5:
	// every bar has +DM = 1, -DM = 0, so DX = 100 everywhere and the
	// SMA of DX is 100.
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		closes[i] = c
		highs[i] = c + 0.5
		lows[i] = c - 0.5
	}
	assertClose(t, "ADX monotonic up", ADX(highs, lows, closes), 100, 0.001)
}

func TestADX_FlatSeries_IsZero(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 100.5, 99.5, 100
	}
	// No directional movement at all → every DX is 0.
	assertClose(t, "ADX flat", ADX(highs, lows, closes), 0, 0.001)
}

// ────────────────────────────────────────────────────────────
// ATR / VWAP / Stochastic
// ────────────────────────────────────────────────────────────

func TestATR_Correctness_Period3(t *testing.T) {
	// Candles (rupees): C=100 then
	//   H=102 L=99  C=101 (pc=100): TR = max(3, 2, 1) = 3
	//   H=103 L=100 C=102 (pc=101): TR = max(3, 2, 1) = 3
	//   H=105 L=101 C=104 (pc=102): TR = max(4, 3, 1) = 4
	//   H=106 L=103 C=105 (pc=104): TR = max(3, 2, 1) = 3
	// Seed ATR(3) = (3+3+4)/3 = 3.3333
	// Next: (3.3333*2 + 3)/3 = 3.2222
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(i int, h, l, c int64) model.Candle {
		return model.Candle{Date: start.AddDate(0, 0, i), Open: c, High: h, Low: l, Close: c, Volume: 1000}
	}
	s := model.Series{
		mk(0, 10050, 9950, 10000),
		mk(1, 10200, 9900, 10100),
		mk(2, 10300, 10000, 10200),
		mk(3, 10500, 10100, 10400),
		mk(4, 10600, 10300, 10500),
	}
	assertClose(t, "ATR(3) seed", ATR(s[:4], 3), 3.3333, 0.001)
	assertClose(t, "ATR(3) rolled", ATR(s, 3), 3.2222, 0.001)
}

func TestATR_ShortInput_IsZero(t *testing.T) {
	s := seriesFromCloses([]int64{10000, 10100})
	assertClose(t, "ATR short", ATR(s, 14), 0, 0.0001)
}

func TestVWAP_Correctness(t *testing.T) {
	// Two candles: tp=100 vol=100, tp=103 vol=300
	// VWAP = (100*100 + 103*300) / 400 = 102.25
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := model.Series{
		{Date: start, High: 10100, Low: 9900, Close: 10000, Volume: 100},
		{Date: start.AddDate(0, 0, 1), High: 10400, Low: 10200, Close: 10300, Volume: 300},
	}
	assertClose(t, "VWAP", VWAP(s, 20), 102.25, 0.0001)
}

func TestVWAP_ZeroVolume_IsZero(t *testing.T) {
	s := model.Series{{High: 10100, Low: 9900, Close: 10000, Volume: 0}}
	assertClose(t, "VWAP zero volume", VWAP(s, 20), 0, 0.0001)
}

func TestStochK_Correctness(t *testing.T) {
	// Window: highs max 105, lows min 95, latest close 104
	// %K = (104-95)/(105-95)*100 = 90
	closes := []float64{100, 101, 104}
	highs := []float64{102, 105, 104.5}
	lows := []float64{95, 99, 103}
	assertClose(t, "StochK", StochK(closes, highs, lows, 14), 90, 0.0001)
}

func TestStochK_FlatRange_IsNeutral50(t *testing.T) {
	closes := []float64{100, 100}
	flat := []float64{100, 100}
	assertClose(t, "StochK flat", StochK(closes, flat, flat, 14), 50, 0.0001)
}

// ────────────────────────────────────────────────────────────
// Highest / Lowest
// ────────────────────────────────────────────────────────────

func TestHighestLowest(t *testing.T) {
	data := []float64{5, 9, 2, 7, 4}
	assertClose(t, "Highest(3)", Highest(data, 3), 7, 0.0001)
	assertClose(t, "Lowest(3)", Lowest(data, 3), 2, 0.0001)
	assertClose(t, "Highest(all)", Highest(data, 10), 9, 0.0001)
	assertClose(t, "Lowest(all)", Lowest(data, 10), 2, 0.0001)
	assertClose(t, "Highest empty", Highest(nil, 3), 0, 0.0001)
}
