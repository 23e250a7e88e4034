package strategy

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"swing-traderv1/internal/indicator"
	"swing-traderv1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Series builders
// ────────────────────────────────────────────────────────────

func buildSeries(closesPaise []int64, volume int64) model.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := make(model.Series, len(closesPaise))
	for i, c := range closesPaise {
		s[i] = model.Candle{
			Token: "11536", Exchange: "NSE",
			Date: start.AddDate(0, 0, i),
			Open: c, High: c + 50, Low: c - 50, Close: c,
			Volume: volume,
		}
	}
	return s
}

// trendSeries rises by stepPaise per bar.
func trendSeries(n int, startPaise, stepPaise, volume int64) model.Series {
	closes := make([]int64, n)
	for i := range closes {
		closes[i] = startPaise + int64(i)*stepPaise
	}
	return buildSeries(closes, volume)
}

func flatSeries(n int, pricePaise, volume int64) model.Series {
	closes := make([]int64, n)
	for i := range closes {
		closes[i] = pricePaise
	}
	return buildSeries(closes, volume)
}

// ────────────────────────────────────────────────────────────
// Warm-up floor
// ────────────────────────────────────────────────────────────

func TestAnalyze_WarmupFloor_FailsFast(t *testing.T) {
	s := trendSeries(59, 10000, 100, 200000)
	_, err := Analyze("TEST", s, "NSE")
	if err == nil {
		t.Fatal("59-bar series must be refused, got a result")
	}
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("want ErrInsufficientData, got %v", err)
	}

	if _, err := Analyze("TEST", trendSeries(60, 10000, 100, 200000), "NSE"); err != nil {
		t.Errorf("60-bar series should analyze, got %v", err)
	}
}

// ────────────────────────────────────────────────────────────
// Determinism
// ────────────────────────────────────────────────────────────

func TestAnalyze_Deterministic(t *testing.T) {
	s := trendSeries(80, 10000, 73, 200000)
	a, err := Analyze("TEST", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Analyze("TEST", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two analyses of the same series differ:\n a=%+v\n b=%+v", a, b)
	}
}

// ────────────────────────────────────────────────────────────
// Safety precedence
// ────────────────────────────────────────────────────────────

func TestAnalyze_SafetyPrecedence_ThinVolume(t *testing.T) {
	// A strong uptrend, but on 10k shares/day: the gate must win and no
	// strategy output may leak through.
	s := trendSeries(70, 10000, 100, 10000)
	res, err := Analyze("THIN", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	if res.Primary.Signal != SignalNoTrade {
		t.Errorf("signal: got %s, want NO-TRADE", res.Primary.Signal)
	}
	if res.Primary.StrategyName != "Safety Lock" {
		t.Errorf("strategy name: got %q, want Safety Lock", res.Primary.StrategyName)
	}
	if res.Primary.Confidence != 0 {
		t.Errorf("confidence: got %v, want 0", res.Primary.Confidence)
	}
	if !strings.Contains(res.Primary.Reason, "BLOCKED") {
		t.Errorf("reason missing BLOCKED marker: %q", res.Primary.Reason)
	}
	if len(res.Strategies) != 0 {
		t.Errorf("rejected series must not carry strategy evaluations, got %d", len(res.Strategies))
	}
}

func TestAnalyze_SafetyPrecedence_CircuitLock(t *testing.T) {
	s := trendSeries(70, 10000, 100, 200000)
	last := &s[len(s)-1]
	last.High = last.Close // pinned at high
	last.Low = last.Close - 10

	res, err := Analyze("LOCKED", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	if res.Primary.StrategyName != "Safety Lock" || res.Primary.Signal != SignalNoTrade {
		t.Errorf("circuit-locked series: got %s/%s", res.Primary.StrategyName, res.Primary.Signal)
	}
}

// ────────────────────────────────────────────────────────────
// Example scenario: trend-following primary
// ────────────────────────────────────────────────────────────

func TestAnalyze_UptrendSelectsTrendFollowing(t *testing.T) {
	// 70 rising bars: close above EMA50, ADX at its ceiling. Only the
	// trend-following (0.85) and golden-cross-zone (0.80) setups are
	// present, so the former must be selected.
	s := trendSeries(70, 10000, 100, 200000)
	res, err := Analyze("TREND", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}

	if res.MarketCondition != ConditionUptrend {
		t.Errorf("condition: got %s, want UPTREND", res.MarketCondition)
	}
	if res.Primary.Signal != SignalBuy {
		t.Fatalf("signal: got %s, want BUY", res.Primary.Signal)
	}
	if res.Primary.StrategyName != "Trend Following (ADX)" {
		t.Fatalf("strategy: got %q, want Trend Following (ADX)", res.Primary.StrategyName)
	}
	if res.Primary.Confidence != 0.85 {
		t.Errorf("confidence: got %v, want 0.85", res.Primary.Confidence)
	}

	wantStop := model.RoundRupees(indicator.EMA(s.Closes(), 50))
	if res.Primary.StopLoss != wantStop {
		t.Errorf("stop loss: got %.2f, want EMA50 %.2f", res.Primary.StopLoss, wantStop)
	}
	if len(res.Strategies) != len(Registry()) {
		t.Errorf("panel size: got %d, want %d", len(res.Strategies), len(Registry()))
	}
}

// ────────────────────────────────────────────────────────────
// Fresh golden cross outranks the zone entry
// ────────────────────────────────────────────────────────────

func TestAnalyze_FreshGoldenCross(t *testing.T) {
	// 208 flat bars at 100, a dip to 95, then a surge to 112: the
	// previous close sits below the SMA200 and the latest above it with
	// EMA50 just across, which is the fresh-cross shape (0.95).
	closes := make([]int64, 210)
	for i := range closes {
		closes[i] = 10000
	}
	closes[208] = 9500
	closes[209] = 11200
	s := buildSeries(closes, 200000)

	res, err := Analyze("CROSS", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	if res.Primary.StrategyName != "Golden Cross" {
		t.Fatalf("strategy: got %q, want Golden Cross", res.Primary.StrategyName)
	}
	if res.Primary.Confidence != 0.95 {
		t.Errorf("fresh cross confidence: got %v, want 0.95", res.Primary.Confidence)
	}
	if res.Primary.Signal != SignalBuy {
		t.Errorf("signal: got %s, want BUY", res.Primary.Signal)
	}
}

// ────────────────────────────────────────────────────────────
// No setup
// ────────────────────────────────────────────────────────────

func TestAnalyze_FlatSeries_NoTradeSetup(t *testing.T) {
	// Flat price action can fire nothing; note the circuit filter does
	// not trip because the bar is not pinned at its high.
	s := flatSeries(70, 10000, 200000)
	res, err := Analyze("FLAT", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	if res.Primary.StrategyName != "No Trade Setup" {
		t.Errorf("strategy: got %q, want No Trade Setup", res.Primary.StrategyName)
	}
	if res.Primary.Signal != SignalNoTrade || res.Primary.Confidence != 0 {
		t.Errorf("got %s conf %v, want NO-TRADE conf 0", res.Primary.Signal, res.Primary.Confidence)
	}
	for _, e := range res.Strategies {
		if e.IsValid {
			t.Errorf("%s should be invalid on a flat series", e.StrategyName)
		}
		if e.QualityScore != 0.3 || e.Confidence != 0 {
			t.Errorf("%s: invalid entries pin quality 0.3 / confidence 0, got %v/%v",
				e.StrategyName, e.QualityScore, e.Confidence)
		}
	}
}

// ────────────────────────────────────────────────────────────
// Selection rule
// ────────────────────────────────────────────────────────────

func TestSelectPrimary_TieBreakFirstRegistered(t *testing.T) {
	evals := []Evaluation{
		{StrategyName: "A", IsValid: true, Signal: SignalBuy, QualityScore: 0.9, Confidence: 0.9},
		{StrategyName: "B", IsValid: true, Signal: SignalBuy, QualityScore: 0.9, Confidence: 0.9},
		{StrategyName: "C", IsValid: true, Signal: SignalBuy, QualityScore: 0.8, Confidence: 0.8},
	}
	p := selectPrimary(evals)
	if p.StrategyName != "A" {
		t.Errorf("tie must go to the first registered strategy, got %q", p.StrategyName)
	}
}

func TestSelectPrimary_IgnoresInvalid(t *testing.T) {
	// An invalid entry with a high stale quality score must never outrank
	// a valid one.
	evals := []Evaluation{
		{StrategyName: "A", IsValid: false, Signal: SignalNoTrade, QualityScore: 0.99},
		{StrategyName: "B", IsValid: true, Signal: SignalBuy, QualityScore: 0.8, Confidence: 0.8},
	}
	p := selectPrimary(evals)
	if p.StrategyName != "B" {
		t.Errorf("invalid evaluations must be skipped, got %q", p.StrategyName)
	}
}

// ────────────────────────────────────────────────────────────
// Rounding boundary
// ────────────────────────────────────────────────────────────

func TestAnalyze_LevelsRoundedToTwoDecimals(t *testing.T) {
	s := trendSeries(70, 10001, 97, 200000) // awkward paise values
	res, err := Analyze("ROUND", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	check := func(label string, v float64) {
		t.Helper()
		if math.Abs(v*100-math.Round(v*100)) > 1e-9 {
			t.Errorf("%s not rounded to 2 decimals: %v", label, v)
		}
	}
	check("primary stop", res.Primary.StopLoss)
	for _, tp := range res.Primary.TargetPrices {
		check("primary target", tp)
	}
	for _, e := range res.Strategies {
		check(e.StrategyName+" stop", e.StopLoss)
		for _, tp := range e.TargetPrices {
			check(e.StrategyName+" target", tp)
		}
	}
}
