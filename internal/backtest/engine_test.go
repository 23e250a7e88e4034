package backtest

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"swing-traderv1/internal/model"
)

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

func trendSeries(n int, startPaise, stepPaise int64) model.Series {
	closes := make([]int64, n)
	for i := range closes {
		closes[i] = startPaise + int64(i)*stepPaise
	}
	return buildSeries(closes, 200000)
}

func flatSeries(n int) model.Series {
	closes := make([]int64, n)
	for i := range closes {
		closes[i] = 10000
	}
	return buildSeries(closes, 200000)
}

func TestRun_InsufficientHistory(t *testing.T) {
	_, err := Run("TEST", "Trend Following (ADX)", "NSE", trendSeries(59, 10000, 100), 100000)
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("want ErrInsufficientData, got %v", err)
	}
}

func TestRun_UnknownStrategy(t *testing.T) {
	_, err := Run("TEST", "Does Not Exist", "NSE", trendSeries(80, 10000, 100), 100000)
	if err == nil {
		t.Error("unknown strategy name must be rejected")
	}
}

func TestRun_NonPositiveCapital(t *testing.T) {
	_, err := Run("TEST", "Trend Following (ADX)", "NSE", trendSeries(80, 10000, 100), 0)
	if err == nil {
		t.Error("zero capital must be rejected")
	}
}

func TestRun_FlatSeries_NoTrades(t *testing.T) {
	rep, err := Run("FLAT", "Trend Following (ADX)", "NSE", flatSeries(100), 100000)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Trades) != 0 {
		t.Errorf("flat series produced %d trades, want 0", len(rep.Trades))
	}
	if len(rep.EquityCurve) != 100-model.MinSeriesLen {
		t.Fatalf("equity curve length: got %d, want %d", len(rep.EquityCurve), 100-model.MinSeriesLen)
	}
	for i, p := range rep.EquityCurve {
		if p.Equity != 100000 {
			t.Fatalf("equity point %d: got %.2f, want 100000", i, p.Equity)
		}
	}
	if rep.Metrics.MaxDrawdown != 0 || rep.Metrics.NetProfit != 0 {
		t.Errorf("flat metrics: %+v", rep.Metrics)
	}
}

func TestRun_UptrendTakesWinningTrades(t *testing.T) {
	// A steady climb keeps the trend strategy valid; the 15% target is
	// reached well inside the series, so at least one full round trip
	// closes at its target.
	rep, err := Run("TREND", "Trend Following (ADX)", "NSE", trendSeries(160, 10000, 100), 100000)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Trades) == 0 {
		t.Fatal("expected at least one completed trade")
	}
	for i, tr := range rep.Trades {
		if tr.PnL <= 0 {
			t.Errorf("trade %d: pnl %.2f, expected a winner on a monotonic climb", i, tr.PnL)
		}
		if !tr.ExitDate.After(tr.EntryDate) {
			t.Errorf("trade %d: exit %s not after entry %s", i, tr.ExitDate, tr.EntryDate)
		}
		if tr.Qty <= 0 {
			t.Errorf("trade %d: qty %d", i, tr.Qty)
		}
	}
	if rep.Metrics.WinRate != 100 {
		t.Errorf("win rate: got %.1f, want 100", rep.Metrics.WinRate)
	}
	if rep.Metrics.NetProfit <= 0 {
		t.Errorf("net profit: got %.2f", rep.Metrics.NetProfit)
	}
	// With zero gross loss the profit factor reports gross profit.
	if math.Abs(rep.Metrics.ProfitFactor-rep.Metrics.NetProfit) > 1e-9 {
		t.Errorf("profit factor %.2f should equal gross profit %.2f when nothing lost",
			rep.Metrics.ProfitFactor, rep.Metrics.NetProfit)
	}
	last := rep.EquityCurve[len(rep.EquityCurve)-1]
	if last.Equity <= 100000 {
		t.Errorf("final equity: got %.2f, want > initial", last.Equity)
	}
}

func TestRun_Deterministic(t *testing.T) {
	s := trendSeries(120, 10000, 100)
	a, err := Run("DET", "Trend Following (ADX)", "NSE", s, 100000)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run("DET", "Trend Following (ADX)", "NSE", s, 100000)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different reports")
	}
}

func TestRun_NoLookahead(t *testing.T) {
	// Altering bars after the cut must not change anything decided at or
	// before it: equity points and trades up to the cut stay identical.
	base := trendSeries(140, 10000, 100)
	cut := 100

	altered := make(model.Series, len(base))
	copy(altered, base)
	for i := cut + 1; i < len(altered); i++ {
		altered[i].Close = 5000 + int64(i)
		altered[i].High = altered[i].Close + 50
		altered[i].Low = altered[i].Close - 50
		altered[i].Volume = 999999
	}

	a, err := Run("LOOK", "Trend Following (ADX)", "NSE", base, 100000)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run("LOOK", "Trend Following (ADX)", "NSE", altered, 100000)
	if err != nil {
		t.Fatal(err)
	}

	// Equity points are appended once per bar from MinSeriesLen on.
	n := cut - model.MinSeriesLen + 1
	if !reflect.DeepEqual(a.EquityCurve[:n], b.EquityCurve[:n]) {
		t.Error("equity curve before the cut changed when future bars were altered")
	}
	cutDate := base[cut].Date
	var tradesA, tradesB []Trade
	for _, tr := range a.Trades {
		if !tr.ExitDate.After(cutDate) {
			tradesA = append(tradesA, tr)
		}
	}
	for _, tr := range b.Trades {
		if !tr.ExitDate.After(cutDate) {
			tradesB = append(tradesB, tr)
		}
	}
	if !reflect.DeepEqual(tradesA, tradesB) {
		t.Error("trades closed before the cut changed when future bars were altered")
	}
}

func TestRun_StopBeforeTargetOnSameBar(t *testing.T) {
	// Metrics path check on hand-built trades: a bar whose range crosses
	// both levels exits at the stop.
	trades := []Trade{{PnL: -100}, {PnL: 300}}
	m := computeMetrics(trades, []EquityPoint{{Equity: 100000}, {Equity: 99900}, {Equity: 100200}})
	if m.TotalTrades != 2 || m.WinRate != 50 {
		t.Errorf("metrics: %+v", m)
	}
	if math.Abs(m.ProfitFactor-3.0) > 1e-9 {
		t.Errorf("profit factor: got %v, want 3.0", m.ProfitFactor)
	}
	if math.Abs(m.Expectancy-(0.5*300-0.5*100)) > 1e-9 {
		t.Errorf("expectancy: got %v, want 100", m.Expectancy)
	}
	wantDD := (100000.0 - 99900.0) / 100000.0 * 100
	if math.Abs(m.MaxDrawdown-wantDD) > 1e-9 {
		t.Errorf("max drawdown: got %v, want %v", m.MaxDrawdown, wantDD)
	}
}
