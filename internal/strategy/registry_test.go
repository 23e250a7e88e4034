package strategy

import (
	"reflect"
	"testing"
)

func TestRegistry_OrderAndDeclarations(t *testing.T) {
	want := []struct {
		name string
		rr   float64
	}{
		{"VCP Setup", 3},
		{"Trend Following (ADX)", 2.5},
		{"Golden Cross", 3},
		{"RSI Divergence", 3},
		{"20-Day Breakout", 2},
		{"VWAP Reversion", 2.5},
		{"50 EMA Pullback", 3},
		{"Bollinger Squeeze", 2.5},
		{"Volume Spread (VPA)", 2},
		{"Stochastic Oversold Bounce", 2.5},
		{"MACD Histogram Reversal", 2.8},
		{"3-Bar Inside-Up", 2.3},
		{"RSI Swing Re-entry", 2.4},
		{"BhavCopy Pullback", 2.5},
	}

	reg := Registry()
	if len(reg) != len(want) {
		t.Fatalf("panel size: got %d, want %d", len(reg), len(want))
	}
	for i, d := range reg {
		if d.Name != want[i].name {
			t.Errorf("slot %d: got %q, want %q (registration order is the tie-break)", i, d.Name, want[i].name)
		}
		if d.RiskReward != want[i].rr {
			t.Errorf("%s: risk:reward got %v, want %v", d.Name, d.RiskReward, want[i].rr)
		}
		if d.Evaluate == nil {
			t.Errorf("%s: nil Evaluate", d.Name)
		}
	}
}

func TestRegistry_EvaluationsAreSideEffectFree(t *testing.T) {
	s := trendSeries(80, 10000, 100, 200000)
	ctx := NewContext(s)

	first := make([]Outcome, 0, len(Registry()))
	for _, d := range Registry() {
		first = append(first, d.Evaluate(ctx))
	}
	// Evaluating the panel again, in any order, must reproduce the same
	// outcomes: no descriptor may lean on shared mutable state.
	reg := Registry()
	for i := len(reg) - 1; i >= 0; i-- {
		out := reg[i].Evaluate(ctx)
		if !reflect.DeepEqual(out, first[i]) {
			t.Errorf("%s: outcome changed across evaluations:\n first=%+v\n again=%+v", reg[i].Name, first[i], out)
		}
	}
}

func TestByName(t *testing.T) {
	d, ok := ByName("Trend Following (ADX)")
	if !ok || d.Name != "Trend Following (ADX)" {
		t.Fatalf("ByName lookup failed: %+v %v", d, ok)
	}
	if _, ok := ByName("Not A Strategy"); ok {
		t.Error("unknown name must not resolve")
	}
}

func TestAnalyze_VCPContraction_Selected(t *testing.T) {
	// Tightening ranges on shrinking volume above the 50 EMA: the VCP
	// descriptor (0.90) should outrank the trend and zone entries.
	s := trendSeries(55, 10000, 100, 200000) // 100 → 154 climb
	type bar struct{ close, high, low int64 }
	tailBars := []bar{
		{15000, 15300, 14700}, {15000, 15300, 14700}, {15000, 15300, 14700}, {15000, 15300, 14700}, {15000, 15300, 14700},
		{15200, 15350, 15050}, {15200, 15350, 15050}, {15200, 15350, 15050}, {15200, 15350, 15050}, {15200, 15350, 15050},
		{15300, 15370, 15230}, {15300, 15370, 15230}, {15300, 15370, 15230}, {15300, 15370, 15230}, {15300, 15370, 15230},
	}
	last := s[len(s)-1]
	for i, b := range tailBars {
		c := last
		c.Date = last.Date.AddDate(0, 0, i+1)
		c.Open, c.High, c.Low, c.Close = b.close, b.high, b.low, b.close
		c.Volume = 200000
		s = append(s, c)
	}
	s[len(s)-1].Volume = 150000 // contraction bar on light volume

	res, err := Analyze("VCP", s, "NSE")
	if err != nil {
		t.Fatal(err)
	}
	if res.Primary.StrategyName != "VCP Setup" {
		t.Fatalf("primary: got %q, want VCP Setup", res.Primary.StrategyName)
	}
	if res.Primary.Confidence != 0.9 {
		t.Errorf("confidence: got %v, want 0.9", res.Primary.Confidence)
	}
}
