package portfolio

import (
	"testing"
	"time"

	"swing-traderv1/internal/model"
)

func openPosition(symbol string, entry, qty int64) *model.Position {
	return &model.Position{
		Symbol: symbol, Token: "1111", Exchange: "NSE",
		Strategy: "Trend Following (ADX)", Status: model.PositionOpen,
		Qty: qty, EntryPrice: entry, StopLoss: entry - 500, Target: entry + 1500,
		HighestSeen: entry, LastPrice: entry,
		EntryTime: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestBook_UpdatePriceRatchetsHighestSeen(t *testing.T) {
	b := NewBook()
	b.Add(openPosition("RELIANCE-EQ", 250000, 10))

	b.UpdatePrice("RELIANCE-EQ", 252000)
	b.UpdatePrice("RELIANCE-EQ", 251000) // pullback must not lower the mark

	pos, ok := b.Get("RELIANCE-EQ")
	if !ok {
		t.Fatal("position missing")
	}
	if pos.HighestSeen != 252000 {
		t.Errorf("highest seen: got %d, want 252000", pos.HighestSeen)
	}
	if pos.LastPrice != 251000 {
		t.Errorf("last price: got %d, want 251000", pos.LastPrice)
	}
	if got := pos.UnrealizedPnL(); got != (251000-250000)*10 {
		t.Errorf("unrealized pnl: got %d", got)
	}
}

func TestBook_MutateUpdatesUnderLock(t *testing.T) {
	b := NewBook()
	b.Add(openPosition("RELIANCE-EQ", 250000, 10))

	b.Mutate("RELIANCE-EQ", func(p *model.Position) {
		p.StopLoss = 251000
		p.StopOrderID = "ORD-9"
	})
	pos, _ := b.Get("RELIANCE-EQ")
	if pos.StopLoss != 251000 || pos.StopOrderID != "ORD-9" {
		t.Errorf("mutation not applied: stop=%d id=%q", pos.StopLoss, pos.StopOrderID)
	}

	// Unknown symbols are a no-op, not a panic.
	b.Mutate("GHOST-EQ", func(p *model.Position) { p.StopLoss = 1 })

	// Snapshots taken while a writer holds the lock see either the old or
	// the new stop, never a torn position. Run with -race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			for _, p := range b.Open() {
				if p.StopLoss > p.HighestSeen+100000 {
					t.Errorf("torn snapshot: %+v", p)
					return
				}
			}
		}
	}()
	for i := int64(0); i < 200; i++ {
		stop := 251000 + i
		b.Mutate("RELIANCE-EQ", func(p *model.Position) { p.StopLoss = stop })
	}
	<-done
}

func TestBook_UpdatePriceUnknownSymbolIsNoop(t *testing.T) {
	b := NewBook()
	b.UpdatePrice("GHOST-EQ", 100000)
	if b.Count() != 0 {
		t.Error("no-op update created a position")
	}
}

func TestLedger_RecordAccumulates(t *testing.T) {
	l := NewLedger()
	l.Record(ClosedTrade{Symbol: "A", PnL: 30000})
	got := l.Record(ClosedTrade{Symbol: "B", PnL: -12000})
	if got != 18000 {
		t.Errorf("running realized: got %d, want 18000", got)
	}
	if l.RealizedPnL() != 18000 {
		t.Errorf("realized: got %d", l.RealizedPnL())
	}
	if len(l.Closed()) != 2 {
		t.Errorf("closed trades: got %d", len(l.Closed()))
	}
}

func TestLedger_SummarizeCombinesBook(t *testing.T) {
	b := NewBook()
	b.Add(openPosition("TCS-EQ", 400000, 5))
	b.UpdatePrice("TCS-EQ", 402000)

	l := NewLedger()
	l.Record(ClosedTrade{Symbol: "INFY-EQ", PnL: 50000})

	sum := l.Summarize(b)
	if sum.RealizedPnL != 50000 {
		t.Errorf("realized: got %d", sum.RealizedPnL)
	}
	if sum.UnrealizedPnL != (402000-400000)*5 {
		t.Errorf("unrealized: got %d", sum.UnrealizedPnL)
	}
	if sum.TotalPnL != 60000 || sum.OpenPositions != 1 || sum.ClosedTrades != 1 {
		t.Errorf("summary: %+v", sum)
	}
}

func TestRiskManager_MaxOpenPositions(t *testing.T) {
	b := NewBook()
	rm := NewRiskManager(RiskLimits{MaxOpenPositions: 1, MaxDailyLoss: 500000}, b)

	if ok, reason := rm.CanEnter("RELIANCE-EQ"); !ok {
		t.Fatalf("empty book should allow entry: %s", reason)
	}
	b.Add(openPosition("RELIANCE-EQ", 250000, 10))

	if ok, _ := rm.CanEnter("RELIANCE-EQ"); ok {
		t.Error("duplicate symbol entry allowed")
	}
	if ok, reason := rm.CanEnter("TCS-EQ"); ok || reason != "max open positions reached" {
		t.Errorf("cap not enforced: ok=%v reason=%q", ok, reason)
	}

	b.Remove("RELIANCE-EQ")
	if ok, _ := rm.CanEnter("TCS-EQ"); !ok {
		t.Error("entry blocked after book emptied")
	}
}

func TestRiskManager_DailyLossBreaker(t *testing.T) {
	b := NewBook()
	rm := NewRiskManager(RiskLimits{MaxOpenPositions: 3, MaxDailyLoss: 100000}, b)

	rm.RecordPnL(-60000)
	if rm.Breached() {
		t.Fatal("breaker tripped below limit")
	}
	rm.RecordPnL(-40000)
	if !rm.Breached() {
		t.Fatal("breaker did not trip at the limit")
	}
	if ok, reason := rm.CanEnter("SBIN-EQ"); ok || reason != "daily loss limit breached" {
		t.Errorf("entry allowed after breach: ok=%v reason=%q", ok, reason)
	}

	// Winning back does not reset a latched breaker.
	rm.RecordPnL(200000)
	if !rm.Breached() {
		t.Error("breaker unlatched by later profit")
	}

	rm.ResetDaily()
	if rm.Breached() || rm.DailyPnL() != 0 {
		t.Error("reset did not clear breaker state")
	}
}
