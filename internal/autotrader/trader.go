// Package autotrader runs the live position lifecycle: it scans a
// watchlist with the strategy evaluator, opens positions through the
// order executor, trails stops on ticks, and exits on target or stop.
//
// Each position moves NONE -> OPEN -> EXITING -> CLOSED. A single event
// loop owns all position mutations; ticks, scans, and operator commands
// are serialized through it. Field updates on live positions go through
// the book's lock because status snapshots are read concurrently.
package autotrader

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"swing-traderv1/internal/execution"
	"swing-traderv1/internal/metrics"
	"swing-traderv1/internal/model"
	"swing-traderv1/internal/notification"
	"swing-traderv1/internal/portfolio"
	"swing-traderv1/internal/strategy"
)

// Status is the read-only snapshot published to the status feed.
type Status struct {
	IsRunning     bool             `json:"is_running"`
	OpenPositions []model.Position `json:"open_positions"`
	SessionPnL    int64            `json:"session_pnl"` // paise, realized
	Breached      bool             `json:"daily_loss_breached"`
}

// Trader is the position lifecycle manager.
type Trader struct {
	cfg     Config
	exec    execution.OrderExecutor
	hist    model.HistoricalSource
	quoter  model.LiveQuoter
	journal model.TradeJournal    // optional
	notify  notification.Notifier // optional
	metrics *metrics.Metrics      // optional

	book   *portfolio.Book
	ledger *portfolio.Ledger
	risk   *portfolio.RiskManager

	instruments map[string]model.Instrument

	mu       sync.RWMutex
	running  bool
	cooldown map[string]time.Time

	exits chan string // operator-requested manual exits

	now        func() time.Time
	marketOpen func(time.Time) bool // nil = always open
}

// New builds a Trader. The config is validated here; journal and notify
// may be nil for paper setups.
func New(cfg Config, exec execution.OrderExecutor, hist model.HistoricalSource,
	quoter model.LiveQuoter, journal model.TradeJournal, notify notification.Notifier) (*Trader, error) {

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	book := portfolio.NewBook()
	instruments := make(map[string]model.Instrument, len(cfg.Watchlist))
	for _, inst := range cfg.Watchlist {
		instruments[inst.Symbol] = inst
	}

	return &Trader{
		cfg:         cfg,
		exec:        exec,
		hist:        hist,
		quoter:      quoter,
		journal:     journal,
		notify:      notify,
		book:        book,
		ledger:      portfolio.NewLedger(),
		risk: portfolio.NewRiskManager(portfolio.RiskLimits{
			MaxOpenPositions: cfg.MaxOpenPositions,
			MaxDailyLoss:     model.ToPaise(cfg.MaxDailyLoss),
		}, book),
		instruments: instruments,
		cooldown:    make(map[string]time.Time),
		exits:       make(chan string, 8),
		now:         time.Now,
	}, nil
}

// SetMarketHours installs a session gate for watchlist scans. Exits and
// trailing keep working outside hours; only new entries are gated.
func (t *Trader) SetMarketHours(open func(time.Time) bool) {
	t.marketOpen = open
}

// SetMetrics installs Prometheus instrumentation.
func (t *Trader) SetMetrics(m *metrics.Metrics) {
	t.metrics = m
}

// Restore reloads open trades from the journal into the book so a restart
// does not orphan live positions. Restored positions have no resting stop
// order id; the next trail improvement re-places one.
func (t *Trader) Restore() error {
	if t.journal == nil {
		return nil
	}
	open, err := t.journal.OpenTrades()
	if err != nil {
		return fmt.Errorf("autotrader restore: %w", err)
	}
	for _, rec := range open {
		pos := &model.Position{
			Symbol:      rec.Symbol,
			Exchange:    rec.Exchange,
			Strategy:    rec.Strategy,
			Status:      model.PositionOpen,
			Qty:         rec.Qty,
			EntryPrice:  rec.EntryPrice,
			StopLoss:    rec.StopLoss,
			InitialStop: rec.StopLoss, // journal holds the entry-time stop
			Target:      rec.Target,
			HighestSeen: rec.EntryPrice,
			LastPrice:   rec.EntryPrice,
			EntryTime:   rec.EntryTime,
			JournalID:   rec.ID,
		}
		if inst, ok := t.instruments[rec.Symbol]; ok {
			pos.Token = inst.Token
		}
		t.book.Add(pos)
		log.Printf("[autotrader] restored open position %s qty=%d entry=%d stop=%d (journal id %d)",
			rec.Symbol, rec.Qty, rec.EntryPrice, rec.StopLoss, rec.ID)
	}
	return nil
}

// Run is the event loop. Ticks drive trailing and exits; the scan ticker
// drives entries. Returns when ctx is cancelled or the tick source closes.
func (t *Trader) Run(ctx context.Context, ticks <-chan model.Tick, scanEvery time.Duration) error {
	t.setRunning(true)
	defer t.setRunning(false)

	scanner := time.NewTicker(scanEvery)
	defer scanner.Stop()

	log.Printf("[autotrader] running: %d symbols watched, capital=%.2f, max positions=%d",
		len(t.cfg.Watchlist), t.cfg.Capital, t.cfg.MaxOpenPositions)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tick, ok := <-ticks:
			if !ok {
				return nil
			}
			t.handleTick(ctx, tick)
		case <-scanner.C:
			t.Scan(ctx)
		case symbol := <-t.exits:
			if err := t.manualExit(ctx, symbol); err != nil {
				log.Printf("[autotrader] manual exit %s: %v", symbol, err)
			}
		}
	}
}

// RequestExit queues an operator request to close a position at market.
// Returns false if the exit queue is full.
func (t *Trader) RequestExit(symbol string) bool {
	select {
	case t.exits <- symbol:
		return true
	default:
		log.Printf("[autotrader] exit queue full, dropped request for %s", symbol)
		return false
	}
}

// Status returns the published snapshot.
func (t *Trader) Status() Status {
	t.mu.RLock()
	running := t.running
	t.mu.RUnlock()
	return Status{
		IsRunning:     running,
		OpenPositions: t.book.Open(),
		SessionPnL:    t.ledger.RealizedPnL(),
		Breached:      t.risk.Breached(),
	}
}

// Scan evaluates every watchlist symbol and attempts entries.
func (t *Trader) Scan(ctx context.Context) {
	if t.marketOpen != nil && !t.marketOpen(t.now()) {
		return
	}
	for _, inst := range t.cfg.Watchlist {
		if err := t.scanSymbol(ctx, inst); err != nil {
			log.Printf("[autotrader] scan %s: %v", inst.Symbol, err)
		}
	}
}

func (t *Trader) setRunning(v bool) {
	t.mu.Lock()
	t.running = v
	t.mu.Unlock()
}

func (t *Trader) inCooldown(symbol string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	until, ok := t.cooldown[symbol]
	return ok && t.now().Before(until)
}

func (t *Trader) startCooldown(symbol string) {
	t.mu.Lock()
	t.cooldown[symbol] = t.now().Add(t.cfg.Cooldown)
	t.mu.Unlock()
}

// scanSymbol runs the entry gate for one instrument and opens a position
// when every check passes.
func (t *Trader) scanSymbol(ctx context.Context, inst model.Instrument) error {
	if t.inCooldown(inst.Symbol) {
		return nil
	}
	if ok, _ := t.risk.CanEnter(inst.Symbol); !ok {
		return nil
	}

	// Evaluation is expensive (history fetch + full analysis), so the
	// cooldown is stamped here as well as on exit: a symbol is looked at
	// once per cooldown window no matter how often the scanner fires.
	t.startCooldown(inst.Symbol)

	series, err := t.hist.GetSeries(ctx, inst, t.cfg.LookbackDays)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	evalStart := t.now()
	res, err := strategy.Analyze(inst.Symbol, series, inst.Exchange)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	primary := res.Primary
	if t.metrics != nil {
		t.metrics.EvaluationsTotal.Inc()
		t.metrics.EvalDuration.Observe(t.now().Sub(evalStart).Seconds())
		t.metrics.SignalsTotal.WithLabelValues(string(primary.Signal)).Inc()
	}
	if primary.Signal != strategy.SignalBuy || primary.Confidence < t.cfg.MinConfidence {
		return nil
	}

	ltp, err := t.quoter.GetLTP(ctx, inst)
	if err != nil {
		return fmt.Errorf("ltp: %w", err)
	}
	stop := model.ToPaise(primary.StopLoss)
	if stop <= 0 || stop >= ltp {
		return nil // stop at or above live price, no defined risk
	}

	qty := t.positionSize(ltp, stop)
	if qty < 1 {
		return nil
	}

	target := ltp + int64(float64(ltp-stop)*t.cfg.TargetMultiplier)

	return t.enter(ctx, inst, primary.StrategyName, ltp, stop, target, qty)
}

// positionSize returns floor(riskBudget / riskPerShare), capped so the
// position never exceeds a quarter of capital.
func (t *Trader) positionSize(ltp, stop int64) int64 {
	price := model.Rupees(ltp)
	riskPerShare := price - model.Rupees(stop)
	if riskPerShare <= 0 {
		return 0
	}
	qty := int64(t.cfg.Capital * t.cfg.RiskPerTrade / riskPerShare)
	if maxQty := int64(t.cfg.Capital * maxPositionFraction / price); qty > maxQty {
		qty = maxQty
	}
	return qty
}

func (t *Trader) enter(ctx context.Context, inst model.Instrument, strategyName string,
	ltp, stop, target, qty int64) error {

	entryID, err := t.exec.PlaceOrder(ctx, model.OrderSpec{
		Symbol:      inst.Symbol,
		Token:       inst.Token,
		Exchange:    inst.Exchange,
		Side:        model.SideBuy,
		OrderType:   model.OrderTypeMarket,
		Variety:     model.VarietyNormal,
		ProductType: model.ProductDelivery,
		Qty:         qty,
		Price:       ltp,
	})
	if err != nil {
		if t.metrics != nil {
			t.metrics.OrdersFailed.Inc()
		}
		return fmt.Errorf("entry order: %w", err)
	}
	if t.metrics != nil {
		t.metrics.OrdersPlaced.WithLabelValues(string(model.SideBuy)).Inc()
	}

	pos := &model.Position{
		Symbol:       inst.Symbol,
		Token:        inst.Token,
		Exchange:     inst.Exchange,
		Strategy:     strategyName,
		Status:       model.PositionOpen,
		Qty:          qty,
		EntryPrice:   ltp,
		StopLoss:     stop,
		InitialStop:  stop,
		Target:       target,
		HighestSeen:  ltp,
		LastPrice:    ltp,
		EntryOrderID: entryID,
		EntryTime:    t.now(),
	}

	// Protective stop. Failure leaves the position OPEN; the next trail
	// improvement retries placement.
	if stopID, serr := t.placeStop(ctx, pos); serr != nil {
		log.Printf("[autotrader] %s: stop placement failed, position unprotected: %v", inst.Symbol, serr)
	} else {
		pos.StopOrderID = stopID
	}

	if t.journal != nil {
		id, jerr := t.journal.SaveTrade(model.TradeRecord{
			Symbol:     pos.Symbol,
			Exchange:   pos.Exchange,
			Strategy:   pos.Strategy,
			Qty:        pos.Qty,
			EntryPrice: pos.EntryPrice,
			StopLoss:   pos.StopLoss,
			Target:     pos.Target,
			EntryTime:  pos.EntryTime,
			Status:     "OPEN",
		})
		if jerr != nil {
			log.Printf("[autotrader] %s: journal save failed: %v", pos.Symbol, jerr)
		} else {
			pos.JournalID = id
		}
	}

	t.book.Add(pos)
	if t.metrics != nil {
		t.metrics.OpenPositions.Set(float64(t.book.Count()))
	}
	log.Printf("[autotrader] ENTRY %s [%s] qty=%d entry=%d stop=%d target=%d order=%s",
		pos.Symbol, pos.Strategy, qty, ltp, stop, target, entryID)
	t.sendAlert(ctx, notification.AlertInfo, "Position Opened",
		fmt.Sprintf("%s via %s: qty %d @ %.2f, stop %.2f, target %.2f",
			pos.Symbol, pos.Strategy, qty, model.Rupees(ltp), model.Rupees(stop), model.Rupees(target)))
	return nil
}

func (t *Trader) placeStop(ctx context.Context, pos *model.Position) (string, error) {
	return t.exec.PlaceOrder(ctx, model.OrderSpec{
		Symbol:       pos.Symbol,
		Token:        pos.Token,
		Exchange:     pos.Exchange,
		Side:         model.SideSell,
		OrderType:    model.OrderTypeStopLoss,
		Variety:      model.VarietyStopLoss,
		ProductType:  model.ProductDelivery,
		Qty:          pos.Qty,
		Price:        pos.StopLoss,
		TriggerPrice: pos.StopLoss,
	})
}

// handleTick updates the position for the tick's symbol: mark the price,
// trail the stop, and exit on a level touch. Ticks for symbols with no
// position are ignored.
func (t *Trader) handleTick(ctx context.Context, tick model.Tick) {
	pos, ok := t.book.Get(tick.Symbol)
	if !ok || pos.Status != model.PositionOpen {
		return
	}

	t.book.UpdatePrice(tick.Symbol, tick.LTP)

	if t.cfg.TrailingEnabled {
		t.maybeTrail(ctx, pos)
	}

	switch {
	case tick.LTP <= pos.StopLoss:
		if err := t.exit(ctx, pos, tick.LTP, "STOP-LOSS"); err != nil {
			log.Printf("[autotrader] %s: exit failed, position stays open: %v", pos.Symbol, err)
		}
	case tick.LTP >= pos.Target:
		if err := t.exit(ctx, pos, tick.LTP, "TARGET"); err != nil {
			log.Printf("[autotrader] %s: exit failed, position stays open: %v", pos.Symbol, err)
		}
	}
}

// maybeTrail lifts the stop to highestSeen minus the initial risk, only
// on strict improvement and only after price has advanced 2% past entry.
func (t *Trader) maybeTrail(ctx context.Context, pos *model.Position) {
	activation := pos.EntryPrice + int64(float64(pos.EntryPrice)*trailActivationPct)
	if pos.HighestSeen < activation {
		return
	}
	newStop := pos.HighestSeen - pos.InitialRisk()
	if newStop <= pos.StopLoss {
		return
	}

	spec := model.OrderSpec{
		Symbol:       pos.Symbol,
		Token:        pos.Token,
		Exchange:     pos.Exchange,
		Side:         model.SideSell,
		OrderType:    model.OrderTypeStopLoss,
		Variety:      model.VarietyStopLoss,
		ProductType:  model.ProductDelivery,
		Qty:          pos.Qty,
		Price:        newStop,
		TriggerPrice: newStop,
	}

	stopID := pos.StopOrderID
	if stopID == "" {
		// No resting stop (placement failed at entry, or restored
		// position). Place one now.
		id, err := t.exec.PlaceOrder(ctx, spec)
		if err != nil {
			log.Printf("[autotrader] %s: trail stop placement failed: %v", pos.Symbol, err)
			return
		}
		stopID = id
	} else if err := t.exec.ModifyOrder(ctx, stopID, spec); err != nil {
		log.Printf("[autotrader] %s: trail stop modify failed: %v", pos.Symbol, err)
		return
	}

	log.Printf("[autotrader] TRAIL %s stop %d -> %d (high %d)",
		pos.Symbol, pos.StopLoss, newStop, pos.HighestSeen)
	t.book.Mutate(pos.Symbol, func(p *model.Position) {
		p.StopOrderID = stopID
		p.StopLoss = newStop
	})
}

// exit closes a position at market. On submission failure the position
// reverts to OPEN so the next tick can retry.
func (t *Trader) exit(ctx context.Context, pos *model.Position, exitPrice int64, reason string) error {
	t.book.Mutate(pos.Symbol, func(p *model.Position) { p.Status = model.PositionExiting })

	if pos.StopOrderID != "" {
		if err := t.exec.CancelOrder(ctx, pos.StopOrderID, model.VarietyStopLoss); err != nil {
			log.Printf("[autotrader] %s: stop cancel failed: %v", pos.Symbol, err)
		}
	}

	_, err := t.exec.PlaceOrder(ctx, model.OrderSpec{
		Symbol:      pos.Symbol,
		Token:       pos.Token,
		Exchange:    pos.Exchange,
		Side:        model.SideSell,
		OrderType:   model.OrderTypeMarket,
		Variety:     model.VarietyNormal,
		ProductType: model.ProductDelivery,
		Qty:         pos.Qty,
		Price:       exitPrice,
	})
	if err != nil {
		t.book.Mutate(pos.Symbol, func(p *model.Position) { p.Status = model.PositionOpen })
		if t.metrics != nil {
			t.metrics.OrdersFailed.Inc()
		}
		return fmt.Errorf("exit order: %w", err)
	}

	pnl := (exitPrice - pos.EntryPrice) * pos.Qty
	t.book.Mutate(pos.Symbol, func(p *model.Position) {
		p.ExitPrice = exitPrice
		p.RealizedPnL = pnl
		p.Status = model.PositionClosed
	})

	t.ledger.Record(portfolio.ClosedTrade{
		Symbol:     pos.Symbol,
		Strategy:   pos.Strategy,
		Qty:        pos.Qty,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exitPrice,
		PnL:        pnl,
		ExitReason: reason,
		ExitTime:   t.now(),
	})
	wasBreached := t.risk.Breached()
	t.risk.RecordPnL(pnl)

	if t.journal != nil && pos.JournalID != 0 {
		if jerr := t.journal.UpdateTrade(pos.JournalID, exitPrice, t.now(), pnl, "CLOSED"); jerr != nil {
			log.Printf("[autotrader] %s: journal update failed: %v", pos.Symbol, jerr)
		}
	}

	t.book.Remove(pos.Symbol)
	t.startCooldown(pos.Symbol)

	if t.metrics != nil {
		t.metrics.OrdersPlaced.WithLabelValues(string(model.SideSell)).Inc()
		t.metrics.ExitsTotal.WithLabelValues(reason).Inc()
		t.metrics.OpenPositions.Set(float64(t.book.Count()))
		t.metrics.SessionPnLRupees.Set(model.Rupees(t.ledger.RealizedPnL()))
		if t.risk.Breached() {
			t.metrics.BreakerTripped.Set(1)
		}
	}

	log.Printf("[autotrader] EXIT %s [%s] qty=%d entry=%d exit=%d pnl=%d session=%d",
		pos.Symbol, reason, pos.Qty, pos.EntryPrice, exitPrice, pnl, t.ledger.RealizedPnL())
	t.sendAlert(ctx, notification.AlertInfo, "Position Closed",
		fmt.Sprintf("%s exited on %s: pnl %.2f, session %.2f",
			pos.Symbol, reason, model.Rupees(pnl), model.Rupees(t.ledger.RealizedPnL())))

	if !wasBreached && t.risk.Breached() {
		t.sendAlert(ctx, notification.AlertCritical, "Daily Loss Limit Hit",
			fmt.Sprintf("Session pnl %.2f; new entries halted for the day.",
				model.Rupees(t.risk.DailyPnL())))
	}
	return nil
}

func (t *Trader) manualExit(ctx context.Context, symbol string) error {
	pos, ok := t.book.Get(symbol)
	if !ok {
		return fmt.Errorf("no open position for %s", symbol)
	}
	if pos.Status != model.PositionOpen {
		return fmt.Errorf("%s is %s, cannot exit", symbol, pos.Status)
	}
	return t.exit(ctx, pos, pos.LastPrice, "MANUAL")
}

func (t *Trader) sendAlert(ctx context.Context, level notification.AlertLevel, title, msg string) {
	if t.notify == nil {
		return
	}
	if err := t.notify.Send(ctx, notification.Alert{Level: level, Title: title, Message: msg}); err != nil {
		log.Printf("[autotrader] alert delivery failed: %v", err)
	}
}
