// Package backtest replays a single strategy bar-by-bar over a historical
// daily series, reusing the live evaluator on a growing prefix so no
// decision can see past its own bar. Single-threaded and wall-clock free:
// the same series and strategy always reproduce the same report.
package backtest

import (
	"fmt"
	"time"

	"swing-traderv1/internal/model"
	"swing-traderv1/internal/strategy"
)

// Sizing rules for the simulated book.
const (
	riskFraction     = 0.02 // risk 2% of equity per trade
	fallbackFraction = 0.10 // value-based fallback when risk distance is degenerate
)

// Trade is one completed round trip.
type Trade struct {
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Qty        int64     `json:"qty"`
	PnL        float64   `json:"pnl"`
	ROI        float64   `json:"roi"` // percent
}

// EquityPoint is one bar's mark of cash plus open position value.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Metrics aggregates the trade list and equity curve.
type Metrics struct {
	TotalTrades  int     `json:"total_trades"`
	WinRate      float64 `json:"win_rate"`      // percent
	ProfitFactor float64 `json:"profit_factor"` // gross profit when there are no losses
	NetProfit    float64 `json:"net_profit"`
	MaxDrawdown  float64 `json:"max_drawdown"` // percent, peak to trough
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	Expectancy   float64 `json:"expectancy"`
}

// Report is the full backtest output.
type Report struct {
	Symbol      string        `json:"symbol"`
	Strategy    string        `json:"strategy"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`
	Metrics     Metrics       `json:"metrics"`
}

// simPosition is the simulator's private position: deliberately not the
// live model.Position, which carries order and lifecycle state the
// simulator has no use for.
type simPosition struct {
	entryPrice float64
	qty        int64
	entryDate  time.Time
	stopLoss   float64
	target     float64
}

// Run replays strategyName over the series. One simulated position at a
// time; a bar's exit is checked before its entry, and the stop before the
// target when both would fill (pessimistic).
func Run(symbol, strategyName, exchange string, s model.Series, initialCapital float64) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("backtest %s: %w", symbol, err)
	}
	if _, ok := strategy.ByName(strategyName); !ok {
		return nil, fmt.Errorf("backtest %s: unknown strategy %q", symbol, strategyName)
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("backtest %s: initial capital must be positive", symbol)
	}

	cash := initialCapital
	var pos *simPosition
	var trades []Trade
	var curve []EquityPoint

	for i := model.MinSeriesLen; i < len(s); i++ {
		bar := s[i]
		close := model.Rupees(bar.Close)

		// The decision at bar i sees only bars 0..i.
		res, err := strategy.Analyze(symbol, s[:i+1], exchange)
		if err != nil {
			return nil, fmt.Errorf("backtest %s bar %d: %w", symbol, i, err)
		}

		signal := strategy.SignalNoTrade
		stop := close * 0.95
		target := close * 1.1
		for _, e := range res.Strategies {
			if e.StrategyName != strategyName {
				continue
			}
			signal = e.Signal
			if e.StopLoss != 0 {
				stop = e.StopLoss
			}
			if len(e.TargetPrices) > 0 && e.TargetPrices[0] != 0 {
				target = e.TargetPrices[0]
			}
			break
		}

		// Exit first. Stop wins over target on the same bar.
		if pos != nil {
			hitStop := model.Rupees(bar.Low) <= pos.stopLoss
			hitTarget := model.Rupees(bar.High) >= pos.target
			if hitStop || hitTarget {
				exitPrice := pos.target
				if hitStop {
					exitPrice = pos.stopLoss
				}
				revenue := float64(pos.qty) * exitPrice
				cash += revenue
				trades = append(trades, Trade{
					EntryDate:  pos.entryDate,
					ExitDate:   bar.Date,
					EntryPrice: pos.entryPrice,
					ExitPrice:  exitPrice,
					Qty:        pos.qty,
					PnL:        revenue - float64(pos.qty)*pos.entryPrice,
					ROI:        (exitPrice - pos.entryPrice) / pos.entryPrice * 100,
				})
				pos = nil
			}
		}

		// Entry: risk 2% of equity against the per-share risk distance,
		// value-based fallback when that distance is degenerate, always
		// capped by available cash.
		if pos == nil && signal == strategy.SignalBuy {
			var qty int64
			if riskPerShare := close - stop; riskPerShare > 0 {
				qty = int64(cash * riskFraction / riskPerShare)
			}
			if qty <= 0 {
				qty = int64(cash * fallbackFraction / close)
			}
			if maxQty := int64(cash / close); qty > maxQty {
				qty = maxQty
			}
			if qty > 0 {
				cash -= float64(qty) * close
				pos = &simPosition{
					entryPrice: close,
					qty:        qty,
					entryDate:  bar.Date,
					stopLoss:   stop,
					target:     target,
				}
			}
		}

		equity := cash
		if pos != nil {
			equity += float64(pos.qty) * close
		}
		curve = append(curve, EquityPoint{Date: bar.Date, Equity: equity})
	}

	return &Report{
		Symbol:      symbol,
		Strategy:    strategyName,
		Trades:      trades,
		EquityCurve: curve,
		Metrics:     computeMetrics(trades, curve),
	}, nil
}

func computeMetrics(trades []Trade, curve []EquityPoint) Metrics {
	m := Metrics{TotalTrades: len(trades)}

	var wins, losses int
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
			grossProfit += t.PnL
		} else {
			losses++
			grossLoss += -t.PnL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(wins) / float64(m.TotalTrades) * 100
	}
	m.NetProfit = grossProfit - grossLoss
	if grossLoss == 0 {
		m.ProfitFactor = grossProfit
	} else {
		m.ProfitFactor = grossProfit / grossLoss
	}

	var peak, maxDD float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	m.MaxDrawdown = maxDD * 100

	if wins > 0 {
		m.AvgWin = grossProfit / float64(wins)
	}
	if losses > 0 {
		m.AvgLoss = grossLoss / float64(losses)
	}
	winP := m.WinRate / 100
	m.Expectancy = winP*m.AvgWin - (1-winP)*m.AvgLoss
	return m
}
