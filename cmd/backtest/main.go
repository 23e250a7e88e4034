// cmd/backtest replays stored daily candles through a single strategy
// and reports the simulated trades and equity metrics.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=RELIANCE --token=2885 \
//	    --strategy="Trend Following (ADX)" --capital=100000
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"swing-traderv1/internal/backtest"
	sqlitestore "swing-traderv1/internal/store/sqlite"
)

func main() {
	log.SetFlags(0)

	symbol := flag.String("symbol", "", "Trading symbol (required)")
	token := flag.String("token", "", "Instrument token (required)")
	exchange := flag.String("exchange", "NSE", "Exchange (NSE or BSE)")
	strategyName := flag.String("strategy", "Trend Following (ADX)", "Strategy to replay")
	capital := flag.Float64("capital", 100000, "Starting capital in rupees")
	dbPath := flag.String("db", "data/candles.db", "Path to the candle store")
	lookback := flag.Int("lookback", 0, "Trading days to replay (0 = all stored)")
	asJSON := flag.Bool("json", false, "Print the full report as JSON")
	flag.Parse()

	if *symbol == "" || *token == "" {
		flag.Usage()
		os.Exit(2)
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("backtest: candle store open failed: %v", err)
	}
	defer reader.Close()

	series, err := reader.ReadSeries(*exchange, *token, *lookback)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}
	if len(series) == 0 {
		log.Fatalf("backtest: no stored candles for %s:%s, run the trader or sync first", *exchange, *token)
	}

	report, err := backtest.Run(*symbol, *strategyName, *exchange, series, *capital)
	if err != nil {
		log.Fatalf("backtest: %v", err)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(report, "", "  ")
		os.Stdout.Write(out)
		os.Stdout.WriteString("\n")
		return
	}

	m := report.Metrics
	fmt.Printf("Backtest %s [%s] over %d bars\n", report.Symbol, report.Strategy, len(series))
	fmt.Printf("  Trades:        %d\n", m.TotalTrades)
	fmt.Printf("  Win rate:      %.1f%%\n", m.WinRate)
	fmt.Printf("  Net profit:    %.2f\n", m.NetProfit)
	fmt.Printf("  Profit factor: %.2f\n", m.ProfitFactor)
	fmt.Printf("  Max drawdown:  %.1f%%\n", m.MaxDrawdown)
	fmt.Printf("  Avg win/loss:  %.2f / %.2f\n", m.AvgWin, m.AvgLoss)
	fmt.Printf("  Expectancy:    %.2f\n", m.Expectancy)
	if len(report.EquityCurve) > 0 {
		last := report.EquityCurve[len(report.EquityCurve)-1]
		fmt.Printf("  Final equity:  %.2f (%s)\n", last.Equity, last.Date.Format("2006-01-02"))
	}
}
