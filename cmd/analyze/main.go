// cmd/analyze runs a one-shot strategy evaluation for a single symbol
// and prints the full analysis as JSON.
//
// By default candles come from the local store (see cmd/trader, which
// keeps it synced). With --broker the tool logs into Angel One and
// fetches fresh history instead.
//
// Usage:
//
//	go run ./cmd/analyze --symbol=RELIANCE --token=2885 --exchange=NSE
//	go run ./cmd/analyze --symbol=TCS --token=11536 --broker
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"swing-traderv1/config"
	"swing-traderv1/internal/marketdata"
	"swing-traderv1/internal/model"
	"swing-traderv1/internal/strategy"
	sqlitestore "swing-traderv1/internal/store/sqlite"
	"swing-traderv1/pkg/smartconnect"
)

func main() {
	log.SetFlags(0)

	symbol := flag.String("symbol", "", "Trading symbol (required)")
	token := flag.String("token", "", "Instrument token (required)")
	exchange := flag.String("exchange", "NSE", "Exchange (NSE or BSE)")
	dbPath := flag.String("db", "data/candles.db", "Path to the candle store")
	lookback := flag.Int("lookback", 250, "Trading days of history to evaluate")
	useBroker := flag.Bool("broker", false, "Fetch history from Angel One instead of the local store")
	flag.Parse()

	if *symbol == "" || *token == "" {
		flag.Usage()
		os.Exit(2)
	}

	inst := model.Instrument{Symbol: *symbol, Token: *token, Exchange: *exchange}
	ctx := context.Background()

	var hist model.HistoricalSource
	if *useBroker {
		cfg := config.Load()
		sc := smartconnect.New(smartconnect.Config{
			APIKey:     cfg.AngelAPIKey,
			ClientCode: cfg.AngelClientCode,
			Password:   cfg.AngelPassword,
			TOTPSecret: cfg.AngelTOTPSecret,
		})
		if err := sc.Login(); err != nil {
			log.Fatalf("analyze: broker login failed: %v", err)
		}
		queue := smartconnect.NewQueue(sc.RenewSession)
		go queue.Run(ctx)
		hist = marketdata.NewBrokerSource(sc, queue)
	} else {
		reader, err := sqlitestore.NewReader(*dbPath)
		if err != nil {
			log.Fatalf("analyze: candle store open failed: %v", err)
		}
		defer reader.Close()
		hist = marketdata.NewStoreSource(reader)
	}

	series, err := hist.GetSeries(ctx, inst, *lookback)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}

	res, err := strategy.Analyze(inst.Symbol, series, inst.Exchange)
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Fatalf("analyze: %v", err)
	}
	os.Stdout.Write(out)
	os.Stdout.WriteString("\n")
}
