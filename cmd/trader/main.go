// cmd/trader runs the swing trading engine: it scans the watchlist for
// entries, manages open positions tick by tick, and exposes the control
// API, status feed, and Prometheus metrics on one HTTP listener.
//
// Live mode logs into Angel One and trades through the rate-limited
// broker queue. Paper mode (PAPER_TRADING=true) fills orders locally,
// reads history from the candle store, and takes ticks from a simulated
// feed (see cmd/tickserver).
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"swing-traderv1/config"
	"swing-traderv1/internal/api"
	"swing-traderv1/internal/autotrader"
	"swing-traderv1/internal/execution"
	"swing-traderv1/internal/logger"
	"swing-traderv1/internal/markethours"
	"swing-traderv1/internal/marketdata"
	"swing-traderv1/internal/metrics"
	"swing-traderv1/internal/model"
	"swing-traderv1/internal/notification"
	"swing-traderv1/internal/statusfeed"
	sqlitestore "swing-traderv1/internal/store/sqlite"
	"swing-traderv1/pkg/smartconnect"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	logger.Init("trader", slog.LevelInfo)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[trader] %v", err)
	}
	watchlist := cfg.ParseWatchlist()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()

	// Trade journal
	if dir := filepath.Dir(cfg.JournalPath); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	journal, err := execution.NewJournal(cfg.JournalPath)
	if err != nil {
		log.Fatalf("[trader] journal open failed: %v", err)
	}
	defer journal.Close()

	// Status feed: WebSocket hub, optionally mirrored to Redis
	hub := statusfeed.NewHub()
	var pub *statusfeed.Publisher
	if cfg.RedisAddr != "" {
		pub, err = statusfeed.NewPublisher(statusfeed.PublisherConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[trader] redis unavailable, feed runs WS-only: %v", err)
			pub = nil
		}
	}
	feed := statusfeed.New(hub, pub)
	go feed.Run(ctx)

	// Alerts fan out to the log, the status feed, and any configured
	// external channels.
	backends := []notification.Notifier{notification.NewLogNotifier(), feed}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	notify := notification.NewFanout(backends...)

	// Mode-specific wiring: executor, data sources, tick source.
	var (
		exec    execution.OrderExecutor
		hist    model.HistoricalSource
		quoter  model.LiveQuoter
		tickSrc model.TickSource
		queue   *smartconnect.Queue
	)

	if cfg.PaperTrading {
		log.Println("[trader] PAPER MODE: no real orders will be placed")
		exec = execution.NewPaperExecutor(int64(cfg.Trading.SlippageBps))

		reader, rerr := sqlitestore.NewReader(cfg.CandlePath)
		if rerr != nil {
			log.Fatalf("[trader] candle store open failed: %v", rerr)
		}
		defer reader.Close()
		store := marketdata.NewStoreSource(reader)
		hist, quoter = store, store

		sim, serr := marketdata.NewSimSource(marketdata.SimConfig{URL: cfg.SimFeedURL})
		if serr != nil {
			log.Fatalf("[trader] bad SIM_FEED_URL: %v", serr)
		}
		sim.OnReconnect = m.FeedReconnects.Inc
		tickSrc = sim
	} else {
		sc := smartconnect.New(smartconnect.Config{
			APIKey:     cfg.AngelAPIKey,
			ClientCode: cfg.AngelClientCode,
			Password:   cfg.AngelPassword,
			TOTPSecret: cfg.AngelTOTPSecret,
		})
		if err := sc.Login(); err != nil {
			log.Fatalf("[trader] broker login failed: %v", err)
		}
		health.SetBrokerSession(true)
		log.Println("[trader] broker session established")

		queue = smartconnect.NewQueue(func() error {
			m.SessionRenewals.Inc()
			return sc.RenewSession()
		})
		go queue.Run(ctx)

		broker := marketdata.NewBrokerSource(sc, queue)
		hist, quoter = broker, broker
		exec = execution.NewLiveExecutor(sc, queue)

		stream, serr := marketdata.NewStreamSource(sc, watchlist)
		if serr != nil {
			log.Printf("[trader] LTP stream unavailable, polling instead: %v", serr)
			tickSrc = marketdata.NewPollSource(broker, watchlist, 5*time.Second)
		} else {
			tickSrc = stream
		}

		// Keep the local candle store current so analyze and backtest
		// work against the same history the engine trades on.
		go syncCandleStore(ctx, cfg.CandlePath, hist, watchlist, cfg.Trading.LookbackDays)
	}

	trader, err := autotrader.New(autotrader.Config{
		Capital:          cfg.Trading.Capital,
		RiskPerTrade:     cfg.Trading.RiskPerTrade,
		MaxDailyLoss:     cfg.Trading.MaxDailyLoss,
		MaxOpenPositions: cfg.Trading.MaxOpenPositions,
		MinConfidence:    cfg.Trading.MinConfidence,
		TargetMultiplier: cfg.Trading.TargetMultiplier,
		TrailingEnabled:  cfg.Trading.TrailingEnabled,
		Cooldown:         time.Duration(cfg.Trading.CooldownSec) * time.Second,
		LookbackDays:     cfg.Trading.LookbackDays,
		Watchlist:        watchlist,
	}, exec, hist, quoter, journal, notify)
	if err != nil {
		log.Fatalf("[trader] %v", err)
	}
	trader.SetMetrics(m)
	trader.SetMarketHours(markethours.IsMarketOpen)
	if err := trader.Restore(); err != nil {
		log.Fatalf("[trader] %v", err)
	}

	// HTTP: control API + status stream + /metrics + /healthz
	router := api.NewRouter(trader, journal, hub)
	srv := metrics.NewServer(cfg.MetricsAddr, health, router.Mux())
	srv.Start()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		srv.Stop(shutdownCtx)
		done()
	}()

	var rdb *goredis.Client
	if pub != nil {
		rdb = pub.Client()
	}
	health.StartLivenessChecker(ctx, rdb, journal.DB(), 15*time.Second)

	go feed.RunStatus(ctx, 2*time.Second, func() any { return trader.Status() })
	go publishGauges(ctx, m, hub, queue)

	// Tick fan-in: stamp health and forward to the engine.
	raw := make(chan model.Tick, 256)
	ticks := make(chan model.Tick, 256)
	go func() {
		if err := tickSrc.Run(ctx, raw); err != nil && ctx.Err() == nil {
			log.Printf("[trader] tick source stopped: %v", err)
		}
		close(raw)
	}()
	go func() {
		defer close(ticks)
		for tick := range raw {
			health.SetFeedConnected(true)
			health.SetLastTickTime(tick.TS)
			select {
			case ticks <- tick:
			default:
				m.DroppedTicks.Inc()
			}
		}
	}()

	scanEvery := time.Duration(cfg.Trading.ScanIntervalSec) * time.Second
	if err := trader.Run(ctx, ticks, scanEvery); err != nil && err != context.Canceled {
		log.Printf("[trader] stopped: %v", err)
	}
	log.Println("[trader] shutdown complete")
}

// syncCandleStore fetches daily history for the watchlist and persists it
// to the local SQLite candle store.
func syncCandleStore(ctx context.Context, path string, hist model.HistoricalSource,
	watchlist []model.Instrument, lookback int) {

	if dir := filepath.Dir(path); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: path})
	if err != nil {
		log.Printf("[trader] candle store sync skipped: %v", err)
		return
	}
	defer writer.Close()

	for _, inst := range watchlist {
		if ctx.Err() != nil {
			return
		}
		series, err := hist.GetSeries(ctx, inst, lookback)
		if err != nil {
			log.Printf("[trader] candle sync %s: %v", inst.Symbol, err)
			continue
		}
		if err := writer.UpsertSeries(series); err != nil {
			log.Printf("[trader] candle sync %s: %v", inst.Symbol, err)
			continue
		}
		log.Printf("[trader] candle sync %s: %d bars", inst.Symbol, len(series))
	}
}

// publishGauges refreshes the queue and feed gauges every few seconds.
func publishGauges(ctx context.Context, m *metrics.Metrics, hub *statusfeed.Hub, queue *smartconnect.Queue) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if queue != nil {
				m.QueueDepth.Set(float64(queue.Depth()))
			}
			m.FeedClients.Set(float64(hub.ClientCount()))
		}
	}
}
