// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"swing-traderv1/internal/model"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Angel One credentials (not required in paper mode)
	AngelAPIKey     string
	AngelClientCode string
	AngelPassword   string
	AngelTOTPSecret string

	// Mode
	PaperTrading bool
	SimFeedURL   string // paper-mode tick source, e.g. ws://localhost:9001/ws

	// Infrastructure
	RedisAddr     string // empty disables the status feed Redis mirror
	RedisPassword string
	JournalPath   string
	CandlePath    string
	MetricsAddr   string

	// Alert delivery (all optional)
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	// Watchlist: comma-separated SYMBOL:TOKEN:EXCHANGE triples
	Watchlist string

	Trading TradingConfig
}

// TradingConfig holds the risk and strategy knobs for the auto-trader.
type TradingConfig struct {
	Capital          float64 // rupees
	RiskPerTrade     float64 // fraction of capital risked per trade
	MaxDailyLoss     float64 // rupees
	MaxOpenPositions int
	MinConfidence    float64
	TargetMultiplier float64 // target distance as a multiple of entry risk
	TrailingEnabled  bool
	CooldownSec      int
	LookbackDays     int
	ScanIntervalSec  int
	SlippageBps      int // paper fills only
}

// Load reads configuration from environment variables with sensible defaults.
// Broker credentials are required unless PAPER_TRADING is set.
func Load() *Config {
	paper := getEnvBool("PAPER_TRADING", false)

	cfg := &Config{
		PaperTrading: paper,
		SimFeedURL:   getEnv("SIM_FEED_URL", "ws://localhost:9001/ws"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JournalPath:   getEnv("JOURNAL_PATH", "data/trades.db"),
		CandlePath:    getEnv("CANDLE_PATH", "data/candles.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		Watchlist: getEnv("WATCHLIST", "RELIANCE:2885:NSE,TCS:11536:NSE"),

		Trading: TradingConfig{
			Capital:          getEnvFloat("CAPITAL", 100000),
			RiskPerTrade:     getEnvFloat("RISK_PER_TRADE", 0.01),
			MaxDailyLoss:     getEnvFloat("MAX_DAILY_LOSS", 5000),
			MaxOpenPositions: getEnvInt("MAX_OPEN_POSITIONS", 3),
			MinConfidence:    getEnvFloat("MIN_CONFIDENCE", 0.80),
			TargetMultiplier: getEnvFloat("TARGET_MULTIPLIER", 2.0),
			TrailingEnabled:  getEnvBool("TRAILING_ENABLED", true),
			CooldownSec:      getEnvInt("COOLDOWN_SEC", 300),
			LookbackDays:     getEnvInt("LOOKBACK_DAYS", 250),
			ScanIntervalSec:  getEnvInt("SCAN_INTERVAL_SEC", 60),
			SlippageBps:      getEnvInt("SLIPPAGE_BPS", 5),
		},
	}

	if paper {
		cfg.AngelAPIKey = getEnv("ANGEL_API_KEY", "")
		cfg.AngelClientCode = getEnv("ANGEL_CLIENT_CODE", "")
		cfg.AngelPassword = getEnv("ANGEL_PASSWORD", "")
		cfg.AngelTOTPSecret = getEnv("ANGEL_TOTP_SECRET", "")
	} else {
		cfg.AngelAPIKey = mustEnv("ANGEL_API_KEY")
		cfg.AngelClientCode = mustEnv("ANGEL_CLIENT_CODE")
		cfg.AngelPassword = mustEnv("ANGEL_PASSWORD")
		cfg.AngelTOTPSecret = mustEnv("ANGEL_TOTP_SECRET")
	}

	return cfg
}

// ParseWatchlist parses the WATCHLIST env into instruments. Invalid
// entries are skipped with a log line.
func (c *Config) ParseWatchlist() []model.Instrument {
	var out []model.Instrument
	for _, part := range strings.Split(c.Watchlist, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seg := strings.SplitN(part, ":", 3)
		if len(seg) != 3 {
			log.Printf("[config] skipping invalid watchlist entry: %q", part)
			continue
		}
		out = append(out, model.Instrument{
			Symbol:   strings.TrimSpace(seg[0]),
			Token:    strings.TrimSpace(seg[1]),
			Exchange: strings.TrimSpace(seg[2]),
		})
	}
	return out
}

// Validate fails fast on configuration a running service cannot use.
func (c *Config) Validate() error {
	if len(c.ParseWatchlist()) == 0 {
		return fmt.Errorf("config: WATCHLIST has no valid entries")
	}
	if c.Trading.Capital <= 0 {
		return fmt.Errorf("config: CAPITAL must be positive")
	}
	if c.Trading.RiskPerTrade <= 0 || c.Trading.RiskPerTrade >= 1 {
		return fmt.Errorf("config: RISK_PER_TRADE must be in (0, 1)")
	}
	if c.Trading.MaxDailyLoss <= 0 {
		return fmt.Errorf("config: MAX_DAILY_LOSS must be positive")
	}
	if c.Trading.TargetMultiplier <= 0 {
		return fmt.Errorf("config: TARGET_MULTIPLIER must be positive")
	}
	if c.PaperTrading && c.SimFeedURL == "" {
		return fmt.Errorf("config: SIM_FEED_URL required in paper mode")
	}
	return nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}
