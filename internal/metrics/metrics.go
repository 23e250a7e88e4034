package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the trading engine.
type Metrics struct {
	EvaluationsTotal prometheus.Counter
	SignalsTotal     *prometheus.CounterVec // labels: signal
	EvalDuration     prometheus.Histogram

	OrdersPlaced *prometheus.CounterVec // labels: side
	OrdersFailed prometheus.Counter
	ExitsTotal   *prometheus.CounterVec // labels: reason

	OpenPositions    prometheus.Gauge
	SessionPnLRupees prometheus.Gauge
	BreakerTripped   prometheus.Gauge // 0=trading, 1=entries halted

	// Broker command queue
	QueueDepth      prometheus.Gauge
	SessionRenewals prometheus.Counter

	// Market data feed
	FeedReconnects prometheus.Counter
	DroppedTicks   prometheus.Counter

	// Status feed
	FeedClients        prometheus.Gauge
	RedisCircuitState  prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisBufferedSends prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_evaluations_total",
			Help: "Total strategy evaluations run against the watchlist",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_signals_total",
			Help: "Primary signals produced (by signal)",
		}, []string{"signal"}),
		EvalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trader_eval_duration_seconds",
			Help:    "Strategy evaluation latency per instrument",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_orders_placed_total",
			Help: "Orders accepted by the broker (by side)",
		}, []string{"side"}),
		OrdersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_failed_total",
			Help: "Order placements rejected or errored",
		}),
		ExitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_exits_total",
			Help: "Positions closed (by reason: STOP-LOSS, TARGET, MANUAL)",
		}, []string{"reason"}),

		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_open_positions",
			Help: "Currently open positions",
		}),
		SessionPnLRupees: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_session_pnl_rupees",
			Help: "Realized session PnL in rupees",
		}),
		BreakerTripped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_daily_loss_breaker",
			Help: "Daily loss breaker state (0=trading, 1=entries halted)",
		}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_broker_queue_depth",
			Help: "Requests waiting in the rate-limited broker queue",
		}),
		SessionRenewals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_session_renewals_total",
			Help: "Broker session renewals after token expiry",
		}),

		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_feed_reconnects_total",
			Help: "Market data WebSocket reconnection attempts",
		}),
		DroppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_dropped_ticks_total",
			Help: "Ticks dropped because the engine channel was full",
		}),

		FeedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_statusfeed_clients",
			Help: "Connected status feed WebSocket clients",
		}),
		RedisCircuitState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trader_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisBufferedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trader_redis_buffered_sends_total",
			Help: "Feed events buffered locally while Redis was unreachable",
		}),
	}

	prometheus.MustRegister(
		m.EvaluationsTotal,
		m.SignalsTotal,
		m.EvalDuration,
		m.OrdersPlaced,
		m.OrdersFailed,
		m.ExitsTotal,
		m.OpenPositions,
		m.SessionPnLRupees,
		m.BreakerTripped,
		m.QueueDepth,
		m.SessionRenewals,
		m.FeedReconnects,
		m.DroppedTicks,
		m.FeedClients,
		m.RedisCircuitState,
		m.RedisBufferedSends,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	FeedConnected  bool      `json:"feed_connected"`
	LastTickTime   time.Time `json:"last_tick_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`
	BrokerSession  bool      `json:"broker_session"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedConnected(v bool) {
	h.mu.Lock()
	h.FeedConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetBrokerSession(v bool) {
	h.mu.Lock()
	h.BrokerSession = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// Determine overall status
	overallStatus := "healthy"
	httpCode := http.StatusOK

	if !h.FeedConnected || !h.SQLiteOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}
	if !h.SQLiteOK && !h.BrokerSession {
		overallStatus = "unhealthy"
	}

	// Tick age
	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		FeedConnected   bool    `json:"feed_connected"`
		LastTickTime    string  `json:"last_tick_time"`
		TickAge         string  `json:"tick_age"`
		BrokerSession   bool    `json:"broker_session"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		FeedConnected:   h.FeedConnected,
		LastTickTime:    h.LastTickTime.Format(time.RFC3339),
		TickAge:         tickAge,
		BrokerSession:   h.BrokerSession,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz, plus any
// extra handlers the service mounts (the control API rides along here).
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server. extra may be nil.
func NewServer(addr string, health *HealthStatus, extra *http.ServeMux) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)
	if extra != nil {
		mux.Handle("/", extra)
	}

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
