// Package api exposes the trading engine's control surface over HTTP:
// status and trade history reads, manual exits, and the live event stream.
package api

import (
	"encoding/json"
	"log"
	"net/http"

	"swing-traderv1/internal/autotrader"
	"swing-traderv1/internal/execution"
	"swing-traderv1/internal/statusfeed"
)

const recentTradesLimit = 50

// Router builds the HTTP mux for the trader service.
type Router struct {
	trader  *autotrader.Trader
	journal *execution.Journal // nil in paper setups without a journal
	hub     *statusfeed.Hub    // nil when the feed is disabled
}

// NewRouter wires the engine's handlers.
func NewRouter(trader *autotrader.Trader, journal *execution.Journal, hub *statusfeed.Hub) *Router {
	return &Router{trader: trader, journal: journal, hub: hub}
}

// Mux returns the configured ServeMux.
func (rt *Router) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/v1/status", rt.handleStatus)
	mux.HandleFunc("/api/v1/trades", rt.handleTrades)
	mux.HandleFunc("/api/v1/exit", rt.handleExit)

	if rt.hub != nil {
		mux.HandleFunc("/api/v1/stream", rt.hub.HandleWS)
	}

	return mux
}

func (rt *Router) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.trader.Status())
}

func (rt *Router) handleTrades(w http.ResponseWriter, r *http.Request) {
	if rt.journal == nil {
		writeError(w, http.StatusNotFound, "journal not configured")
		return
	}
	trades, err := rt.journal.RecentTrades(recentTradesLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// handleExit queues a manual exit for an open position. The engine closes
// it at the last seen price on its next loop iteration.
func (rt *Router) handleExit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if !rt.trader.RequestExit(symbol) {
		writeError(w, http.StatusServiceUnavailable, "exit queue full, retry")
		return
	}
	log.Printf("[api] manual exit requested for %s", symbol)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "symbol": symbol})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] response encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
