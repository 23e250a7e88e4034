// cmd/tickserver broadcasts simulated tick data over WebSocket so the
// trader can run in paper mode without broker credentials. The message
// shape is identical to model.Tick:
//
//	{"symbol":"RELIANCE","token":"2885","exchange":"NSE","ltp":185005000,"ts":"..."}
//
// LTP is in paise (1 INR = 100 paise), same as the live feed.
//
// Config (env vars):
//
//	TICK_SERVER_ADDR  — listen address  (default: ":9001")
//	TICK_SYMBOLS      — comma-separated SYMBOL:TOKEN:EXCHANGE triples
//	                    (default: "RELIANCE:2885:NSE")
//	TICK_INTERVAL_MS  — broadcast interval milliseconds (default: "1000")
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"swing-traderv1/internal/model"

	"github.com/gorilla/websocket"
)

// instrument holds per-symbol simulation state.
type instrument struct {
	Symbol   string
	Token    string
	Exchange string
	Price    int64 // current simulated price in paise
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, 256)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	return ch
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *hub) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client, drop tick
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[tickserver] upgrade error: %v", err)
			return
		}
		log.Printf("[tickserver] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[tickserver] client disconnected: %s", r.RemoteAddr)
		}()

		// Write pump: sends tick JSON to this client.
		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// ─── Tick generator ──────────────────────────────────────────────────────────

// walkPrice applies a tiny random walk (±0.1%) to simulate price movement.
func walkPrice(price int64) int64 {
	pct := (rand.Float64()*0.2 - 0.1) / 100.0
	delta := int64(float64(price) * pct)
	newPrice := price + delta
	if newPrice < 100 { // floor at 1 paise
		newPrice = 100
	}
	return newPrice
}

func runGenerator(h *hub, instruments []instrument, intervalMs int) {
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		for i := range instruments {
			instruments[i].Price = walkPrice(instruments[i].Price)
			msg := model.Tick{
				Symbol:   instruments[i].Symbol,
				Token:    instruments[i].Token,
				Exchange: instruments[i].Exchange,
				LTP:      instruments[i].Price,
				TS:       time.Now().UTC(),
			}
			b, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			h.broadcast(b)
		}
	}
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[tickserver] starting demo tick server...")

	addr := envOrDefault("TICK_SERVER_ADDR", ":9001")
	symbolsEnv := envOrDefault("TICK_SYMBOLS", "RELIANCE:2885:NSE")
	intervalMs := envIntOrDefault("TICK_INTERVAL_MS", 1000)

	instruments := parseInstruments(symbolsEnv)
	if len(instruments) == 0 {
		log.Fatalf("[tickserver] no instruments configured via TICK_SYMBOLS")
	}
	log.Printf("[tickserver] instruments: %+v", instruments)
	log.Printf("[tickserver] broadcast interval: %dms", intervalMs)

	h := newHub()

	go runGenerator(h, instruments, intervalMs)

	http.HandleFunc("/ws", wsHandler(h))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"tickserver"}`)
	})

	log.Printf("[tickserver] ✅ listening on %s  (WebSocket: ws://localhost%s/ws)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[tickserver] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func parseInstruments(s string) []instrument {
	// Default starting prices in paise (INR × 100)
	defaultPrices := map[string]int64{
		"2885":  142500, // ~₹1425.00 (RELIANCE)
		"11536": 345000, // ~₹3450.00 (TCS)
		"1594":  145000, // ~₹1450.00 (INFY)
	}

	var result []instrument
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		seg := strings.SplitN(part, ":", 3)
		if len(seg) != 3 {
			log.Printf("[tickserver] skipping invalid symbol spec: %q", part)
			continue
		}
		symbol := strings.TrimSpace(seg[0])
		token := strings.TrimSpace(seg[1])
		exchange := strings.TrimSpace(seg[2])
		price := defaultPrices[token]
		if price == 0 {
			price = 100000 // default ₹1000.00
		}
		result = append(result, instrument{
			Symbol:   symbol,
			Token:    token,
			Exchange: exchange,
			Price:    price,
		})
	}
	return result
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
