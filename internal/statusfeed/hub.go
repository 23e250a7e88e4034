package statusfeed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"swing-traderv1/internal/markethours"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub manages WebSocket clients watching the trading engine. Every client
// receives every envelope; there is one stream, not per-channel routing.
// Recent event envelopes are kept in a replay buffer so a reconnecting
// client can backfill the gap via ?from_seq=N.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*Client]bool
	seq          int64
	latestStatus []byte // last status envelope, sent to new clients

	replay *ReplayBuffer
}

// NewHub creates a hub with a replay buffer for recent events.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		replay:  NewReplayBuffer(500),
	}
}

// BroadcastEvent wraps an event payload in an envelope and fans it out.
// Envelope JSON is hand-built; this sits on the trading event path.
func (h *Hub) BroadcastEvent(data []byte) {
	h.broadcast("event", data, true)
}

// BroadcastStatus fans out a status payload and retains it for new clients.
func (h *Hub) BroadcastStatus(data []byte) {
	h.broadcast("status", data, false)
}

func (h *Hub) broadcast(kind string, data []byte, replay bool) {
	now := time.Now().UTC()

	h.mu.Lock()
	h.seq++
	seq := h.seq
	h.mu.Unlock()

	buf := make([]byte, 0, len(kind)+len(data)+96)
	buf = append(buf, `{"kind":"`...)
	buf = append(buf, kind...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = now.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')

	if replay {
		h.replay.Push(seq, buf)
	}

	h.mu.Lock()
	if kind == "status" {
		h.latestStatus = buf
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- buf:
		default:
			// Slow client, skip. The replay buffer covers the gap.
		}
	}
}

// Missed returns buffered event envelopes with seq in [fromSeq, toSeq].
func (h *Hub) Missed(fromSeq, toSeq int64) [][]byte {
	entries := h.replay.Range(fromSeq, toSeq)
	result := make([][]byte, len(entries))
	for i, e := range entries {
		result[i] = e.Data
	}
	return result
}

// Seq returns the current envelope sequence number.
func (h *Hub) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP connection and registers the client.
// A ?from_seq=N query replays buffered events the client missed.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[statusfeed] ws upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}
	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	latest := h.latestStatus
	seq := h.seq
	h.mu.Unlock()

	log.Printf("[statusfeed] ws client connected (%d total)", count)

	if latest != nil {
		client.send <- latest
	}
	if fromStr := r.URL.Query().Get("from_seq"); fromStr != "" {
		if from, err := strconv.ParseInt(fromStr, 10, 64); err == nil {
			for _, env := range h.Missed(from, seq) {
				select {
				case client.send <- env:
				default:
				}
			}
		}
	}

	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
}

// StartStatusBroadcast sends the engine status to all clients on a fixed
// interval, alongside the market session state. Blocks until ctx is done.
func (h *Hub) StartStatusBroadcast(ctx context.Context, interval time.Duration, status func() any) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			payload, err := json.Marshal(map[string]interface{}{
				"engine":       status(),
				"marketOpen":   markethours.IsMarketOpen(now),
				"marketStatus": markethours.StatusString(now),
			})
			if err != nil {
				log.Printf("[statusfeed] status marshal: %v", err)
				continue
			}
			h.BroadcastStatus(payload)
		}
	}
}
