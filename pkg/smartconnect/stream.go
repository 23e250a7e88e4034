package smartconnect

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Market data WebSocket endpoint and protocol constants.
const (
	streamURI         = "wss://smartapisocket.angelone.in/smart-stream"
	heartBeatInterval = 10 * time.Second

	subscribeAction = 1
	modeLTP         = 1
)

// Exchange type codes on the wire.
const (
	ExchangeNSECM = 1
	ExchangeBSECM = 3
)

// LTPTick is one last-traded-price update from the feed. Price is in
// paise, as the broker transmits it.
type LTPTick struct {
	Token        string
	ExchangeType int
	LTP          int64
	ExchangeTS   time.Time
}

// StreamSubscription lists tokens to subscribe per exchange type.
type StreamSubscription struct {
	ExchangeType int      `json:"exchangeType"`
	Tokens       []string `json:"tokens"`
}

// Stream consumes the LTP feed and emits ticks on a channel. It owns its
// connection: Run dials, subscribes, heartbeats, and reconnects with
// backoff until the context is cancelled.
type Stream struct {
	authToken  string
	apiKey     string
	clientCode string
	feedToken  string

	subs []StreamSubscription

	reconnectDelay time.Duration
	maxReconnects  int
}

// NewStream builds a tick stream for the given subscriptions. Tokens come
// from an authenticated SmartConnect session.
func NewStream(sc *SmartConnect, subs []StreamSubscription) (*Stream, error) {
	if sc.accessToken == "" || sc.feedToken == "" {
		return nil, errors.New("smartconnect: stream requires an authenticated session")
	}
	if len(subs) == 0 {
		return nil, errors.New("smartconnect: stream requires at least one subscription")
	}
	return &Stream{
		authToken:      "Bearer " + sc.accessToken,
		apiKey:         sc.cfg.APIKey,
		clientCode:     sc.cfg.ClientCode,
		feedToken:      sc.feedToken,
		subs:           subs,
		reconnectDelay: 5 * time.Second,
		maxReconnects:  10,
	}, nil
}

// Run connects and pumps ticks into out until ctx is cancelled or the
// reconnect budget is exhausted. The channel is not closed; the caller
// owns it.
func (s *Stream) Run(ctx context.Context, out chan<- LTPTick) error {
	attempts := 0
	for {
		err := s.pump(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempts++
		if attempts > s.maxReconnects {
			return fmt.Errorf("smartconnect: stream gave up after %d reconnects: %w", s.maxReconnects, err)
		}
		log.Printf("[stream] connection lost (%v), reconnecting in %s (attempt %d/%d)",
			err, s.reconnectDelay, attempts, s.maxReconnects)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) pump(ctx context.Context, out chan<- LTPTick) error {
	header := http.Header{}
	header.Set("Authorization", s.authToken)
	header.Set("x-api-key", s.apiKey)
	header.Set("x-client-code", s.clientCode)
	header.Set("x-feed-token", s.feedToken)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURI, header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	log.Printf("[stream] connected, subscribing %d token groups", len(s.subs))

	if err := conn.WriteJSON(map[string]any{
		"correlationID": "swing-trader",
		"action":        subscribeAction,
		"params": map[string]any{
			"mode":      modeLTP,
			"tokenList": s.subs,
		},
	}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	// Heartbeat keeps the feed alive; the broker drops silent clients.
	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go func() {
		ticker := time.NewTicker(heartBeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
					return
				}
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if mt != websocket.BinaryMessage {
			continue // text frames are pongs and ack chatter
		}
		tick, err := parseLTPFrame(msg)
		if err != nil {
			log.Printf("[stream] bad frame: %v", err)
			continue
		}
		select {
		case out <- tick:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseLTPFrame decodes the 51-byte little-endian LTP packet: mode,
// exchange type, a NUL-padded 25-byte token, sequence, exchange
// timestamp (ms), and last traded price in paise.
func parseLTPFrame(b []byte) (LTPTick, error) {
	if len(b) < 51 {
		return LTPTick{}, fmt.Errorf("frame too short: %d bytes", len(b))
	}
	if b[0] != modeLTP {
		return LTPTick{}, fmt.Errorf("unexpected mode %d", b[0])
	}
	exTS := int64(binary.LittleEndian.Uint64(b[35:43]))
	return LTPTick{
		Token:        tokenString(b[2:27]),
		ExchangeType: int(b[1]),
		LTP:          int64(binary.LittleEndian.Uint64(b[43:51])),
		ExchangeTS:   time.UnixMilli(exTS),
	}, nil
}

func tokenString(b []byte) string {
	for i := range b {
		if b[i] == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
