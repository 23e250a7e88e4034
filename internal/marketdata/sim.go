package marketdata

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"swing-traderv1/internal/model"
)

// SimConfig configures the simulated WebSocket tick source.
type SimConfig struct {
	// URL of a plain-JSON tick server, e.g. "ws://localhost:9001/ws".
	// Each message is a model.Tick JSON object.
	URL string

	// ReconnectDelay is the initial delay before reconnection attempts.
	// Defaults to 2 seconds.
	ReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. Defaults to 30s.
	MaxReconnectDelay time.Duration
}

func (c *SimConfig) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// SimSource consumes ticks from a plain WebSocket server with no broker
// session. A drop-in model.TickSource for paper setups and local feeds.
type SimSource struct {
	cfg SimConfig

	// Optional hook, called on each reconnection.
	OnReconnect func()
}

// NewSimSource validates the URL and returns a simulated source.
func NewSimSource(cfg SimConfig) (*SimSource, error) {
	cfg.defaults()
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, err
	}
	return &SimSource{cfg: cfg}, nil
}

// Run connects and streams ticks into out until ctx is cancelled.
// Reconnects automatically with exponential backoff.
func (s *SimSource) Run(ctx context.Context, out chan<- model.Tick) error {
	delay := s.cfg.ReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := s.runOnce(ctx, out)
		if err == nil {
			return nil // clean shutdown
		}

		log.Printf("[sim] disconnected (%v), reconnecting in %s", err, delay)
		if s.OnReconnect != nil {
			s.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > s.cfg.MaxReconnectDelay {
			delay = s.cfg.MaxReconnectDelay
		}
	}
}

func (s *SimSource) runOnce(ctx context.Context, out chan<- model.Tick) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[sim] connected to %s", s.cfg.URL)

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		var tick model.Tick
		if err := json.Unmarshal(raw, &tick); err != nil {
			log.Printf("[sim] parse error: %v (raw: %s)", err, raw)
			continue
		}
		if tick.Symbol == "" {
			continue
		}

		select {
		case out <- tick:
		default:
			log.Println("[sim] tick channel full, dropping tick")
		}
	}
}
