package statusfeed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	eventChannel  = "pub:trader:events"
	statusChannel = "pub:trader:status"
	eventStream   = "trader:events"
	statusKey     = "trader:status:latest"

	eventStreamMaxLen = 10000
	statusTTL         = 30 * time.Minute
	maxPendingEvents  = 1000
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher mirrors the feed into Redis so out-of-process consumers
// (dashboards, bots) can subscribe without touching the engine. All
// writes go through a circuit breaker; while the breaker is open,
// events are buffered locally and flushed when Redis recovers. Status
// snapshots are never buffered, a stale snapshot has no value.
type Publisher struct {
	client *goredis.Client
	cb     *CircuitBreaker

	mu      sync.Mutex
	pending [][]byte
}

// NewPublisher connects to Redis and pings the server.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Printf("[statusfeed] redis connected to %s", cfg.Addr)

	p := &Publisher{
		client: client,
		cb:     NewCircuitBreaker(5, 10*time.Second),
	}
	p.cb.OnStateChange = func(from, to State) {
		log.Printf("[statusfeed] redis circuit %s -> %s", from, to)
		if to == StateClosed {
			go p.flush(context.Background())
		}
	}
	return p, nil
}

// PublishEvent writes an event payload to the event channel and stream.
// If the circuit is open the event is buffered, not lost.
func (p *Publisher) PublishEvent(ctx context.Context, data []byte) {
	err := p.cb.Execute(func() error {
		return p.writeEvent(ctx, data)
	})
	if err == ErrCircuitOpen {
		p.buffer(data)
		return
	}
	if err != nil {
		log.Printf("[statusfeed] redis event publish: %v", err)
	}
}

// PublishStatus writes a status payload. Failures are logged and dropped.
func (p *Publisher) PublishStatus(ctx context.Context, data []byte) {
	err := p.cb.Execute(func() error {
		pipe := p.client.Pipeline()
		pipe.Set(ctx, statusKey, data, statusTTL)
		pipe.Publish(ctx, statusChannel, data)
		_, perr := pipe.Exec(ctx)
		return perr
	})
	if err != nil && err != ErrCircuitOpen {
		log.Printf("[statusfeed] redis status publish: %v", err)
	}
}

func (p *Publisher) writeEvent(ctx context.Context, data []byte) error {
	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: eventStream,
		MaxLen: eventStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": string(data)},
	})
	pipe.Publish(ctx, eventChannel, string(data))
	_, err := pipe.Exec(ctx)
	return err
}

func (p *Publisher) buffer(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) >= maxPendingEvents {
		// Buffer full, drop oldest
		p.pending = p.pending[1:]
	}
	p.pending = append(p.pending, cp)
}

// flush replays buffered events after the circuit closes.
func (p *Publisher) flush(ctx context.Context) {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	toFlush := p.pending
	p.pending = nil
	p.mu.Unlock()

	for _, data := range toFlush {
		if err := p.writeEvent(ctx, data); err != nil {
			log.Printf("[statusfeed] redis flush: %v", err)
		}
	}
	log.Printf("[statusfeed] flushed %d buffered events", len(toFlush))
}

// PendingCount returns the number of events waiting for Redis to recover.
func (p *Publisher) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Close closes the Redis client.
func (p *Publisher) Close() error { return p.client.Close() }
