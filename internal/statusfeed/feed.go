package statusfeed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"swing-traderv1/internal/notification"
	"swing-traderv1/internal/ringbuf"
)

// Feed is the bridge between the trading loop and its observers. Publish
// pushes onto a lock-free SPSC ring and returns immediately; the Run
// goroutine drains the ring into the WebSocket hub and Redis. The trading
// loop is the sole producer.
type Feed struct {
	hub  *Hub
	pub  *Publisher // nil when Redis is not configured
	ring *ringbuf.Ring[Event]
	wake chan struct{}
	now  func() time.Time
}

// New creates a feed. pub may be nil.
func New(hub *Hub, pub *Publisher) *Feed {
	return &Feed{
		hub:  hub,
		pub:  pub,
		ring: ringbuf.New[Event](1024),
		wake: make(chan struct{}, 1),
		now:  time.Now,
	}
}

// Hub returns the WebSocket hub for HTTP wiring.
func (f *Feed) Hub() *Hub { return f.hub }

// Publish queues an event for broadcast. Never blocks; if the ring is
// full the event is dropped and counted.
func (f *Feed) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = f.now()
	}
	if !f.ring.Push(ev) {
		log.Printf("[statusfeed] ring full, dropped %s event (total dropped: %d)",
			ev.Type, f.ring.Overflow())
		return
	}
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Send implements notification.Notifier, so the feed can sit in the
// engine's alert fan-out alongside Telegram and webhooks.
func (f *Feed) Send(_ context.Context, alert notification.Alert) error {
	f.Publish(Event{
		Type:    EventAlert,
		Level:   string(alert.Level),
		Message: alert.Title + ": " + alert.Message,
	})
	return nil
}

// Run drains the ring until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	// The ticker is a safety net for wake signals lost to a full channel.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		f.drain(ctx)
		select {
		case <-ctx.Done():
			f.drain(context.Background())
			return ctx.Err()
		case <-f.wake:
		case <-ticker.C:
		}
	}
}

func (f *Feed) drain(ctx context.Context) {
	for {
		ev, ok := f.ring.Pop()
		if !ok {
			return
		}
		data, err := json.Marshal(ev)
		if err != nil {
			log.Printf("[statusfeed] event marshal: %v", err)
			continue
		}
		f.hub.BroadcastEvent(data)
		if f.pub != nil {
			f.pub.PublishEvent(ctx, data)
		}
	}
}

// RunStatus broadcasts engine status snapshots on a fixed interval and
// mirrors them to Redis. Blocks until ctx is done.
func (f *Feed) RunStatus(ctx context.Context, interval time.Duration, status func() any) {
	if f.pub == nil {
		f.hub.StartStatusBroadcast(ctx, interval, status)
		return
	}
	f.hub.StartStatusBroadcast(ctx, interval, func() any {
		s := status()
		if data, err := json.Marshal(s); err == nil {
			f.pub.PublishStatus(ctx, data)
		}
		return s
	})
}
