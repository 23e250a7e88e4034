package statusfeed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"swing-traderv1/internal/notification"
)

// envelope is the parsed WS message structure.
type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
	TS   string          `json:"ts"`
	Seq  int64           `json:"seq"`
}

func TestHub_EventEnvelopeFormat(t *testing.T) {
	h := NewHub()

	h.BroadcastEvent([]byte(`{"type":"ENTRY","symbol":"RELIANCE","message":"bought 10"}`))

	if h.Seq() != 1 {
		t.Fatalf("seq = %d, want 1", h.Seq())
	}

	envs := h.Missed(1, 1)
	if len(envs) != 1 {
		t.Fatalf("Missed(1,1): expected 1 envelope, got %d", len(envs))
	}

	var env envelope
	if err := json.Unmarshal(envs[0], &env); err != nil {
		t.Fatalf("envelope is not valid JSON: %v\nraw: %s", err, envs[0])
	}
	if env.Kind != "event" {
		t.Errorf("kind: got %q, want %q", env.Kind, "event")
	}
	if env.Seq != 1 {
		t.Errorf("seq: got %d, want 1", env.Seq)
	}
	if _, err := time.Parse(time.RFC3339Nano, env.TS); err != nil {
		t.Errorf("ts is not valid RFC3339Nano: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		t.Fatalf("data is not valid JSON: %v", err)
	}
	if ev.Type != EventEntry || ev.Symbol != "RELIANCE" {
		t.Errorf("unexpected event payload: %+v", ev)
	}
}

func TestHub_SeqMonotonicAndReplayRange(t *testing.T) {
	h := NewHub()

	for i := 0; i < 10; i++ {
		h.BroadcastEvent([]byte(`{}`))
	}

	if h.Seq() != 10 {
		t.Fatalf("seq = %d, want 10", h.Seq())
	}

	envs := h.Missed(4, 7)
	if len(envs) != 4 {
		t.Fatalf("Missed(4,7): expected 4 envelopes, got %d", len(envs))
	}
	for i, raw := range envs {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("envelope %d: invalid JSON: %v", i, err)
		}
		if env.Seq != int64(i)+4 {
			t.Errorf("envelope %d: seq = %d, want %d", i, env.Seq, i+4)
		}
	}
}

func TestHub_StatusNotReplayed(t *testing.T) {
	h := NewHub()

	h.BroadcastStatus([]byte(`{"isRunning":true}`))
	h.BroadcastEvent([]byte(`{}`))

	// Only the event should be in the replay buffer
	envs := h.Missed(1, 10)
	if len(envs) != 1 {
		t.Fatalf("expected 1 replayable envelope, got %d", len(envs))
	}
	var env envelope
	if err := json.Unmarshal(envs[0], &env); err != nil {
		t.Fatal(err)
	}
	if env.Kind != "event" {
		t.Errorf("kind: got %q, want event", env.Kind)
	}
}

func TestFeed_PublishDrainsToHub(t *testing.T) {
	h := NewHub()
	f := New(h, nil)

	f.Publish(Event{Type: EventExit, Symbol: "TCS", Message: "sold 5", PnL: 1250.50})
	f.Publish(Event{Type: EventTrail, Symbol: "TCS", Message: "stop raised"})

	f.drain(context.Background())

	envs := h.Missed(1, 2)
	if len(envs) != 2 {
		t.Fatalf("expected 2 envelopes after drain, got %d", len(envs))
	}

	var env envelope
	if err := json.Unmarshal(envs[0], &env); err != nil {
		t.Fatal(err)
	}
	var ev Event
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventExit || ev.PnL != 1250.50 {
		t.Errorf("unexpected first event: %+v", ev)
	}
	if ev.TS.IsZero() {
		t.Error("Publish should stamp events that carry no TS")
	}
}

func TestFeed_SendMapsAlertsToEvents(t *testing.T) {
	h := NewHub()
	f := New(h, nil)

	err := f.Send(context.Background(), notification.Alert{
		Level:   notification.AlertCritical,
		Title:   "Daily Loss Limit Hit",
		Message: "trading halted",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	f.drain(context.Background())

	envs := h.Missed(1, 1)
	if len(envs) != 1 {
		t.Fatalf("expected 1 envelope, got %d", len(envs))
	}
	var env envelope
	json.Unmarshal(envs[0], &env)
	var ev Event
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventAlert {
		t.Errorf("type: got %s, want ALERT", ev.Type)
	}
	if ev.Level != "CRITICAL" {
		t.Errorf("level: got %s, want CRITICAL", ev.Level)
	}
	if ev.Message != "Daily Loss Limit Hit: trading halted" {
		t.Errorf("unexpected message: %q", ev.Message)
	}
}

func TestFeed_RingOverflowDropsNotBlocks(t *testing.T) {
	h := NewHub()
	f := New(h, nil)

	// Ring capacity is 1024; push past it without draining
	for i := 0; i < 1100; i++ {
		f.Publish(Event{Type: EventTrail, Message: "x"})
	}

	if f.ring.Len() != 1024 {
		t.Fatalf("ring len = %d, want 1024", f.ring.Len())
	}
	if f.ring.Overflow() != 76 {
		t.Fatalf("overflow = %d, want 76", f.ring.Overflow())
	}
}
