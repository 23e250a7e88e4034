package smartconnect

import (
	"encoding/binary"
	"testing"
	"time"
)

func ltpFrame(token string, exchangeType byte, ltpPaise int64, ts time.Time) []byte {
	b := make([]byte, 51)
	b[0] = modeLTP
	b[1] = exchangeType
	copy(b[2:27], token)
	binary.LittleEndian.PutUint64(b[27:35], 42) // sequence
	binary.LittleEndian.PutUint64(b[35:43], uint64(ts.UnixMilli()))
	binary.LittleEndian.PutUint64(b[43:51], uint64(ltpPaise))
	return b
}

func TestParseLTPFrame(t *testing.T) {
	ts := time.Date(2025, 6, 2, 10, 15, 0, 0, time.UTC)
	tick, err := parseLTPFrame(ltpFrame("11536", ExchangeNSECM, 250075, ts))
	if err != nil {
		t.Fatal(err)
	}
	if tick.Token != "11536" {
		t.Errorf("token: got %q", tick.Token)
	}
	if tick.ExchangeType != ExchangeNSECM {
		t.Errorf("exchange type: got %d", tick.ExchangeType)
	}
	if tick.LTP != 250075 {
		t.Errorf("ltp: got %d, want 250075", tick.LTP)
	}
	if !tick.ExchangeTS.Equal(ts) {
		t.Errorf("timestamp: got %s, want %s", tick.ExchangeTS, ts)
	}
}

func TestParseLTPFrame_Rejects(t *testing.T) {
	if _, err := parseLTPFrame(make([]byte, 50)); err == nil {
		t.Error("short frame accepted")
	}
	bad := ltpFrame("11536", ExchangeNSECM, 100, time.Now())
	bad[0] = 3 // snap-quote mode, not subscribed
	if _, err := parseLTPFrame(bad); err == nil {
		t.Error("wrong-mode frame accepted")
	}
}
