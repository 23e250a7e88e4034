package marketdata

import (
	"context"
	"log"
	"time"

	"swing-traderv1/internal/model"
	"swing-traderv1/pkg/smartconnect"
)

// exchangeTypeName maps wire exchange type codes to exchange names.
var exchangeTypeName = map[int]string{
	smartconnect.ExchangeNSECM: "NSE",
	smartconnect.ExchangeBSECM: "BSE",
}

func exchangeType(name string) int {
	if name == "BSE" {
		return smartconnect.ExchangeBSECM
	}
	return smartconnect.ExchangeNSECM
}

// StreamSource adapts the broker's LTP WebSocket feed into model.Tick
// values. It implements model.TickSource.
type StreamSource struct {
	stream  *smartconnect.Stream
	symbols map[string]string // "exchange:token" -> symbol
}

// NewStreamSource subscribes to LTP updates for the watchlist.
func NewStreamSource(sc *smartconnect.SmartConnect, watchlist []model.Instrument) (*StreamSource, error) {
	byExchange := make(map[int][]string)
	symbols := make(map[string]string, len(watchlist))
	for _, inst := range watchlist {
		et := exchangeType(inst.Exchange)
		byExchange[et] = append(byExchange[et], inst.Token)
		symbols[inst.Key()] = inst.Symbol
	}

	subs := make([]smartconnect.StreamSubscription, 0, len(byExchange))
	for et, tokens := range byExchange {
		subs = append(subs, smartconnect.StreamSubscription{ExchangeType: et, Tokens: tokens})
	}

	stream, err := smartconnect.NewStream(sc, subs)
	if err != nil {
		return nil, err
	}
	return &StreamSource{stream: stream, symbols: symbols}, nil
}

// Run pumps feed updates into out until ctx is cancelled. Updates for
// tokens outside the watchlist are dropped.
func (s *StreamSource) Run(ctx context.Context, out chan<- model.Tick) error {
	raw := make(chan smartconnect.LTPTick, 256)
	errCh := make(chan error, 1)
	go func() { errCh <- s.stream.Run(ctx, raw) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case lt := <-raw:
			exchange := exchangeTypeName[lt.ExchangeType]
			if exchange == "" {
				continue
			}
			symbol, ok := s.symbols[exchange+":"+lt.Token]
			if !ok {
				continue
			}
			tick := model.Tick{
				Symbol:   symbol,
				Token:    lt.Token,
				Exchange: exchange,
				LTP:      lt.LTP,
				TS:       lt.ExchangeTS,
			}
			select {
			case out <- tick:
			default:
				log.Println("[marketdata] tick channel full, dropping tick")
			}
		}
	}
}

// PollSource synthesizes ticks by polling the quoter. A fallback for
// setups where the WebSocket feed is unavailable; it rides the same
// rate-limited queue as every other broker call.
type PollSource struct {
	quoter   model.LiveQuoter
	interval time.Duration
	watch    []model.Instrument
}

// NewPollSource polls each watchlist instrument once per interval.
func NewPollSource(quoter model.LiveQuoter, watch []model.Instrument, interval time.Duration) *PollSource {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &PollSource{quoter: quoter, interval: interval, watch: watch}
}

// Run implements model.TickSource.
func (p *PollSource) Run(ctx context.Context, out chan<- model.Tick) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, inst := range p.watch {
				ltp, err := p.quoter.GetLTP(ctx, inst)
				if err != nil {
					log.Printf("[marketdata] poll %s: %v", inst.Symbol, err)
					continue
				}
				tick := model.Tick{
					Symbol:   inst.Symbol,
					Token:    inst.Token,
					Exchange: inst.Exchange,
					LTP:      ltp,
					TS:       time.Now(),
				}
				select {
				case out <- tick:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
