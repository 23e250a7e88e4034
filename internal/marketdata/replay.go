package marketdata

import (
	"context"
	"log"
	"time"

	"swing-traderv1/internal/model"
	sqlitestore "swing-traderv1/internal/store/sqlite"
)

// Replayer emits stored daily candles as ticks at a configurable speed,
// so the live manager can be exercised against history without a feed.
// Each bar becomes one tick at its close price.
type Replayer struct {
	reader *sqlitestore.Reader
	watch  []model.Instrument
}

// NewReplayer replays the given instruments from the candle store.
func NewReplayer(reader *sqlitestore.Reader, watch []model.Instrument) *Replayer {
	return &Replayer{reader: reader, watch: watch}
}

// Run implements model.TickSource. delay is the pause between emitted
// ticks; zero replays as fast as possible.
func (r *Replayer) Run(ctx context.Context, out chan<- model.Tick) error {
	return r.RunAt(ctx, out, 0)
}

// RunAt replays with an explicit inter-tick delay.
func (r *Replayer) RunAt(ctx context.Context, out chan<- model.Tick, delay time.Duration) error {
	type pending struct {
		inst   model.Instrument
		series model.Series
	}

	var all []pending
	total := 0
	for _, inst := range r.watch {
		series, err := r.reader.ReadSeries(inst.Exchange, inst.Token, 0)
		if err != nil {
			return err
		}
		if len(series) == 0 {
			log.Printf("[replay] no stored candles for %s, skipping", inst.Symbol)
			continue
		}
		all = append(all, pending{inst: inst, series: series})
		total += len(series)
	}
	if total == 0 {
		log.Println("[replay] nothing to replay")
		return nil
	}
	log.Printf("[replay] replaying %d bars across %d instruments", total, len(all))

	emitted := 0
	for _, p := range all {
		for _, c := range p.series {
			if delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
			tick := model.Tick{
				Symbol:   p.inst.Symbol,
				Token:    p.inst.Token,
				Exchange: p.inst.Exchange,
				LTP:      c.Close,
				TS:       c.Date,
			}
			select {
			case out <- tick:
				emitted++
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	log.Printf("[replay] completed: %d ticks emitted", emitted)
	return nil
}
