// Package marketdata supplies candle history and live prices to the
// evaluator and the position manager. The broker-backed source goes
// through the rate-limited command queue; the sim and replay sources run
// without any session for offline use.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"swing-traderv1/internal/model"
	"swing-traderv1/pkg/smartconnect"
)

// BrokerSource fetches daily candles and live quotes from SmartConnect.
// It implements model.HistoricalSource and model.LiveQuoter.
type BrokerSource struct {
	client *smartconnect.SmartConnect
	queue  *smartconnect.Queue
	now    func() time.Time
}

// NewBrokerSource wires the client behind its command queue.
func NewBrokerSource(client *smartconnect.SmartConnect, queue *smartconnect.Queue) *BrokerSource {
	return &BrokerSource{client: client, queue: queue, now: time.Now}
}

// GetSeries fetches the trailing lookback trading days of daily bars.
// The calendar window is padded for weekends and holidays, then trimmed.
func (b *BrokerSource) GetSeries(ctx context.Context, inst model.Instrument, lookback int) (model.Series, error) {
	to := b.now()
	from := to.AddDate(0, 0, -(lookback*3/2 + 10))

	var bars []smartconnect.CandleBar
	err := b.queue.Do(ctx, func() error {
		var qerr error
		bars, qerr = b.client.GetCandles(inst.Exchange, inst.Token, "ONE_DAY", from, to)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("marketdata: candles %s: %w", inst.Symbol, err)
	}

	s := make(model.Series, 0, len(bars))
	for _, bar := range bars {
		s = append(s, model.Candle{
			Token:    inst.Token,
			Exchange: inst.Exchange,
			Date:     bar.Timestamp,
			Open:     model.ToPaise(bar.Open),
			High:     model.ToPaise(bar.High),
			Low:      model.ToPaise(bar.Low),
			Close:    model.ToPaise(bar.Close),
			Volume:   bar.Volume,
		})
	}
	if len(s) > lookback {
		s = s[len(s)-lookback:]
	}
	return s, nil
}

// GetLTP returns the last traded price in paise.
func (b *BrokerSource) GetLTP(ctx context.Context, inst model.Instrument) (int64, error) {
	var ltp float64
	err := b.queue.Do(ctx, func() error {
		var qerr error
		ltp, qerr = b.client.LTP(inst.Exchange, inst.Symbol, inst.Token)
		return qerr
	})
	if err != nil {
		return 0, fmt.Errorf("marketdata: ltp %s: %w", inst.Symbol, err)
	}
	return model.ToPaise(ltp), nil
}
