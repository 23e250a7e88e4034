package marketdata

import (
	"context"
	"fmt"

	"swing-traderv1/internal/model"
	sqlitestore "swing-traderv1/internal/store/sqlite"
)

// StoreSource serves candle history from the local SQLite store. Used by
// the analyze and backtest CLIs and by paper setups, which all run
// without a broker session. It implements model.HistoricalSource and
// model.LiveQuoter (quoting the last stored close).
type StoreSource struct {
	reader *sqlitestore.Reader
}

// NewStoreSource wraps a candle store reader.
func NewStoreSource(reader *sqlitestore.Reader) *StoreSource {
	return &StoreSource{reader: reader}
}

// GetSeries returns the trailing lookback daily bars for an instrument.
func (s *StoreSource) GetSeries(_ context.Context, inst model.Instrument, lookback int) (model.Series, error) {
	series, err := s.reader.ReadSeries(inst.Exchange, inst.Token, lookback)
	if err != nil {
		return nil, fmt.Errorf("marketdata: store read %s: %w", inst.Symbol, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("marketdata: no stored candles for %s (%s:%s)",
			inst.Symbol, inst.Exchange, inst.Token)
	}
	return series, nil
}

// GetLTP returns the most recent stored close in paise. Paper setups use
// this between ticks; live setups quote the broker instead.
func (s *StoreSource) GetLTP(ctx context.Context, inst model.Instrument) (int64, error) {
	series, err := s.GetSeries(ctx, inst, 1)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1].Close, nil
}
