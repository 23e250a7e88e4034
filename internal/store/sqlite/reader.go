package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"swing-traderv1/internal/model"
)

// Reader provides read-only access to the candle store.
type Reader struct {
	db *sql.DB
}

// NewReader opens a read connection to the candle store.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadSeries returns the most recent lookback daily bars for an
// instrument, oldest first. lookback <= 0 reads everything.
func (r *Reader) ReadSeries(exchange, token string, lookback int) (model.Series, error) {
	query := `
		SELECT token, exchange, ts, open, high, low, close, volume
		FROM candles_daily
		WHERE exchange = ? AND token = ?
		ORDER BY ts DESC
	`
	args := []any{exchange, token}
	if lookback > 0 {
		query += " LIMIT ?"
		args = append(args, lookback)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles_daily: %w", err)
	}
	defer rows.Close()

	var s model.Series
	for rows.Next() {
		var c model.Candle
		var tsUnix int64
		var vol sql.NullInt64
		if err := rows.Scan(&c.Token, &c.Exchange, &tsUnix, &c.Open, &c.High, &c.Low, &c.Close, &vol); err != nil {
			return nil, fmt.Errorf("sqlite scan candles_daily: %w", err)
		}
		c.Date = time.Unix(tsUnix, 0).UTC()
		c.Volume = vol.Int64
		s = append(s, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; series order is oldest-first.
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s, nil
}

// Tokens lists the instruments present in the store.
func (r *Reader) Tokens() ([]model.Instrument, error) {
	rows, err := r.db.Query(`SELECT DISTINCT exchange, token FROM candles_daily ORDER BY exchange, token`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Instrument
	for rows.Next() {
		var inst model.Instrument
		if err := rows.Scan(&inst.Exchange, &inst.Token); err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
