// Package sqlite stores daily candle history locally so the analyze and
// backtest CLIs can run without a broker session.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"

	"swing-traderv1/internal/model"
)

// WriterConfig configures the SQLite candle writer.
type WriterConfig struct {
	DBPath string // e.g. "data/candles.db"
}

// Writer persists daily candles. Single-writer; upserts are batched in
// one transaction per call.
type Writer struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New opens the database in WAL mode and ensures the schema exists.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened candle store at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS candles_daily (
			token    TEXT    NOT NULL,
			exchange TEXT    NOT NULL,
			ts       INTEGER NOT NULL,
			open     INTEGER NOT NULL,
			high     INTEGER NOT NULL,
			low      INTEGER NOT NULL,
			close    INTEGER NOT NULL,
			volume   INTEGER,
			PRIMARY KEY (exchange, token, ts)
		);
	`)
	return err
}

// UpsertSeries writes a series for one instrument in a single transaction.
// Existing bars for the same day are replaced, so repeated backfills are safe.
func (w *Writer) UpsertSeries(s model.Series) error {
	if len(s) == 0 {
		return nil
	}
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO candles_daily (token, exchange, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, c := range s {
		if _, err := stmt.Exec(c.Token, c.Exchange, c.Date.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LastTimestamp returns the newest stored bar's Unix time for an
// instrument, or 0 when nothing is stored.
func (w *Writer) LastTimestamp(exchange, token string) (int64, error) {
	var ts sql.NullInt64
	err := w.db.QueryRow(
		`SELECT MAX(ts) FROM candles_daily WHERE exchange = ? AND token = ?`,
		exchange, token,
	).Scan(&ts)
	if err != nil {
		return 0, err
	}
	if !ts.Valid {
		return 0, nil
	}
	return ts.Int64, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
