package execution

import (
	"database/sql"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"swing-traderv1/internal/model"
)

// Journal persists trade open/close events to SQLite. It implements
// model.TradeJournal; callers treat failures as log-and-continue, so the
// trading state machine never depends on this succeeding.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// NewJournal opens (or creates) a SQLite journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol      TEXT NOT NULL,
		exchange    TEXT NOT NULL,
		strategy    TEXT NOT NULL,
		qty         INTEGER NOT NULL,
		entry_price INTEGER NOT NULL,
		stop_loss   INTEGER NOT NULL,
		target      INTEGER NOT NULL,
		entry_time  DATETIME NOT NULL,
		exit_price  INTEGER DEFAULT 0,
		exit_time   DATETIME,
		pnl         INTEGER DEFAULT 0,
		status      TEXT NOT NULL DEFAULT 'OPEN',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, exchange);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
	CREATE INDEX IF NOT EXISTS idx_trades_entry_time ON trades(entry_time);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[journal] opened trade journal at %s", dbPath)
	return &Journal{db: db}, nil
}

// DB exposes the handle for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// SaveTrade inserts an opened trade and returns its journal id.
func (j *Journal) SaveTrade(rec model.TradeRecord) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	res, err := j.db.Exec(
		`INSERT INTO trades (symbol, exchange, strategy, qty, entry_price, stop_loss, target, entry_time, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.Exchange, rec.Strategy, rec.Qty,
		rec.EntryPrice, rec.StopLoss, rec.Target,
		rec.EntryTime.Format(time.RFC3339), "OPEN",
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateTrade patches exit fields on a previously saved trade.
func (j *Journal) UpdateTrade(id int64, exitPrice int64, exitTime time.Time, pnl int64, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`UPDATE trades SET exit_price = ?, exit_time = ?, pnl = ?, status = ? WHERE id = ?`,
		exitPrice, exitTime.Format(time.RFC3339), pnl, status, id,
	)
	return err
}

// OpenTrades returns trades still marked open, oldest first. Used to
// restore live positions after a restart.
func (j *Journal) OpenTrades() ([]model.TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, symbol, exchange, strategy, qty, entry_price, stop_loss, target, entry_time
		 FROM trades WHERE status = 'OPEN' ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var rec model.TradeRecord
		var entry string
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Exchange, &rec.Strategy,
			&rec.Qty, &rec.EntryPrice, &rec.StopLoss, &rec.Target, &entry); err != nil {
			return nil, err
		}
		rec.Status = "OPEN"
		if ts, perr := time.Parse(time.RFC3339, entry); perr == nil {
			rec.EntryTime = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentTrades returns the last limit trades, newest first.
func (j *Journal) RecentTrades(limit int) ([]model.TradeRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT id, symbol, exchange, strategy, qty, entry_price, stop_loss, target, entry_time,
		        exit_price, COALESCE(exit_time, ''), pnl, status
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var rec model.TradeRecord
		var entry, exit string
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.Exchange, &rec.Strategy,
			&rec.Qty, &rec.EntryPrice, &rec.StopLoss, &rec.Target, &entry,
			&rec.ExitPrice, &exit, &rec.PnL, &rec.Status); err != nil {
			return nil, err
		}
		if ts, perr := time.Parse(time.RFC3339, entry); perr == nil {
			rec.EntryTime = ts
		}
		if ts, perr := time.Parse(time.RFC3339, exit); perr == nil {
			rec.ExitTime = ts
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
