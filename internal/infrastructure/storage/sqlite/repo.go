package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hmzsumon/cp-client-sub000/internal/application/port"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quotes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  symbol TEXT NOT NULL,
  bid REAL NOT NULL,
  ask REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(symbol)
);
CREATE INDEX IF NOT EXISTS idx_quotes_ts ON quotes(ts_ms);

CREATE TABLE IF NOT EXISTS pnl_samples (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  scope TEXT NOT NULL,
  value REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(scope)
);
CREATE INDEX IF NOT EXISTS idx_pnl_ts ON pnl_samples(ts_ms);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  payload TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(ts_ms);
`)
	return err
}

func (r *Repo) UpsertLatestQuote(ctx context.Context, symbol string, bid, ask float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes(symbol, bid, ask, ts_ms, created_at)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
		bid=excluded.bid, ask=excluded.ask, ts_ms=excluded.ts_ms
	`, symbol, bid, ask, ts, ts)
	return err
}

func (r *Repo) UpsertPnlSample(ctx context.Context, scope string, value float64, ts int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pnl_samples(scope, value, ts_ms, created_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
		value=excluded.value, ts_ms=excluded.ts_ms
	`, scope, value, ts, ts)
	return err
}

func (r *Repo) InsertSnapshot(ctx context.Context, ts int64, payload string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO snapshots(ts_ms, payload, created_at) VALUES(?, ?, ?)`, ts, payload, ts)
	return err
}

// GetLatestQuote reads back the persisted quote for a symbol.
func (r *Repo) GetLatestQuote(ctx context.Context, symbol string) (bid, ask float64, ts int64, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT bid, ask, ts_ms FROM quotes WHERE symbol=?`, symbol).
		Scan(&bid, &ask, &ts)
	return
}

var _ port.Repository = (*Repo)(nil)
