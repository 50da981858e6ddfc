package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"CCLSentinel/internal/model"
)

// MemoryDSN keeps the cache inside the process; it disappears on exit.
const MemoryDSN = ":memory:"

// SQLiteStore caches bars in a SQLite database, in memory unless a path is given.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	now    func() time.Time
	logger zerolog.Logger
}

// NewSQLiteStore opens (or creates) the cache database and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every pooled connection to :memory: would otherwise see its own empty database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: log.With().Str("component", "bar_cache").Logger(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.logger.Info().Str("dsn", dsn).Msg("sqlite bar cache opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
			cache_key  TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cached_bars (
			cache_key TEXT NOT NULL,
			day       INTEGER NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    REAL,
			PRIMARY KEY (cache_key, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_expiry ON cache_entries(expires_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Get returns the cached bars for key if present and not expired.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]model.PriceBar, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM cache_entries WHERE cache_key = ?`, key).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup entry: %w", err)
	}
	if s.now().UnixMilli() >= expiresAt {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT day, open, high, low, close, volume FROM cached_bars WHERE cache_key = ? ORDER BY day`, key)
	if err != nil {
		return nil, false, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.PriceBar
	for rows.Next() {
		var day int64
		var b model.PriceBar
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = time.Unix(day, 0).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate bars: %w", err)
	}
	return bars, true, nil
}

// Put replaces the entry for key and purges anything already expired.
func (s *SQLiteStore) Put(ctx context.Context, key string, bars []model.PriceBar, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cached_bars WHERE cache_key = ? OR cache_key IN (SELECT cache_key FROM cache_entries WHERE expires_at <= ?)`,
		key, now); err != nil {
		return fmt.Errorf("purge bars: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE cache_key = ? OR expires_at <= ?`, key, now); err != nil {
		return fmt.Errorf("purge entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cache_entries (cache_key, fetched_at, expires_at) VALUES (?,?,?)`,
		key, now, expiresAt.UnixMilli()); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	for _, b := range bars {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO cached_bars (cache_key, day, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?)`,
			key, b.Date.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("insert bar: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.logger.Info().Msg("closing sqlite bar cache")
	return s.db.Close()
}
