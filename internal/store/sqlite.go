package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// SQLiteStore persists acquisition snapshots to a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
	mu sync.Mutex

	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the admin server can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite snapshot store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_closes (
			ticker     TEXT NOT NULL,
			date       TEXT NOT NULL,
			close      REAL NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (ticker, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_closes_fetched ON daily_closes(ticker, fetched_at)`,

		`CREATE TABLE IF NOT EXISTS monthly_revenue (
			code       TEXT NOT NULL,
			month      TEXT NOT NULL,
			yoy_pct    REAL NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (code, month)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

type dailyCloseRow struct {
	Date  string  `db:"date"`
	Close float64 `db:"close"`
}

func (s *SQLiteStore) PutDailyCloses(ticker string, candles []model.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	now := s.now().Unix()
	for _, c := range candles {
		_, err := tx.Exec(`INSERT INTO daily_closes (ticker, date, close, fetched_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(ticker, date) DO UPDATE SET close=excluded.close, fetched_at=excluded.fetched_at`,
			ticker, c.Date.UTC().Format("2006-01-02"), c.Close, now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert close %s: %w", ticker, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) DailyCloses(ticker string, maxStaleDays int) ([]model.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().AddDate(0, 0, -maxStaleDays).Unix()
	var rows []dailyCloseRow
	err := s.db.Select(&rows, `SELECT date, close FROM daily_closes
		WHERE ticker = ? AND fetched_at >= ? ORDER BY date`, ticker, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select closes %s: %w", ticker, err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, r := range rows {
		d, err := time.ParseInLocation("2006-01-02", r.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse cached date %q: %w", r.Date, err)
		}
		candles = append(candles, model.Candle{Date: d, Close: r.Close})
	}
	return candles, nil
}

func (s *SQLiteStore) PutRevenueYoY(code, month string, yoyPct float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO monthly_revenue (code, month, yoy_pct, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(code, month) DO UPDATE SET yoy_pct=excluded.yoy_pct, fetched_at=excluded.fetched_at`,
		code, month, yoyPct, s.now().Unix())
	if err != nil {
		return fmt.Errorf("upsert revenue %s: %w", code, err)
	}
	return nil
}

func (s *SQLiteStore) RevenueYoY(code, month string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var yoy float64
	err := s.db.Get(&yoy, `SELECT yoy_pct FROM monthly_revenue WHERE code = ? AND month = ?`, code, month)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("select revenue %s: %w", code, err)
	}
	return yoy, true, nil
}

func (s *SQLiteStore) Close() error {
	log.Info().Msg("closing sqlite snapshot store")
	return s.db.Close()
}
