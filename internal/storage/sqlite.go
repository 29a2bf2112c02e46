package storage

import (
	"database/sql"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Close() error
}

type Store struct{ db DB }

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS bars(
		symbol TEXT NOT NULL,
		ts INTEGER NOT NULL,
		close REAL NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY(symbol, ts)
	)`); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS usage_log(
		command TEXT NOT NULL,
		chat_id INTEGER,
		ts INTEGER NOT NULL
	)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

// SaveBars replaces the cached daily bars for a symbol.
func (s *Store) SaveBars(symbol string, ts []int64, closes []float64) error {
	if len(ts) != len(closes) {
		return fmt.Errorf("bars length mismatch: %d timestamps, %d closes", len(ts), len(closes))
	}
	if _, err := s.db.Exec(`DELETE FROM bars WHERE symbol=?`, symbol); err != nil {
		return err
	}
	now := time.Now().Unix()
	for i := range ts {
		if _, err := s.db.Exec(`INSERT OR REPLACE INTO bars(symbol,ts,close,fetched_at) VALUES(?,?,?,?)`,
			symbol, ts[i], closes[i], now); err != nil {
			return err
		}
	}
	return nil
}

// LoadBars returns the cached bars for a symbol if the newest fetch is within
// maxAge; otherwise an error so the caller refetches.
func (s *Store) LoadBars(symbol string, maxAge time.Duration) ([]int64, []float64, error) {
	var newest sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(fetched_at) FROM bars WHERE symbol=?`, symbol).Scan(&newest); err != nil {
		return nil, nil, err
	}
	if !newest.Valid {
		return nil, nil, fmt.Errorf("no cached bars for %s", symbol)
	}
	if time.Since(time.Unix(newest.Int64, 0)) > maxAge {
		return nil, nil, fmt.Errorf("cached bars for %s are stale", symbol)
	}

	rows, err := s.db.Query(`SELECT ts, close FROM bars WHERE symbol=? ORDER BY ts ASC`, symbol)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var ts []int64
	var closes []float64
	for rows.Next() {
		var t int64
		var c float64
		if err := rows.Scan(&t, &c); err != nil {
			return nil, nil, err
		}
		ts = append(ts, t)
		closes = append(closes, c)
	}
	return ts, closes, rows.Err()
}

// LogUsage records one command invocation.
func (s *Store) LogUsage(command string, chatID int64) error {
	_, err := s.db.Exec(`INSERT INTO usage_log(command,chat_id,ts) VALUES(?,?,?)`,
		command, chatID, time.Now().Unix())
	return err
}

// UsageStats aggregates usage per command.
type UsageStats struct {
	Count    int
	LastUsed int64
}

// FetchUsageStats returns per-command usage over the last N days.
func (s *Store) FetchUsageStats(days int) (map[string]*UsageStats, error) {
	since := time.Now().AddDate(0, 0, -days).Unix()
	rows, err := s.db.Query(`SELECT command, COUNT(*), MAX(ts) FROM usage_log WHERE ts>=? GROUP BY command`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]*UsageStats{}
	for rows.Next() {
		var cmd string
		var st UsageStats
		if err := rows.Scan(&cmd, &st.Count, &st.LastUsed); err != nil {
			return nil, err
		}
		out[cmd] = &st
	}
	return out, rows.Err()
}
