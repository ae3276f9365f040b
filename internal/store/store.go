package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"greetbot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists greeting subscriptions and delivery history.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// GreetingRecord is one row of delivery history.
type GreetingRecord struct {
	Channel   string
	ChatID    string
	Trigger   domain.TriggerType
	Message   string
	Quote     string
	Delivered bool
	Error     string
	CreatedAt time.Time
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subscriptions (
		id          TEXT PRIMARY KEY,
		channel     TEXT NOT NULL,
		chat_id     TEXT NOT NULL,
		message     TEXT,
		interval_s  INTEGER NOT NULL,
		enabled     INTEGER NOT NULL DEFAULT 1,
		last_run    DATETIME,
		next_run    DATETIME,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(channel, chat_id)
	);

	CREATE TABLE IF NOT EXISTS greetings (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		channel     TEXT NOT NULL,
		chat_id     TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		message     TEXT,
		quote       TEXT,
		delivered   INTEGER NOT NULL,
		error       TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_greetings_chat ON greetings(channel, chat_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) SaveSubscription(ctx context.Context, sub domain.Subscription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (id, channel, chat_id, message, interval_s, enabled, last_run, next_run)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(channel, chat_id) DO UPDATE SET
		   message = excluded.message,
		   interval_s = excluded.interval_s,
		   enabled = excluded.enabled,
		   last_run = excluded.last_run,
		   next_run = excluded.next_run`,
		sub.ID, sub.Channel, sub.ChatID, sub.Message, sub.IntervalS, sub.Enabled, sub.LastRun, sub.NextRun,
	)
	return err
}

// DeleteSubscription removes the subscription for a chat. Returns
// whether a row existed.
func (s *SQLiteStore) DeleteSubscription(ctx context.Context, channel, chatID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE channel = ? AND chat_id = ?`, channel, chatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel, chat_id, message, interval_s, enabled, last_run, next_run
		 FROM subscriptions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		var lastRun, nextRun sql.NullTime
		if err := rows.Scan(&sub.ID, &sub.Channel, &sub.ChatID, &sub.Message,
			&sub.IntervalS, &sub.Enabled, &lastRun, &nextRun); err != nil {
			return nil, err
		}
		sub.LastRun = lastRun.Time
		sub.NextRun = nextRun.Time
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) RecordGreeting(ctx context.Context, rec GreetingRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO greetings (channel, chat_id, trigger_type, message, quote, delivered, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Channel, rec.ChatID, string(rec.Trigger), rec.Message, rec.Quote,
		rec.Delivered, rec.Error, rec.CreatedAt,
	)
	return err
}

// RecentGreetings returns the newest delivery records, newest first.
func (s *SQLiteStore) RecentGreetings(ctx context.Context, limit int) ([]GreetingRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel, chat_id, trigger_type, message, quote, delivered, error, created_at
		 FROM greetings ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []GreetingRecord
	for rows.Next() {
		var rec GreetingRecord
		var trigger string
		if err := rows.Scan(&rec.Channel, &rec.ChatID, &trigger, &rec.Message,
			&rec.Quote, &rec.Delivered, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Trigger = domain.TriggerType(trigger)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
