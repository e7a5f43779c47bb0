// Package ledger archives trade events in SQLite so trade activity outlives
// the Redis pub/sub stream.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwebster45206/barter-engine/internal/events"
)

// Ledger is an append-only archive of trade events.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("empty ledger path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to set %s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trade_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			npc_id TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			data TEXT NOT NULL DEFAULT '{}',
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS trade_events_npc ON trade_events(npc_id, seq);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("failed to create ledger schema: %w", err)
		}
	}
	return nil
}

// Record stores an event. Events are keyed by ID, so recording the same
// event twice stores it once; the second call reports false.
func (l *Ledger) Record(ctx context.Context, ev events.Event) (bool, error) {
	if ev.ID == "" {
		return false, errors.New("event has no ID")
	}
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return false, fmt.Errorf("failed to marshal event data: %w", err)
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO trade_events (id, type, npc_id, session_id, data, at) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Type), ev.NPCID, ev.SessionID, string(data), at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("failed to record event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record event: %w", err)
	}
	return n > 0, nil
}

// Events returns the newest events of an NPC, oldest first. limit <= 0
// returns them all.
func (l *Ledger) Events(ctx context.Context, npcID string, limit int) ([]events.Event, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, type, npc_id, session_id, data, at FROM (
			SELECT seq, id, type, npc_id, session_id, data, at FROM trade_events
			WHERE npc_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, npcID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []events.Event
	for rows.Next() {
		var (
			ev      events.Event
			evType  string
			data    string
			atValue string
		)
		if err := rows.Scan(&ev.ID, &evType, &ev.NPCID, &ev.SessionID, &data, &atValue); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Type = events.EventType(evType)
		if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
		if ev.At, err = time.Parse(time.RFC3339Nano, atValue); err != nil {
			return nil, fmt.Errorf("failed to parse event time: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
