// Package audit persists a record of every executed tool call to a
// local sqlite database. The trail answers "what did the agent actually
// do" after the fact; conversation text is not stored.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store writes tool call records to sqlite. It satisfies the
// dispatcher's Recorder interface.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the audit database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS tool_calls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn_id TEXT NOT NULL,
		tool TEXT NOT NULL,
		arguments TEXT NOT NULL,
		ok INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		summary TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create tool_calls: %w", err)
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_tool_calls_turn
		ON tool_calls (turn_id);`); err != nil {
		return fmt.Errorf("create turn index: %w", err)
	}
	return nil
}

// RecordToolCall inserts one record.
func (s *Store) RecordToolCall(turnID, tool, arguments string, ok bool, duration time.Duration, summary string) error {
	_, err := s.db.Exec(
		`INSERT INTO tool_calls (turn_id, tool, arguments, ok, duration_ms, summary)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		turnID, tool, arguments, ok, duration.Milliseconds(), summary,
	)
	if err != nil {
		return fmt.Errorf("insert tool call: %w", err)
	}
	return nil
}

// Record is one persisted tool call.
type Record struct {
	TurnID     string
	Tool       string
	Arguments  string
	OK         bool
	DurationMS int64
	Summary    string
}

// TurnRecords returns the records of one turn in execution order.
func (s *Store) TurnRecords(turnID string) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT turn_id, tool, arguments, ok, duration_ms, summary
		 FROM tool_calls WHERE turn_id = ? ORDER BY id`,
		turnID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tool calls: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.TurnID, &r.Tool, &r.Arguments, &r.OK, &r.DurationMS, &r.Summary); err != nil {
			return nil, fmt.Errorf("scan tool call: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
