// Package audit provides a SQLite-backed append-only trail of lending
// engine operations.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS audit_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	op         TEXT NOT NULL,
	user_id    INTEGER NOT NULL,
	book_id    INTEGER NOT NULL,
	record_id  INTEGER NOT NULL DEFAULT 0,
	outcome    TEXT NOT NULL,
	at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_at ON audit_log(at);
`

// Entry is one audited engine operation. RecordID is zero when the
// operation failed before a ledger record was involved. Outcome is
// "ok" or a stable reason code from apperr.
type Entry struct {
	ID       int64     `json:"id"`
	Op       string    `json:"op"`
	UserID   int       `json:"userId"`
	BookID   int       `json:"bookId"`
	RecordID int       `json:"recordId"`
	Outcome  string    `json:"outcome"`
	At       time.Time `json:"at"`
}

// Log wraps a sql.DB with audit operations.
type Log struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Log, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("audit: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: apply schema: %w", err)
	}
	return &Log{conn: conn}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.conn.Close()
}

// Record appends one entry. The zero At is stamped with the current time.
func (l *Log) Record(e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := l.conn.Exec(`
		INSERT INTO audit_log (op, user_id, book_id, record_id, outcome, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Op, e.UserID, e.BookID, e.RecordID, e.Outcome, e.At)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first. A non-positive
// limit defaults to 50.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.conn.Query(`
		SELECT id, op, user_id, book_id, record_id, outcome, at
		FROM audit_log ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Op, &e.UserID, &e.BookID, &e.RecordID, &e.Outcome, &e.At); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
