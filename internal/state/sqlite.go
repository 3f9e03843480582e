package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobradar/internal/model"
)

// SQLiteStore keeps the snapshot in a SQLite database, one row per posting.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the postings table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS postings (
		job_id     TEXT PRIMARY KEY,
		record     TEXT NOT NULL,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating postings table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load reads every stored posting.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT job_id, record FROM postings")
	if err != nil {
		return nil, fmt.Errorf("loading postings: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{}
	for rows.Next() {
		var id, record string
		if err := rows.Scan(&id, &record); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		var p model.Posting
		if err := json.Unmarshal([]byte(record), &p); err != nil {
			return nil, fmt.Errorf("decoding posting %s: %w", id, err)
		}
		snap[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading postings: %w", err)
	}
	return snap, nil
}

// Save upserts every posting in snap in one transaction. first_seen is kept
// for existing rows and updated_at only moves when the record changed.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO postings (job_id, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at
		WHERE postings.record != excluded.record`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for id, p := range snap {
		record, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding posting %s: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(record), now); err != nil {
			return fmt.Errorf("saving posting %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
