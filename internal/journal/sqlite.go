// Package journal stores an audit trail of save passes in SQLite.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"arris/internal/arris"
	"arris/internal/journal/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements arris.Journal using SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens the journal at path (or ":memory:") and migrates
// it to the latest schema.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal %s: %w", path, err)
	}
	return &SQLiteJournal{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with appropriate
// PRAGMAs. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

func (j *SQLiteJournal) StartCommit(id string, directory string, startedAt time.Time) error {
	_, err := j.db.Exec(
		"INSERT INTO commits (id, directory, started_at) VALUES (?, ?, ?)",
		id, directory, startedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("starting commit %s: %w", id, err)
	}
	return nil
}

func (j *SQLiteJournal) RecordFile(entry arris.JournalEntry) error {
	_, err := j.db.Exec(
		`INSERT INTO commit_files (commit_id, idx, path, new_path, action, message)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.CommitID, entry.Index, entry.Path, entry.NewPath, string(entry.Action), entry.Message,
	)
	if err != nil {
		return fmt.Errorf("recording %s in commit %s: %w", entry.Path, entry.CommitID, err)
	}
	return nil
}

func (j *SQLiteJournal) FinishCommit(id string, finishedAt time.Time, report *arris.CommitReport) error {
	res, err := j.db.Exec(
		`UPDATE commits
		 SET finished_at = ?, processed = ?, deleted = ?, written = ?, failed = ?
		 WHERE id = ?`,
		finishedAt.UTC(), report.Processed, report.Deleted, report.Written, len(report.Failures), id,
	)
	if err != nil {
		return fmt.Errorf("finishing commit %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing commit %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finishing commit %s: no such commit", id)
	}
	return nil
}

func (j *SQLiteJournal) ListCommits(limit int) ([]*arris.CommitSummary, error) {
	rows, err := j.db.Query(
		`SELECT id, directory, started_at, finished_at, processed, deleted, written, failed
		 FROM commits
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	defer rows.Close()

	var result []*arris.CommitSummary
	for rows.Next() {
		var (
			c        arris.CommitSummary
			finished sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Directory, &c.StartedAt, &finished,
			&c.Processed, &c.Deleted, &c.Written, &c.Failed); err != nil {
			return nil, fmt.Errorf("scanning commit: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			c.FinishedAt = &t
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	return result, nil
}

// Entries returns the per-file outcomes of a commit in the order they were
// recorded.
func (j *SQLiteJournal) Entries(commitID string) ([]arris.JournalEntry, error) {
	rows, err := j.db.Query(
		`SELECT commit_id, idx, path, new_path, action, message
		 FROM commit_files
		 WHERE commit_id = ?
		 ORDER BY id`,
		commitID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing entries of commit %s: %w", commitID, err)
	}
	defer rows.Close()

	var result []arris.JournalEntry
	for rows.Next() {
		var (
			e      arris.JournalEntry
			action string
		)
		if err := rows.Scan(&e.CommitID, &e.Index, &e.Path, &e.NewPath, &action, &e.Message); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Action = arris.JournalAction(action)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing entries of commit %s: %w", commitID, err)
	}
	return result, nil
}

// Path returns the journal file path (or ":memory:").
func (j *SQLiteJournal) Path() string {
	return j.path
}

// CheckMigrations verifies the journal schema is up-to-date.
func (j *SQLiteJournal) CheckMigrations() error {
	return migrations.CheckStatus(j.db)
}

// Close closes the database connection.
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

var _ arris.Journal = (*SQLiteJournal)(nil)
