// Package history records rotation runs in a local SQLite database.
// Passwords are never written to the ledger.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aryankumar/pwrotate/internal/rotation"
	"github.com/aryankumar/pwrotate/internal/util"
)

// Run is one recorded rotation run
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Hosts      int
	Users      int
	Summary    rotation.Summary
}

// Entry is one recorded task outcome
type Entry struct {
	RunID    string
	Host     string
	User     string
	Status   string
	Reason   string
	Error    string
	Duration time.Duration
}

// Store is the SQLite-backed ledger
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path and applies migrations
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)",
		path,
	)
	return open(dsn)
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// Single writer avoids "database is locked"
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Record stores a run and all of its outcomes in one transaction.
// An empty run.ID is replaced with a new one; the ID used is returned.
func (s *Store) Record(ctx context.Context, run Run, outcomes []rotation.Outcome) (id string, err error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = util.CombineErrors(err, tx.Rollback())
		}
	}()

	const insertRun = `INSERT INTO runs (id, started_at, finished_at, hosts, users, total, succeeded, failed, crashed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, insertRun,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Hosts, run.Users,
		run.Summary.Total, run.Summary.Succeeded, run.Summary.Failed, run.Summary.Crashed)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	const insertOutcome = `INSERT INTO outcomes (run_id, host, username, status, reason, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, insertOutcome)
	if err != nil {
		return "", fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		_, err = stmt.ExecContext(ctx, run.ID, o.Host, o.User, o.Status(), string(o.Reason), errText, o.Duration.Milliseconds())
		if err != nil {
			return "", fmt.Errorf("insert outcome %s@%s: %w", o.User, o.Host, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `SELECT id, started_at, finished_at, hosts, users, total, succeeded, failed, crashed
		FROM runs ORDER BY started_at DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Hosts, &r.Users,
			&r.Summary.Total, &r.Summary.Succeeded, &r.Summary.Failed, &r.Summary.Crashed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Entries returns the outcomes recorded for a run ordered by host then user
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	const query = `SELECT run_id, host, username, status, reason, error, duration_ms
		FROM outcomes WHERE run_id = ? ORDER BY host, username`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes for %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.RunID, &e.Host, &e.User, &e.Status, &e.Reason, &e.Error, &ms); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return entries, nil
}

// LastRotation returns when user's password on host was last changed
// successfully. ok is false when no successful change is recorded.
func (s *Store) LastRotation(ctx context.Context, host, user string) (at time.Time, ok bool, err error) {
	const query = `SELECT r.finished_at FROM outcomes o JOIN runs r ON r.id = o.run_id
		WHERE o.host = ? AND o.username = ? AND o.status = 'success'
		ORDER BY r.finished_at DESC LIMIT 1`
	err = s.db.QueryRowContext(ctx, query, host, user).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last rotation of %s@%s: %w", user, host, err)
	}
	return at, true, nil
}
