// Package report stores conversion events in an SQLite database so a run
// can be inspected after the console output is gone.
package report

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/changescheme/core/events"
	"github.com/FocuswithJustin/changescheme/core/sqlite"
)

// RunStatus represents the state of a conversion run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ErrRunNotFound is returned when a run ID is not in the database.
var ErrRunNotFound = errors.New("run not found")

// batchSize is how many events are buffered before they are written in one
// transaction.
const batchSize = 256

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	scheme      TEXT NOT NULL,
	status      TEXT NOT NULL,
	files       INTEGER NOT NULL DEFAULT 0,
	error       TEXT
);
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	file       TEXT,
	severity   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	word       TEXT,
	word_index INTEGER,
	observed   TEXT,
	expected   TEXT,
	message    TEXT
);
CREATE INDEX IF NOT EXISTS events_run_kind ON events(run_id, kind);
`

// Run is one row of the runs table.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  string    `json:"started_at"`
	FinishedAt string    `json:"finished_at,omitempty"`
	Scheme     string    `json:"scheme"`
	Status     RunStatus `json:"status"`
	Files      int       `json:"files"`
	Error      string    `json:"error,omitempty"`
}

// Count is the number of events of one kind in a run.
type Count struct {
	Severity events.Severity `json:"severity"`
	Kind     events.Kind     `json:"kind"`
	N        int             `json:"n"`
}

// Store is an SQLite-backed event store.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	pending []pendingEvent
	err     error
}

type pendingEvent struct {
	runID string
	event events.Event
}

// Open opens or creates the report database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	// One connection serialises writers from all workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create report schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing report database for queries. Recording
// runs or events through the returned Store fails.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes buffered events and closes the database.
func (s *Store) Close() error {
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}

// StartRun records a new run and returns it.
func (s *Store) StartRun(scheme string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Scheme:    scheme,
		Status:    RunStatusRunning,
	}
	_, err := s.db.Exec(`INSERT INTO runs (id, started_at, scheme, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Scheme, string(run.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// FinishRun flushes buffered events and marks a run completed, or failed
// when runErr is non-nil. The run is marked even if the flush fails; both
// errors are returned.
func (s *Store) FinishRun(id string, files int, runErr error) error {
	flushErr := s.Flush()
	status := RunStatusCompleted
	var msg sql.NullString
	if runErr != nil {
		status = RunStatusFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.db.Exec(`UPDATE runs SET finished_at = ?, status = ?, files = ?, error = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), string(status), files, msg, id)
	if err != nil {
		return errors.Join(flushErr, fmt.Errorf("failed to update run: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Join(flushErr, fmt.Errorf("%w: %s", ErrRunNotFound, id))
	}
	return flushErr
}

// Reporter returns an events.Reporter that records events under runID.
// Events are buffered and written in batches; call Flush or FinishRun to
// write the remainder. The first write error is kept and returned by every
// later Flush.
func (s *Store) Reporter(runID string) events.Reporter {
	return events.ReporterFunc(func(e events.Event) {
		s.mu.Lock()
		s.pending = append(s.pending, pendingEvent{runID: runID, event: e})
		full := len(s.pending) >= batchSize
		s.mu.Unlock()
		if full {
			s.Flush()
		}
	})
}

// Flush writes buffered events in one transaction.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return s.err
	}
	if err := s.insertEvents(s.pending); err != nil && s.err == nil {
		s.err = err
	}
	s.pending = s.pending[:0]
	return s.err
}

func (s *Store) insertEvents(batch []pendingEvent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO events
		(run_id, file, severity, kind, word, word_index, observed, expected, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range batch {
		e := p.event
		observed, err := encodeLabels(e.Observed)
		if err != nil {
			return err
		}
		expected, err := encodeLabels(e.Expected)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(p.runID, e.File, string(e.Severity), string(e.Kind),
			e.Word, e.WordIndex, observed, expected, e.Message); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}
	return tx.Commit()
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(id string) (*Run, error) {
	return s.queryRun(`SELECT id, started_at, finished_at, scheme, status, files, error FROM runs WHERE id = ?`, id)
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun() (*Run, error) {
	return s.queryRun(`SELECT id, started_at, finished_at, scheme, status, files, error FROM runs ORDER BY rowid DESC LIMIT 1`)
}

func (s *Store) queryRun(query string, args ...any) (*Run, error) {
	var (
		run      Run
		status   string
		finished sql.NullString
		runErr   sql.NullString
	)
	err := s.db.QueryRow(query, args...).Scan(&run.ID, &run.StartedAt, &finished, &run.Scheme, &status, &run.Files, &runErr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.Status = RunStatus(status)
	run.FinishedAt = finished.String
	run.Error = runErr.String
	return &run, nil
}

// Counts returns the number of events per severity and kind for a run,
// ordered by severity then kind.
func (s *Store) Counts(runID string) ([]Count, error) {
	rows, err := s.db.Query(`SELECT severity, kind, COUNT(*) FROM events
		WHERE run_id = ? GROUP BY severity, kind ORDER BY severity, kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	var out []Count
	for rows.Next() {
		var c Count
		var sev, kind string
		if err := rows.Scan(&sev, &kind, &c.N); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		c.Severity = events.Severity(sev)
		c.Kind = events.Kind(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Events returns the events of a run in insertion order. A non-empty kind
// restricts the result to that kind.
func (s *Store) Events(runID string, kind events.Kind) ([]events.Event, error) {
	query := `SELECT file, severity, kind, word, word_index, observed, expected, message
		FROM events WHERE run_id = ?`
	args := []any{runID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var (
			e                  events.Event
			sev, k             string
			file, word, msg    sql.NullString
			observed, expected sql.NullString
			index              sql.NullInt64
		)
		if err := rows.Scan(&file, &sev, &k, &word, &index, &observed, &expected, &msg); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.File = file.String
		e.Severity = events.Severity(sev)
		e.Kind = events.Kind(k)
		e.Word = word.String
		e.WordIndex = int(index.Int64)
		e.Message = msg.String
		if e.Observed, err = decodeLabels(observed); err != nil {
			return nil, err
		}
		if e.Expected, err = decodeLabels(expected); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// encodeLabels stores a label list as a JSON array, or NULL when empty.
func encodeLabels(labels []string) (sql.NullString, error) {
	if len(labels) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode labels: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeLabels(v sql.NullString) ([]string, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	var labels []string
	if err := json.Unmarshal([]byte(v.String), &labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	return labels, nil
}
