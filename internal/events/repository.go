package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
)

// Repository persists events in the SQLite events table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository with the given database connection
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an event, generating an ID when it has none.
func (r *Repository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = shared.GenerateID()
	}
	if e.Event == "" {
		return fmt.Errorf("%w: event name", shared.ErrMissingArgument)
	}

	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	query := `
		INSERT INTO events (id, component, event, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if _, err := r.db.Exec(query, e.ID, e.Component, e.Event, string(data), e.Timestamp); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. A non-empty name filters by exact event name.
func (r *Repository) Recent(limit int, name string) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, component, event, data, created_at FROM events`
	args := []any{}

	if name != "" {
		query += " WHERE event = ?"
		args = append(args, name)
	}

	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			data      string
			createdAt time.Time
		)
		if err := rows.Scan(&e.ID, &e.Component, &e.Event, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
		e.Timestamp = createdAt
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

// Count returns the number of stored events.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// SQLiteSink mirrors emitted events into a SQLite database.
type SQLiteSink struct {
	db   *sql.DB
	repo *Repository
}

// OpenSQLiteSink opens (creating if needed) the database at path and applies migrations.
func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSink{db: db, repo: NewRepository(db)}, nil
}

func (s *SQLiteSink) Record(e Event) error {
	return s.repo.Create(&e)
}

// Repository exposes queries over the sink's database.
func (s *SQLiteSink) Repository() *Repository {
	return s.repo
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
