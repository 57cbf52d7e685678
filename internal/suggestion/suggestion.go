// Package suggestion persists the (question, answer) pairs produced by
// out-of-domain chats.
//
// The record's JSON field names (Id, question, answer, time) are the wire
// contract shared with the other services reading this collection; do not
// rename them.
package suggestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates no suggestion matched the lookup.
var ErrNotFound = errors.New("suggestion not found")

// Record is one persisted suggestion.
type Record struct {
	ID        string    `json:"Id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"time"`
}

// DB is the subset of pgxpool.Pool the store needs.
// Defined here so tests can inject a fake.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages suggestion persistence with a PostgreSQL backend.
//
// Store keeps an in-memory snapshot of all records that is populated only
// by explicit Reload calls; inserts by this or other processes are not
// reflected until the next Reload. Individual lookups (FindByQuestion)
// always hit the database.
//
// Safe for concurrent use.
type Store struct {
	db     DB
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot []Record
}

// New creates a Store. The snapshot starts empty; call Reload to fill it.
// logger may be nil (slog.Default()).
func New(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Insert persists a new suggestion with a freshly generated ID and a
// write-time timestamp. Duplicate questions are not deduplicated: every
// call creates a new record.
func (s *Store) Insert(ctx context.Context, question, answer string) error {
	id := NewID()
	_, err := s.db.Exec(ctx,
		`INSERT INTO suggestions (id, question, answer, created_at)
		 VALUES ($1, $2, $3, now())`,
		id, question, answer,
	)
	if err != nil {
		return fmt.Errorf("inserting suggestion %q: %w", id, err)
	}

	s.logger.Debug("inserted suggestion", "id", id, "question", question)
	return nil
}

// FindByQuestion returns the first suggestion whose question matches
// exactly, or ErrNotFound. Reads the database, not the snapshot.
func (s *Store) FindByQuestion(ctx context.Context, question string) (*Record, error) {
	var rec Record
	err := s.db.QueryRow(ctx,
		`SELECT id, question, answer, created_at
		 FROM suggestions
		 WHERE question = $1
		 ORDER BY created_at
		 LIMIT 1`,
		question,
	).Scan(&rec.ID, &rec.Question, &rec.Answer, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: question %q", ErrNotFound, question)
	}
	if err != nil {
		return nil, fmt.Errorf("finding suggestion by question: %w", err)
	}
	return &rec, nil
}

// Delete removes a suggestion by ID and returns the number of rows
// deleted. Zero rows is not an error; the caller decides whether a
// missing record matters; store failures propagate.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM suggestions WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting suggestion %q: %w", id, err)
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		s.logger.Debug("deleted suggestion", "id", id)
	} else {
		s.logger.Info("no suggestion found to delete", "id", id)
	}
	return deleted, nil
}

// Reload replaces the in-memory snapshot with the current contents of the
// collection, ordered oldest first.
func (s *Store) Reload(ctx context.Context) error {
	rows, err := s.db.Query(ctx,
		`SELECT id, question, answer, created_at
		 FROM suggestions
		 ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("loading suggestions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &rec.CreatedAt); err != nil {
			return fmt.Errorf("scanning suggestion: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading suggestions: %w", err)
	}

	s.mu.Lock()
	s.snapshot = records
	s.mu.Unlock()

	s.logger.Debug("reloaded suggestion snapshot", "count", len(records))
	return nil
}

// All returns a copy of the snapshot as of the last Reload.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]Record, len(s.snapshot))
	copy(cp, s.snapshot)
	return cp
}

// NewID generates a suggestion identifier. IDs are created independently
// of storage so retried inserts never collide.
func NewID() string {
	return "suggestion-" + uuid.New().String()
}
