// Package chatlog persists one record per chat-domain request: the query,
// the generated answer, the retrieved context nodes and the domain
// classification. Records are written by the transport layer after the
// engine returns; the engine never reads them.
package chatlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Record is one persisted chat-domain exchange.
type Record struct {
	ID             string    `json:"Id"`
	Query          string    `json:"query"`
	Answer         string    `json:"answer"`
	RetrievedNodes []string  `json:"retrieved_nodes"`
	IsOutOfDomain  bool      `json:"is_out_of_domain"`
	CreatedAt      time.Time `json:"time"`
}

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store manages chat-domain record persistence.
// Safe for concurrent use.
type Store struct {
	db     DB
	logger *slog.Logger
}

// New creates a Store. logger may be nil (slog.Default()).
func New(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// AddChatDomain inserts one record with a fresh ID and write-time
// timestamp. Failures propagate to the caller; unlike suggestion
// persistence this write is not best-effort.
func (s *Store) AddChatDomain(ctx context.Context, query, answer string, retrievedNodes []string, isOutOfDomain bool) error {
	nodesJSON, err := json.Marshal(retrievedNodes)
	if err != nil {
		return fmt.Errorf("marshaling retrieved nodes: %w", err)
	}

	id := "chatdomain-" + uuid.New().String()
	_, err = s.db.Exec(ctx,
		`INSERT INTO chat_domains (id, query, answer, retrieved_nodes, is_out_of_domain, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		id, query, answer, nodesJSON, isOutOfDomain,
	)
	if err != nil {
		return fmt.Errorf("inserting chat domain record %q: %w", id, err)
	}

	s.logger.Debug("recorded chat domain exchange", "id", id, "out_of_domain", isOutOfDomain)
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int32) ([]Record, error) {
	if limit <= 0 || limit > 1000 {
		return nil, fmt.Errorf("limit must be between 1 and 1000, got %d", limit)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, query, answer, retrieved_nodes, is_out_of_domain, created_at
		 FROM chat_domains
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chat domain records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var nodesJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.Answer, &nodesJSON, &rec.IsOutOfDomain, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat domain record: %w", err)
		}
		if err := json.Unmarshal(nodesJSON, &rec.RetrievedNodes); err != nil {
			s.logger.Warn("failed to parse retrieved nodes", "id", rec.ID, "error", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chat domain records: %w", err)
	}
	return records, nil
}
