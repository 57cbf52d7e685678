// Package retrieval implements the context retrieval and suggestion
// indexing services on PostgreSQL + pgvector.
//
// A query is embedded once, matched against the domain_nodes table by
// cosine similarity, and classified as out-of-domain when nothing in the
// knowledge base comes close enough. Funny-chat exchanges are indexed back
// into the same table so recurring off-topic questions gain context over
// time.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/dcaohuy/domainchat/internal/engine"
)

// Sentinel errors for retrieval operations.
var (
	// ErrRetrievalFailed indicates the search or embedding call failed.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrIndexingFailed indicates inserting nodes into the vector index failed.
	ErrIndexingFailed = errors.New("indexing failed")
)

// SourceTypeSuggestion marks nodes created from funny-chat exchanges.
const SourceTypeSuggestion = "suggestion"

// VectorDimension is the embedding width of the domain_nodes schema.
// Embedder models must be configured to produce vectors of this size.
const VectorDimension = 768

// searchTimeout bounds a single vector search (embedding + query).
const searchTimeout = 10 * time.Second

// Config tunes search behavior.
type Config struct {
	// TopK is the number of nodes returned per query. Default 5.
	TopK int32

	// OutOfDomainThreshold is the minimum cosine similarity of the best
	// match for a query to count as in-domain. Default 0.55.
	OutOfDomainThreshold float64
}

func (cfg *Config) applyDefaults() {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.OutOfDomainThreshold <= 0 {
		cfg.OutOfDomainThreshold = 0.55
	}
}

// Store performs vector search and suggestion indexing.
// Safe for concurrent use; the pool and embedder are shared read-only.
type Store struct {
	pool     *pgxpool.Pool
	embedder ai.Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a Store. logger may be nil (slog.Default()).
func New(pool *pgxpool.Pool, embedder ai.Embedder, cfg Config, logger *slog.Logger) *Store {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, embedder: embedder, cfg: cfg, logger: logger}
}

// Retrieve implements engine.Retriever: embeds the query, searches
// domain_nodes by cosine similarity and classifies domain membership.
//
// The out-of-domain flag and the node list are independent: weak matches
// are still returned alongside IsOutOfDomain=true so callers can log them.
func (s *Store) Retrieve(ctx context.Context, query string) (engine.RetrievalResult, error) {
	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		return engine.RetrievalResult{}, fmt.Errorf("%w: embedding query: %w", ErrRetrievalFailed, err)
	}

	rows, err := s.pool.Query(queryCtx,
		`SELECT content, 1 - (embedding <=> $1) AS similarity
		 FROM domain_nodes
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		embedding, s.cfg.TopK,
	)
	if err != nil {
		return engine.RetrievalResult{}, fmt.Errorf("%w: searching nodes: %w", ErrRetrievalFailed, err)
	}
	defer rows.Close()

	var (
		nodes          []string
		bestSimilarity float64
	)
	for rows.Next() {
		var content string
		var similarity float64
		if err := rows.Scan(&content, &similarity); err != nil {
			return engine.RetrievalResult{}, fmt.Errorf("%w: scanning row: %w", ErrRetrievalFailed, err)
		}
		if similarity > bestSimilarity {
			bestSimilarity = similarity
		}
		nodes = append(nodes, content)
	}
	if err := rows.Err(); err != nil {
		return engine.RetrievalResult{}, fmt.Errorf("%w: reading rows: %w", ErrRetrievalFailed, err)
	}

	outOfDomain := len(nodes) == 0 || bestSimilarity < s.cfg.OutOfDomainThreshold

	s.logger.Debug("retrieval completed",
		"nodes", len(nodes),
		"best_similarity", bestSimilarity,
		"out_of_domain", outOfDomain)

	return engine.RetrievalResult{Nodes: nodes, IsOutOfDomain: outOfDomain}, nil
}

// SuggestionEntries implements engine.Indexer: builds the embeddable node
// for a funny-chat (question, answer) pair. Pure, no I/O.
func (s *Store) SuggestionEntries(question, answer string) ([]engine.IndexEntry, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", ErrIndexingFailed)
	}
	return []engine.IndexEntry{
		{
			Content: "Question: " + question + "\nAnswer: " + answer,
			Metadata: map[string]string{
				"source_type": SourceTypeSuggestion,
				"question":    question,
			},
		},
	}, nil
}

// InsertSuggestionNodes implements engine.Indexer: embeds each entry and
// inserts it into domain_nodes. Entries are inserted in order; the first
// failure aborts the rest.
func (s *Store) InsertSuggestionNodes(ctx context.Context, entries []engine.IndexEntry) error {
	for _, entry := range entries {
		embedding, err := s.embed(ctx, entry.Content)
		if err != nil {
			return fmt.Errorf("%w: embedding entry: %w", ErrIndexingFailed, err)
		}

		metadataJSON, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshaling metadata: %w", ErrIndexingFailed, err)
		}

		id := "node-" + uuid.New().String()
		_, err = s.pool.Exec(ctx,
			`INSERT INTO domain_nodes (id, content, embedding, metadata, created_at)
			 VALUES ($1, $2, $3, $4, now())`,
			id, entry.Content, embedding, metadataJSON,
		)
		if err != nil {
			return fmt.Errorf("%w: inserting node %q: %w", ErrIndexingFailed, id, err)
		}

		s.logger.Debug("inserted suggestion node", "id", id, "content_length", len(entry.Content))
	}
	return nil
}

// embed generates the vector for a single text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("empty embedding returned")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}
