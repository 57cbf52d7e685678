// Package engine implements the conversation orchestrator at the core of
// domainchat.
//
// Per request the engine picks exactly one generation path based on the
// retrieval service's domain classification and the presence of history:
//
//	out-of-domain            -> FunnyChat (fast tier, suggestion side effects)
//	in-domain, no history    -> GenerateResponse (fast tier)
//	in-domain, with history  -> ConversationTracking (strong tier)
//	                            -> re-retrieval -> ReasoningQuery (strong tier)
//
// The engine holds no cross-request state. All collaborators are injected
// at construction and shared read-only across concurrent requests.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dcaohuy/domainchat/internal/llm"
	"github.com/dcaohuy/domainchat/internal/prompt"
)

// RetrievalResult is what the retrieval service reports for a query.
//
// Nodes may be empty while IsOutOfDomain is false (sparse knowledge base)
// and non-empty while IsOutOfDomain is true (low-similarity matches); the
// engine tolerates both combinations.
type RetrievalResult struct {
	Nodes         []string
	IsOutOfDomain bool
}

// Retriever classifies a query against the knowledge base and returns
// relevance-ranked context snippets.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (RetrievalResult, error)
}

// IndexEntry is one embeddable node derived from a (question, answer) pair.
type IndexEntry struct {
	Content  string
	Metadata map[string]string
}

// Indexer turns funny-chat exchanges into vector index entries and inserts
// them, so future retrieval can surface past out-of-domain questions.
type Indexer interface {
	SuggestionEntries(question, answer string) ([]IndexEntry, error)
	InsertSuggestionNodes(ctx context.Context, entries []IndexEntry) error
}

// SuggestionStore persists (question, answer) pairs produced by FunnyChat.
type SuggestionStore interface {
	Insert(ctx context.Context, question, answer string) error
}

// Result is the engine's answer for one query.
type Result struct {
	Response       string
	RetrievedNodes []string
	IsOutOfDomain  bool
}

// Config contains all required parameters for the engine.
type Config struct {
	Fast        llm.Client    // fast tier: direct answers, funny fallback
	Strong      llm.Client    // strong tier: tracking, reasoning
	Prompts     *prompt.Store // template store
	Retriever   Retriever
	Indexer     Indexer
	Suggestions SuggestionStore
	Logger      *slog.Logger // nil = slog.Default()
}

// validate checks that all required collaborators are present.
func (cfg Config) validate() error {
	if cfg.Fast == nil {
		return errors.New("fast-tier model client is required")
	}
	if cfg.Strong == nil {
		return errors.New("strong-tier model client is required")
	}
	if cfg.Prompts == nil {
		return errors.New("prompt store is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Indexer == nil {
		return errors.New("indexer is required")
	}
	if cfg.Suggestions == nil {
		return errors.New("suggestion store is required")
	}
	return nil
}

// Engine is the conversation orchestrator.
// Safe for concurrent use; it owns no mutable state.
type Engine struct {
	fast        llm.Client
	strong      llm.Client
	prompts     *prompt.Store
	retriever   Retriever
	indexer     Indexer
	suggestions SuggestionStore
	logger      *slog.Logger
}

// New creates an Engine from the given configuration.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		fast:        cfg.Fast,
		strong:      cfg.Strong,
		prompts:     cfg.Prompts,
		retriever:   cfg.Retriever,
		indexer:     cfg.Indexer,
		suggestions: cfg.Suggestions,
		logger:      logger,
	}, nil
}

// Answer runs the per-request decision path and always either returns a
// text answer or an error, never an empty success.
func (e *Engine) Answer(ctx context.Context, query string, history *History) (Result, error) {
	retrieved, err := e.retriever.Retrieve(ctx, query)
	if err != nil {
		return Result{}, err
	}

	if retrieved.IsOutOfDomain {
		text, err := e.FunnyChat(ctx, query)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Response:       text,
			RetrievedNodes: retrieved.Nodes,
			IsOutOfDomain:  true,
		}, nil
	}

	if history.Len() == 0 {
		text, err := e.GenerateResponse(ctx, query, retrieved.Nodes, "")
		if err != nil {
			return Result{}, err
		}
		return Result{Response: text, RetrievedNodes: retrieved.Nodes}, nil
	}

	rendered := history.Render()

	tracking, err := e.ConversationTracking(ctx, rendered, query)
	if err != nil {
		return Result{}, err
	}

	resolved := tracking.ResolvedQuery(query)
	nodes := retrieved.Nodes
	if resolved != query {
		// The tracking step disambiguated the query; retrieve again so the
		// reasoning context matches what is actually being asked.
		reRetrieved, err := e.retriever.Retrieve(ctx, resolved)
		if err != nil {
			return Result{}, err
		}
		if len(reRetrieved.Nodes) > 0 {
			nodes = reRetrieved.Nodes
		}
	}

	text, err := e.ReasoningQuery(ctx, resolved, nodes, rendered)
	if err != nil {
		return Result{}, err
	}
	return Result{Response: text, RetrievedNodes: nodes}, nil
}

// GenerateResponse renders the instruction template and issues exactly one
// fast-tier model call, returning the text verbatim. Model failures
// propagate unchanged; there are no retries at this layer.
func (e *Engine) GenerateResponse(ctx context.Context, query string, nodes []string, history string) (string, error) {
	p, err := e.prompts.Render(prompt.Instruction, prompt.Vars{
		"query":   query,
		"context": joinNodes(nodes),
		"history": history,
	})
	if err != nil {
		return "", err
	}
	return e.fast.Complete(ctx, p)
}

// FunnyChat generates the out-of-domain fallback answer, then records the
// exchange as a suggestion on a best-effort basis. The answer is returned
// even when the side-effect steps fail.
func (e *Engine) FunnyChat(ctx context.Context, query string) (string, error) {
	p, err := e.prompts.Render(prompt.Funny, prompt.Vars{"query": query})
	if err != nil {
		return "", err
	}

	answer, err := e.fast.Complete(ctx, p)
	if err != nil {
		return "", err
	}

	e.recordSuggestion(ctx, query, answer)

	return answer, nil
}

// ReasoningQuery renders the reasoning template and issues one strong-tier
// model call. No side effects.
func (e *Engine) ReasoningQuery(ctx context.Context, query string, nodes []string, history string) (string, error) {
	p, err := e.prompts.Render(prompt.Reasoning, prompt.Vars{
		"query":   query,
		"context": joinNodes(nodes),
		"history": history,
	})
	if err != nil {
		return "", err
	}
	return e.strong.Complete(ctx, p)
}

// recordSuggestion runs the three persistence steps strictly in order:
// build index entries, insert them into the vector index, persist the
// suggestion record. A failed step logs a warning and skips the remaining
// steps. Errors never escape; user-facing latency and availability take
// priority over suggestion-index completeness.
func (e *Engine) recordSuggestion(ctx context.Context, question, answer string) {
	entries, err := e.indexer.SuggestionEntries(question, answer)
	if err != nil {
		e.logger.Warn("building suggestion index entries failed",
			"question", question, "error", err)
		return
	}

	if err := e.indexer.InsertSuggestionNodes(ctx, entries); err != nil {
		e.logger.Warn("inserting suggestion nodes failed",
			"question", question, "error", err)
		return
	}

	if err := e.suggestions.Insert(ctx, question, answer); err != nil {
		e.logger.Warn("persisting suggestion failed",
			"question", question, "error", err)
	}
}

// joinNodes renders retrieved snippets as a single context block.
func joinNodes(nodes []string) string {
	return strings.Join(nodes, "\n\n")
}
