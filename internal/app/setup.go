package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcaohuy/domainchat/db"
	"github.com/dcaohuy/domainchat/internal/api"
	"github.com/dcaohuy/domainchat/internal/chatlog"
	"github.com/dcaohuy/domainchat/internal/config"
	"github.com/dcaohuy/domainchat/internal/engine"
	"github.com/dcaohuy/domainchat/internal/llm"
	"github.com/dcaohuy/domainchat/internal/prompt"
	"github.com/dcaohuy/domainchat/internal/retrieval"
	"github.com/dcaohuy/domainchat/internal/suggestion"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, err := provideGenkit(ctx)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Retrieval = retrieval.New(pool, embedder, retrieval.Config{
		TopK:                 int32(cfg.RetrievalTopK),
		OutOfDomainThreshold: cfg.OutOfDomainThreshold,
	}, logger)
	a.Suggestions = suggestion.New(pool, logger)
	a.ChatLog = chatlog.New(pool, logger)

	// Warm the suggestion snapshot; an empty or failed load is not fatal,
	// the reload endpoint can retry later
	if err := a.Suggestions.Reload(ctx); err != nil {
		logger.Warn("initial suggestion load failed", "error", err)
	}

	eng, err := engine.New(engine.Config{
		Fast:        llm.NewGenkitClient(g, cfg.FullModelName(cfg.FastModel)),
		Strong:      llm.NewGenkitClient(g, cfg.FullModelName(cfg.StrongModel)),
		Prompts:     prompt.NewStore(),
		Retriever:   a.Retrieval,
		Indexer:     a.Retrieval,
		Suggestions: a.Suggestions,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	a.Engine = eng

	srv, err := api.NewServer(api.ServerConfig{
		Logger:        logger,
		Engine:        eng,
		Recorder:      a.ChatLog,
		ChatLog:       a.ChatLog,
		Suggestions:   a.Suggestions,
		Pool:          pool,
		RatePerSecond: cfg.RatePerSecond,
		RateBurst:     cfg.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating api server: %w", err)
	}
	a.server = newHTTPServer(cfg.ServerAddr, srv.Handler())

	return a, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Fail fast if the database is unreachable
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the Google AI plugin.
// GEMINI_API_KEY is read by the plugin from the environment.
func provideGenkit(ctx context.Context) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("initializing Genkit")
	}
	return g, nil
}

// provideEmbedder creates the embedder instance for vector search.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}
