// Package app wires configuration, storage, Genkit and the engine into a
// running application. Setup builds the dependency graph in order, with
// cleanup of everything already initialized on failure.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcaohuy/domainchat/internal/chatlog"
	"github.com/dcaohuy/domainchat/internal/config"
	"github.com/dcaohuy/domainchat/internal/engine"
	"github.com/dcaohuy/domainchat/internal/retrieval"
	"github.com/dcaohuy/domainchat/internal/suggestion"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Retrieval   *retrieval.Store
	Suggestions *suggestion.Store
	ChatLog     *chatlog.Store
	Engine      *engine.Engine

	server *http.Server
}

// Close releases all resources. Safe to call after a partial Setup.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		if a.Logger != nil {
			a.Logger.Info("database pool closed")
		}
	}

	return nil
}

// Shutdown stops the HTTP server gracefully, then closes resources.
func (a *App) Shutdown(ctx context.Context) error {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.Logger.Warn("http server shutdown", "error", err)
		}
	}
	return a.Close()
}
