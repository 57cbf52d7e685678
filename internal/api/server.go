package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dcaohuy/domainchat/internal/engine"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger        *slog.Logger
	Engine        Answerer        // Required
	Recorder      ChatRecorder    // Required
	ChatLog       ChatLogLister   // Optional: nil disables GET /chatlog
	Suggestions   SuggestionStore // Optional: nil disables suggestion routes
	Pool          *pgxpool.Pool   // Optional: nil disables pool ping in /ready
	RatePerSecond float64         // Token refill rate per IP (0 = default 10)
	RateBurst     int             // Rate limiter burst size per IP (0 = default 20)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Recorder == nil {
		return nil, errors.New("chat recorder is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		engine:   cfg.Engine,
		recorder: cfg.Recorder,
		history:  engine.NewHistory(),
		logger:   logger,
	}

	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /chat/chatDomain", ch.chatDomain)

	// Chat log (optional)
	if cfg.ChatLog != nil {
		mux.HandleFunc("GET /chatlog", ch.chatLog(cfg.ChatLog))
	}

	// Suggestion repository (optional)
	if cfg.Suggestions != nil {
		sh := &suggestionHandler{store: cfg.Suggestions, logger: logger}
		mux.HandleFunc("GET /suggestions", sh.list)
		mux.HandleFunc("POST /suggestions/reload", sh.reload)
		mux.HandleFunc("GET /suggestions/lookup", sh.lookup)
		mux.HandleFunc("DELETE /suggestions/{id}", sh.remove)
	}

	ratePerSec := cfg.RatePerSecond
	if ratePerSec <= 0 {
		ratePerSec = 10
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 20
	}
	rl := newRateLimiter(ratePerSec, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Top-level mux keeps health probes outside the middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
