package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dcaohuy/domainchat/internal/chatlog"
	"github.com/dcaohuy/domainchat/internal/engine"
)

// maxChatBodySize caps chat request bodies at 64 KiB.
const maxChatBodySize = 64 << 10

// Answerer produces an answer for a domain query. Implemented by
// engine.Engine.
type Answerer interface {
	Answer(ctx context.Context, query string, history *engine.History) (engine.Result, error)
}

// ChatRecorder persists one record per answered query. Implemented by
// chatlog.Store.
type ChatRecorder interface {
	AddChatDomain(ctx context.Context, query, answer string, retrievedNodes []string, isOutOfDomain bool) error
}

// chatRequest is the wire shape of POST /chat/chatDomain.
type chatRequest struct {
	Query string `json:"query"`
}

// chatResponse matches the wire contract of the original service.
type chatResponse struct {
	Response    string `json:"response"`
	IsOutdomain bool   `json:"is_outdomain"`
}

// chatHandler serves the chat endpoint. It owns the conversation history
// for the process-wide session; engine.History is safe for concurrent use.
type chatHandler struct {
	engine   Answerer
	recorder ChatRecorder
	history  *engine.History
	logger   *slog.Logger
}

// chatDomain handles POST /chat/chatDomain.
//
// An empty or missing query is rejected with 400 before any model or
// retrieval call. Collaborator failures surface as 500; the chat-domain
// record write is mandatory, so its failure is also a 500 even though
// the answer was generated.
func (h *chatHandler) chatDomain(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxChatBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to read request body", h.logger)
		return
	}
	if len(body) > maxChatBodySize {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON request body", h.logger)
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "empty_query", "query must not be empty", h.logger)
		return
	}

	result, err := h.engine.Answer(r.Context(), query, h.history)
	if err != nil {
		h.logger.Error("answering query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "answer_failed", err.Error(), h.logger)
		return
	}

	if err := h.recorder.AddChatDomain(r.Context(), query, result.Response, result.RetrievedNodes, result.IsOutOfDomain); err != nil {
		h.logger.Error("persisting chat domain record failed", "error", err)
		writeError(w, http.StatusInternalServerError, "record_failed", err.Error(), h.logger)
		return
	}

	h.history.Add(query, result.Response)

	writeJSON(w, http.StatusOK, chatResponse{
		Response:    result.Response,
		IsOutdomain: result.IsOutOfDomain,
	}, h.logger)
}

// ChatLogLister lists recent chat-domain records. Implemented by
// chatlog.Store.
type ChatLogLister interface {
	Recent(ctx context.Context, limit int32) ([]chatlog.Record, error)
}

// defaultChatLogLimit applies when ?limit= is absent.
const defaultChatLogLimit int32 = 50

// chatLog handles GET /chatlog.
func (h *chatHandler) chatLog(lister ChatLogLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultChatLogLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 32)
			if err != nil || n < 1 || n > 1000 {
				writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 1000", h.logger)
				return
			}
			limit = int32(n)
		}

		records, err := lister.Recent(r.Context(), limit)
		if err != nil {
			h.logger.Error("listing chat log failed", "error", err)
			writeError(w, http.StatusInternalServerError, "list_failed", "failed to list chat log", h.logger)
			return
		}
		if records == nil {
			records = []chatlog.Record{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records}, h.logger)
	}
}
