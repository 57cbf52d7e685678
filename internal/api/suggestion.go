package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dcaohuy/domainchat/internal/suggestion"
)

// SuggestionStore is the suggestion repository surface the API needs.
// Implemented by suggestion.Store.
type SuggestionStore interface {
	All() []suggestion.Record
	Reload(ctx context.Context) error
	FindByQuestion(ctx context.Context, question string) (*suggestion.Record, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// suggestionHandler serves the suggestion repository endpoints.
type suggestionHandler struct {
	store  SuggestionStore
	logger *slog.Logger
}

// list handles GET /suggestions. It serves the in-memory snapshot; an
// empty snapshot before the first reload is a valid empty list.
func (h *suggestionHandler) list(w http.ResponseWriter, _ *http.Request) {
	records := h.store.All()
	if records == nil {
		records = []suggestion.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": records}, h.logger)
}

// reload handles POST /suggestions/reload.
func (h *suggestionHandler) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reload(r.Context()); err != nil {
		h.logger.Error("reloading suggestions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "reload_failed", "failed to reload suggestions", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"}, h.logger)
}

// lookup handles GET /suggestions/lookup?question=.
func (h *suggestionHandler) lookup(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")
	if question == "" {
		writeError(w, http.StatusBadRequest, "missing_question", "question parameter is required", h.logger)
		return
	}

	rec, err := h.store.FindByQuestion(r.Context(), question)
	if err != nil {
		if errors.Is(err, suggestion.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no suggestion for that question", h.logger)
			return
		}
		h.logger.Error("suggestion lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup_failed", "failed to look up suggestion", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, rec, h.logger)
}

// remove handles DELETE /suggestions/{id}.
// Zero rows deleted is a success per storage semantics, but the HTTP
// surface reports it as 404 so callers can tell a stale ID apart from a
// completed delete.
func (h *suggestionHandler) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_id", "suggestion ID is required", h.logger)
		return
	}

	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("deleting suggestion failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete suggestion", h.logger)
		return
	}
	if deleted == 0 {
		writeError(w, http.StatusNotFound, "not_found", "no suggestion with that ID", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"}, h.logger)
}
