package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dcaohuy/domainchat/internal/log"
	"github.com/dcaohuy/domainchat/internal/suggestion"
)

// fakeSuggestionStore implements SuggestionStore with error injection.
type fakeSuggestionStore struct {
	records   []suggestion.Record
	reloadErr error
	findErr   error
	deleteErr error
	deleted   int64

	reloads    int
	deletedIDs []string
}

func (f *fakeSuggestionStore) All() []suggestion.Record { return f.records }

func (f *fakeSuggestionStore) Reload(context.Context) error {
	f.reloads++
	return f.reloadErr
}

func (f *fakeSuggestionStore) FindByQuestion(_ context.Context, question string) (*suggestion.Record, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.records {
		if f.records[i].Question == question {
			return &f.records[i], nil
		}
	}
	return nil, suggestion.ErrNotFound
}

func (f *fakeSuggestionStore) Delete(_ context.Context, id string) (int64, error) {
	f.deletedIDs = append(f.deletedIDs, id)
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleted, nil
}

func newSuggestionServer(t *testing.T, store SuggestionStore) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Engine:      &fakeAnswerer{},
		Recorder:    &fakeRecorder{},
		Suggestions: store,
		Logger:      log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
	return srv
}

func TestSuggestionList(t *testing.T) {
	store := &fakeSuggestionStore{records: []suggestion.Record{
		{ID: "suggestion-1", Question: "q1", Answer: "a1", CreatedAt: time.Now()},
	}}
	srv := newSuggestionServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "suggestion-1") {
		t.Errorf("body missing record: %s", rec.Body.String())
	}
}

func TestSuggestionListEmptySnapshotIsEmptyArray(t *testing.T) {
	srv := newSuggestionServer(t, &fakeSuggestionStore{})

	req := httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if !strings.Contains(rec.Body.String(), `"suggestions":[]`) {
		t.Errorf("empty snapshot should serialize as [], got %s", rec.Body.String())
	}
}

func TestSuggestionReload(t *testing.T) {
	store := &fakeSuggestionStore{}
	srv := newSuggestionServer(t, store)

	req := httptest.NewRequest(http.MethodPost, "/suggestions/reload", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if store.reloads != 1 {
		t.Errorf("reload called %d times, want 1", store.reloads)
	}
}

func TestSuggestionReloadFailure(t *testing.T) {
	srv := newSuggestionServer(t, &fakeSuggestionStore{reloadErr: errors.New("pool closed")})

	req := httptest.NewRequest(http.MethodPost, "/suggestions/reload", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestSuggestionLookup(t *testing.T) {
	store := &fakeSuggestionStore{records: []suggestion.Record{
		{ID: "suggestion-1", Question: "what is X", Answer: "Y"},
	}}
	srv := newSuggestionServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/suggestions/lookup?question=what+is+X", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	// Wire contract field names
	for _, key := range []string{`"Id"`, `"question"`, `"answer"`, `"time"`} {
		if !strings.Contains(rec.Body.String(), key) {
			t.Errorf("body missing %s key: %s", key, rec.Body.String())
		}
	}
}

func TestSuggestionLookupNotFound(t *testing.T) {
	srv := newSuggestionServer(t, &fakeSuggestionStore{})

	req := httptest.NewRequest(http.MethodGet, "/suggestions/lookup?question=missing", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSuggestionLookupMissingParam(t *testing.T) {
	srv := newSuggestionServer(t, &fakeSuggestionStore{})

	req := httptest.NewRequest(http.MethodGet, "/suggestions/lookup", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSuggestionDelete(t *testing.T) {
	store := &fakeSuggestionStore{deleted: 1}
	srv := newSuggestionServer(t, store)

	req := httptest.NewRequest(http.MethodDelete, "/suggestions/suggestion-abc", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if len(store.deletedIDs) != 1 || store.deletedIDs[0] != "suggestion-abc" {
		t.Errorf("deleted IDs = %v", store.deletedIDs)
	}
}

// A missing row and a store failure are different outcomes on the wire.
func TestSuggestionDeleteNotFoundVsStoreError(t *testing.T) {
	srv := newSuggestionServer(t, &fakeSuggestionStore{deleted: 0})

	req := httptest.NewRequest(http.MethodDelete, "/suggestions/suggestion-gone", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("zero rows: status = %d, want 404", rec.Code)
	}

	srv = newSuggestionServer(t, &fakeSuggestionStore{deleteErr: errors.New("pool closed")})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/suggestions/suggestion-x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("store error: status = %d, want 500", rec.Code)
	}
}
