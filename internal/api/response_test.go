package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcaohuy/domainchat/internal/log"
)

func TestWriteJSONSetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, map[string]string{"k": "v"}, log.NewNop())

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("Content-Length") == "" {
		t.Error("Content-Length not set")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff header not set")
	}
}

func TestWriteJSONEncodingFailureIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	// Channels cannot be JSON-encoded
	writeJSON(rec, http.StatusOK, make(chan int), log.NewNop())

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "empty_query", "query must not be empty", log.NewNop())

	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Error.Code != "empty_query" {
		t.Errorf("code = %q", body.Error.Code)
	}
	if body.Error.Message != "query must not be empty" {
		t.Errorf("message = %q", body.Error.Message)
	}
}
