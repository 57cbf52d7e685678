package suggestion

import (
	"encoding/json"
	"testing"
	"time"
)

// The JSON field names are a compatibility contract with the services that
// consume this collection.
func TestRecordWireFieldNames(t *testing.T) {
	rec := Record{
		ID:        "suggestion-1",
		Question:  "q",
		Answer:    "a",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	for _, key := range []string{"Id", "question", "answer", "time"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("wire field %q missing from %s", key, data)
		}
	}
	if len(fields) != 4 {
		t.Errorf("unexpected extra fields in %s", data)
	}
}
