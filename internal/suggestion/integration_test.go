package suggestion

import (
	"context"
	"errors"
	"testing"

	"github.com/dcaohuy/domainchat/internal/log"
	"github.com/dcaohuy/domainchat/internal/testutil"
)

func TestStoreAgainstPostgres(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := New(db.Pool, log.NewNop())

	// Two inserts with the same question: two distinct records.
	if err := store.Insert(ctx, "Tell me a joke", "first answer"); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if err := store.Insert(ctx, "Tell me a joke", "second answer"); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	all := store.All()
	if len(all) != 2 {
		t.Fatalf("records = %d, want 2", len(all))
	}
	if all[0].ID == all[1].ID {
		t.Error("duplicate questions must still get distinct IDs")
	}
	for _, rec := range all {
		if rec.CreatedAt.IsZero() {
			t.Errorf("record %s has no write-time timestamp", rec.ID)
		}
	}

	// Lookup returns the oldest match.
	rec, err := store.FindByQuestion(ctx, "Tell me a joke")
	if err != nil {
		t.Fatalf("FindByQuestion returned error: %v", err)
	}
	if rec.Answer != "first answer" {
		t.Errorf("answer = %q, want the oldest record", rec.Answer)
	}

	if _, err := store.FindByQuestion(ctx, "never asked"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Delete: one row, then zero rows.
	deleted, err := store.Delete(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	deleted, err = store.Delete(ctx, rec.ID)
	if err != nil {
		t.Fatalf("repeat Delete must not error, got %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0 on repeat", deleted)
	}
}
