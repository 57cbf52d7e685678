package chatlog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dcaohuy/domainchat/internal/log"
)

// fakeDB implements DB with canned records and error injection.
type fakeDB struct {
	records  []Record
	execErr  error
	queryErr error

	execSQL  []string
	execArgs [][]any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{records: f.records}, nil
}

// fakeRows implements pgx.Rows over a record slice.
type fakeRows struct {
	records []Record
	pos     int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	rec := r.records[r.pos-1]
	nodesJSON, err := json.Marshal(rec.RetrievedNodes)
	if err != nil {
		return err
	}
	*(dest[0].(*string)) = rec.ID
	*(dest[1].(*string)) = rec.Query
	*(dest[2].(*string)) = rec.Answer
	*(dest[3].(*[]byte)) = nodesJSON
	*(dest[4].(*bool)) = rec.IsOutOfDomain
	*(dest[5].(*time.Time)) = rec.CreatedAt
	return nil
}

func TestAddChatDomainInsertsGeneratedID(t *testing.T) {
	db := &fakeDB{}
	store := New(db, log.NewNop())

	err := store.AddChatDomain(context.Background(), "what is X", "X is Y", []string{"node a", "node b"}, false)
	if err != nil {
		t.Fatalf("AddChatDomain returned error: %v", err)
	}

	if len(db.execArgs) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(db.execArgs))
	}
	args := db.execArgs[0]
	id, _ := args[0].(string)
	if !strings.HasPrefix(id, "chatdomain-") {
		t.Errorf("ID %q missing chatdomain- prefix", id)
	}
	if args[1] != "what is X" || args[2] != "X is Y" {
		t.Errorf("query/answer args = %v, %v", args[1], args[2])
	}

	var nodes []string
	if err := json.Unmarshal(args[3].([]byte), &nodes); err != nil {
		t.Fatalf("nodes arg is not valid JSON: %v", err)
	}
	if len(nodes) != 2 || nodes[0] != "node a" {
		t.Errorf("nodes roundtrip = %v", nodes)
	}
	if args[4] != false {
		t.Errorf("is_out_of_domain arg = %v", args[4])
	}
}

func TestAddChatDomainNilNodes(t *testing.T) {
	db := &fakeDB{}
	store := New(db, log.NewNop())

	if err := store.AddChatDomain(context.Background(), "q", "a", nil, true); err != nil {
		t.Fatalf("AddChatDomain with nil nodes returned error: %v", err)
	}
}

func TestAddChatDomainPropagatesExecError(t *testing.T) {
	wantErr := errors.New("connection refused")
	store := New(&fakeDB{execErr: wantErr}, log.NewNop())

	err := store.AddChatDomain(context.Background(), "q", "a", nil, false)
	if !errors.Is(err, wantErr) {
		t.Errorf("AddChatDomain error = %v, want wrapped %v", err, wantErr)
	}
}

func TestRecentReturnsRecords(t *testing.T) {
	db := &fakeDB{records: []Record{
		{ID: "chatdomain-1", Query: "q1", Answer: "a1", RetrievedNodes: []string{"n1"}, CreatedAt: time.Now()},
		{ID: "chatdomain-2", Query: "q2", Answer: "a2", IsOutOfDomain: true, CreatedAt: time.Now()},
	}}
	store := New(db, log.NewNop())

	records, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "chatdomain-1" || len(records[0].RetrievedNodes) != 1 {
		t.Errorf("first record = %+v", records[0])
	}
	if !records[1].IsOutOfDomain {
		t.Error("second record should be out of domain")
	}
}

func TestRecentRejectsInvalidLimit(t *testing.T) {
	store := New(&fakeDB{}, log.NewNop())

	for _, limit := range []int32{0, -1, 1001} {
		if _, err := store.Recent(context.Background(), limit); err == nil {
			t.Errorf("Recent(%d) should return error", limit)
		}
	}
}

func TestRecentPropagatesQueryError(t *testing.T) {
	wantErr := errors.New("pool closed")
	store := New(&fakeDB{queryErr: wantErr}, log.NewNop())

	if _, err := store.Recent(context.Background(), 5); !errors.Is(err, wantErr) {
		t.Errorf("Recent error = %v, want wrapped %v", err, wantErr)
	}
}
