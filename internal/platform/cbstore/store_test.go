package cbstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/couchbase/gocb/v2"
)

func TestConnectionString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"couchbase://db.local", "couchbase://db.local"},
		{"couchbases://cb.cloud", "couchbases://cb.cloud"},
		{"http://localhost", "couchbase://localhost"},
		{"https://cb.cloud", "couchbases://cb.cloud"},
		{"127.0.0.1", "couchbase://127.0.0.1"},
	}
	for _, tt := range tests {
		if got := ConnectionString(tt.in); got != tt.want {
			t.Errorf("ConnectionString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConnect_RequiresURL(t *testing.T) {
	if _, err := Connect(Options{}); err == nil {
		t.Error("expected error for empty url")
	}
}

func TestKeyspace(t *testing.T) {
	if got := Keyspace("hms"); got != "`hms`" {
		t.Errorf("expected `hms`, got %s", got)
	}
	if got := Keyspace("we`ird"); got != "`we``ird`" {
		t.Errorf("expected escaped backtick, got %s", got)
	}
}

func TestDocID(t *testing.T) {
	if got := DocID("hospital", "APO1903"); got != "hospital/APO1903" {
		t.Errorf("unexpected doc id %q", got)
	}
}

func TestAttemptFromContext_Nil(t *testing.T) {
	if tac := AttemptFromContext(context.Background()); tac != nil {
		t.Error("expected nil attempt from empty context")
	}
	ctx := context.WithValue(context.Background(), attemptKey{}, "not-an-attempt")
	if tac := AttemptFromContext(ctx); tac != nil {
		t.Error("expected nil when context value is wrong type")
	}
}

func TestMapErr(t *testing.T) {
	if mapErr(nil) != nil {
		t.Error("expected nil")
	}
	if err := mapErr(fmt.Errorf("get: %w", gocb.ErrDocumentNotFound)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mapErr(gocb.ErrDocumentExists); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
	other := errors.New("timeout")
	if err := mapErr(other); err != other {
		t.Errorf("expected passthrough, got %v", err)
	}
}

func TestIndexStatements(t *testing.T) {
	stmts := IndexStatements("hms")
	if len(stmts) != len(indexes) {
		t.Fatalf("expected %d statements, got %d", len(indexes), len(stmts))
	}
	want := "CREATE INDEX `idx_type_created` IF NOT EXISTS ON `hms`(`type`, STR_TO_MILLIS(createdAt))"
	if stmts[0] != want {
		t.Errorf("unexpected statement:\n got %s\nwant %s", stmts[0], want)
	}
	for _, s := range stmts {
		if !strings.Contains(s, "IF NOT EXISTS") {
			t.Errorf("statement is not idempotent: %s", s)
		}
	}
}

func TestRows_Implementations(t *testing.T) {
	var _ Rows = txRows{}
	var _ Rows = (*gocb.QueryResult)(nil)

	rows := txRows{}
	if err := rows.Err(); err != nil {
		t.Errorf("expected nil Err, got %v", err)
	}
	if err := rows.Close(); err != nil {
		t.Errorf("expected nil Close, got %v", err)
	}
}
