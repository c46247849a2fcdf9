package postgres

import (
	"reflect"
	"testing"
)

// TestBuildInsertSQL pins placeholder numbering and quoting, which is the
// part of this backend that can be verified without a server.
func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	stmt, args, err := buildInsertSQL("records", []string{"a", "b"}, [][]any{
		{"1", nil},
		{"3", "4"},
	})
	if err != nil {
		t.Fatalf("buildInsertSQL: %v", err)
	}

	want := `INSERT INTO "records" ("a", "b") VALUES ($1, $2), ($3, $4)`
	if stmt != want {
		t.Fatalf("sql:\n got %q\nwant %q", stmt, want)
	}
	if !reflect.DeepEqual(args, []any{"1", nil, "3", "4"}) {
		t.Fatalf("args: %#v", args)
	}
}

// TestBuildInsertSQL_WidthMismatch verifies bad rows fail fast.
func TestBuildInsertSQL_WidthMismatch(t *testing.T) {
	t.Parallel()

	if _, _, err := buildInsertSQL("t", []string{"a", "b"}, [][]any{{"x"}}); err == nil {
		t.Fatalf("expected error for short row")
	}
}

// TestRowsPerInsert verifies the chunk size keeps one statement under
// Postgres's 65535-parameter cap.
func TestRowsPerInsert(t *testing.T) {
	t.Parallel()

	if got := rowsPerInsert(4); got != maxInsertParams/4 {
		t.Fatalf("rowsPerInsert(4) = %d, want %d", got, maxInsertParams/4)
	}
	if got := rowsPerInsert(maxInsertParams + 1); got != 1 {
		t.Fatalf("wide rows must still insert one at a time, got %d", got)
	}
	for _, cols := range []int{1, 3, 7, 100} {
		if rowsPerInsert(cols)*cols > 65535 {
			t.Fatalf("%d columns: chunk of %d rows exceeds the parameter limit", cols, rowsPerInsert(cols))
		}
	}
}

// TestBuildCreateSQL pins DDL shape and identifier quoting.
func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	got, err := buildCreateSQL("rec\"ords", []string{"a"})
	if err != nil {
		t.Fatalf("buildCreateSQL: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "rec""ords" ("a" TEXT)`
	if got != want {
		t.Fatalf("ddl:\n got %q\nwant %q", got, want)
	}
}
