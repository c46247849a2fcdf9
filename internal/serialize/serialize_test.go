package serialize

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"scrape/internal/extract"
)

func rec(pairs ...[2]string) extract.Record {
	r := extract.Record{Values: make(map[string]extract.Value)}
	for _, p := range pairs {
		r.Fields = append(r.Fields, p[0])
		if p[1] == "\x00" { // sentinel for absent
			r.Values[p[0]] = extract.Value{}
			continue
		}
		r.Values[p[0]] = extract.Value{Str: p[1], Present: true}
	}
	return r
}

func writeAll(t *testing.T, format Format, declared []string, recs ...extract.Record) string {
	t.Helper()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, format, declared)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, r := range recs {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.String()
}

// TestNewWriter_UnsupportedFormat verifies unknown formats fail before any
// record is consumed.
func TestNewWriter_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(&bytes.Buffer{}, Format("xml"), nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// TestCSV_HeterogeneousRecords pins the column-superset contract: record A
// has {x,y}, record B has {x,z}, so the header is x,y,z with empty cells
// for absent values.
func TestCSV_HeterogeneousRecords(t *testing.T) {
	t.Parallel()

	a := rec([2]string{"x", "1"}, [2]string{"y", "2"})
	b := rec([2]string{"x", "3"}, [2]string{"z", "4"})

	got := writeAll(t, FormatCSV, []string{"x", "y"}, a, b)
	want := "x,y,z\n1,2,\n3,,4\n"
	if got != want {
		t.Fatalf("csv output:\n got %q\nwant %q", got, want)
	}
}

// TestCSV_ZeroRecords verifies the header row is written even when nothing
// matched, using the declared field names.
func TestCSV_ZeroRecords(t *testing.T) {
	t.Parallel()

	got := writeAll(t, FormatCSV, []string{"title", "price"})
	if got != "title,price\n" {
		t.Fatalf("expected bare header, got %q", got)
	}
}

// TestCSV_AbsentIsEmptyCell verifies absent values serialize as empty
// strings, not as a literal marker.
func TestCSV_AbsentIsEmptyCell(t *testing.T) {
	t.Parallel()

	r := rec([2]string{"a", "v"}, [2]string{"b", "\x00"})
	got := writeAll(t, FormatCSV, []string{"a", "b"}, r)
	if got != "a,b\nv,\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

// TestJSON_NullForAbsent verifies the array framing and the null-for-absent
// rule that keeps every object the same shape.
func TestJSON_NullForAbsent(t *testing.T) {
	t.Parallel()

	a := rec([2]string{"x", "1"}, [2]string{"y", "\x00"})
	b := rec([2]string{"x", "2"}, [2]string{"y", "3"})

	got := writeAll(t, FormatJSON, []string{"x", "y"}, a, b)

	var parsed []map[string]any
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("output is not valid json: %v; out=%q", err, got)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(parsed))
	}
	if v, ok := parsed[0]["y"]; !ok || v != nil {
		t.Fatalf("absent field should be explicit null, got %#v (present=%v)", v, ok)
	}
	if parsed[1]["y"] != "3" {
		t.Fatalf("unexpected y: %#v", parsed[1]["y"])
	}
}

// TestJSON_HeterogeneousRecords pins the stable-schema rule for the array
// format: record A has {x,y}, record B has {x,z}, and every object still
// carries all of x, y, z with null for the keys its record lacks.
func TestJSON_HeterogeneousRecords(t *testing.T) {
	t.Parallel()

	a := rec([2]string{"x", "1"}, [2]string{"y", "2"})
	b := rec([2]string{"x", "3"}, [2]string{"z", "4"})

	got := writeAll(t, FormatJSON, []string{"x", "y"}, a, b)
	want := "[{\"x\":\"1\",\"y\":\"2\",\"z\":null},{\"x\":\"3\",\"y\":null,\"z\":\"4\"}]\n"
	if got != want {
		t.Fatalf("json output:\n got %q\nwant %q", got, want)
	}
}

// TestJSON_PreservesFieldOrder verifies object keys follow declaration
// order, which encoding/json alone cannot guarantee for maps.
func TestJSON_PreservesFieldOrder(t *testing.T) {
	t.Parallel()

	r := rec([2]string{"zulu", "1"}, [2]string{"alpha", "2"}, [2]string{"mike", "3"})
	got := writeAll(t, FormatJSON, []string{"zulu", "alpha", "mike"}, r)

	want := "[{\"zulu\":\"1\",\"alpha\":\"2\",\"mike\":\"3\"}]\n"
	if got != want {
		t.Fatalf("json output:\n got %q\nwant %q", got, want)
	}
}

// TestJSON_EmptyInput verifies zero records produce an empty array, not
// empty output.
func TestJSON_EmptyInput(t *testing.T) {
	t.Parallel()

	if got := writeAll(t, FormatJSON, []string{"x"}); got != "[]\n" {
		t.Fatalf("expected empty array, got %q", got)
	}
}

// TestNDJSON_Streams verifies NDJSON writes each record immediately, one
// object per line, before Close is ever called.
func TestNDJSON_Streams(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, FormatNDJSON, []string{"x", "y"})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	if err := w.Write(rec([2]string{"x", "1"}, [2]string{"y", "\x00"})); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("ndjson should write before Close")
	}
	if err := w.Write(rec([2]string{"x", "2"}, [2]string{"y", "b"})); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := "{\"x\":\"1\",\"y\":null}\n{\"x\":\"2\",\"y\":\"b\"}\n"
	if buf.String() != want {
		t.Fatalf("ndjson output:\n got %q\nwant %q", buf.String(), want)
	}
}

// TestJSON_NoHTMLEscaping verifies angle brackets survive serialization,
// since extracted values frequently contain markup fragments and URLs with
// ampersands.
func TestJSON_NoHTMLEscaping(t *testing.T) {
	t.Parallel()

	r := rec([2]string{"v", "<b>&</b>"})
	got := writeAll(t, FormatNDJSON, []string{"v"}, r)
	if got != "{\"v\":\"<b>&</b>\"}\n" {
		t.Fatalf("unexpected escaping: %q", got)
	}
}

// TestUnionColumns verifies first-seen ordering across declared names and
// record fields.
func TestUnionColumns(t *testing.T) {
	t.Parallel()

	a := rec([2]string{"x", "1"}, [2]string{"q", "2"})
	got := unionColumns([]string{"x", "y"}, []extract.Record{a})
	want := []string{"x", "y", "q"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unionColumns = %v, want %v", got, want)
	}
}

// TestIdempotence verifies running serialization twice over the same records
// yields byte-identical output.
func TestIdempotence(t *testing.T) {
	t.Parallel()

	recs := []extract.Record{
		rec([2]string{"x", "1"}, [2]string{"y", "\x00"}),
		rec([2]string{"x", "2"}, [2]string{"y", "3"}),
	}
	for _, f := range []Format{FormatCSV, FormatJSON, FormatNDJSON} {
		one := writeAll(t, f, []string{"x", "y"}, recs...)
		two := writeAll(t, f, []string{"x", "y"}, recs...)
		if one != two {
			t.Fatalf("%s: output not deterministic", f)
		}
	}
}
