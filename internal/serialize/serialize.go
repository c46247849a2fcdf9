// Package serialize writes extracted records as CSV, JSON, or NDJSON.
//
// CSV and JSON need the full record set before anything can be emitted (CSV
// to compute the column superset, JSON for array framing with a stable
// schema), so their writers buffer internally and emit on Close. NDJSON has
// no global schema and streams each record as it arrives.
package serialize

import (
	"errors"
	"fmt"
	"io"

	"scrape/internal/extract"
)

// Format selects the output serialization.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
)

// ErrUnsupportedFormat is returned by NewWriter for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// RecordWriter consumes records one at a time. Callers must Close to flush;
// for the buffered formats nothing is written before Close.
type RecordWriter interface {
	Write(rec extract.Record) error
	Close() error
}

// NewWriter returns a RecordWriter for format writing to w.
//
// declared is the request's field names in order; it seeds the CSV header
// and the JSON key superset so a run with zero records still reflects the
// declared columns.
func NewWriter(w io.Writer, format Format, declared []string) (RecordWriter, error) {
	switch format {
	case FormatCSV:
		return newCSVWriter(w, declared), nil
	case FormatJSON:
		return newJSONWriter(w, declared), nil
	case FormatNDJSON:
		return newNDJSONWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// unionColumns returns the first-seen-ordered union of declared names and
// every field name appearing in recs.
func unionColumns(declared []string, recs []extract.Record) []string {
	cols := make([]string, 0, len(declared))
	seen := make(map[string]struct{}, len(declared))

	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		cols = append(cols, name)
	}

	for _, name := range declared {
		add(name)
	}
	for _, rec := range recs {
		for _, name := range rec.Fields {
			add(name)
		}
	}
	return cols
}
