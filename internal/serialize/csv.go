package serialize

import (
	"encoding/csv"
	"fmt"
	"io"

	"scrape/internal/extract"
)

// csvWriter buffers records until Close, then writes a header row covering
// the union of all field names (first-seen order) and one row per record.
// Absent values become empty cells.
type csvWriter struct {
	w        io.Writer
	declared []string
	recs     []extract.Record
}

func newCSVWriter(w io.Writer, declared []string) *csvWriter {
	return &csvWriter{w: w, declared: declared}
}

func (c *csvWriter) Write(rec extract.Record) error {
	c.recs = append(c.recs, rec)
	return nil
}

func (c *csvWriter) Close() error {
	cols := unionColumns(c.declared, c.recs)

	cw := csv.NewWriter(c.w)
	// The header is written even for zero records so downstream tooling
	// always sees the declared schema.
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(cols))
	for _, rec := range c.recs {
		for i, col := range cols {
			row[i] = rec.Values[col].Str
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
