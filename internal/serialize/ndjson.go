package serialize

import (
	"fmt"
	"io"

	"scrape/internal/extract"
)

// ndjsonWriter emits one JSON object per line, immediately, without
// buffering. There is no global schema pass here; each line carries its own
// record's keys, which is what lets this format stream arbitrarily many
// records in constant memory.
type ndjsonWriter struct {
	w io.Writer
}

func newNDJSONWriter(w io.Writer) *ndjsonWriter {
	return &ndjsonWriter{w: w}
}

func (n *ndjsonWriter) Write(rec extract.Record) error {
	buf := appendObjectJSON(nil, rec.Fields, rec.Values)
	buf = append(buf, '\n')
	if _, err := n.w.Write(buf); err != nil {
		return fmt.Errorf("write ndjson: %w", err)
	}
	return nil
}

func (n *ndjsonWriter) Close() error { return nil }
