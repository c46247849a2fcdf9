package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"scrape/internal/extract"
)

// jsonWriter buffers records until Close, then emits a single JSON array.
// Every object carries the full key superset across all records, with null
// for absent or missing fields, so the array has one stable schema.
type jsonWriter struct {
	w        io.Writer
	declared []string
	recs     []extract.Record
}

func newJSONWriter(w io.Writer, declared []string) *jsonWriter {
	return &jsonWriter{w: w, declared: declared}
}

func (j *jsonWriter) Write(rec extract.Record) error {
	j.recs = append(j.recs, rec)
	return nil
}

func (j *jsonWriter) Close() error {
	cols := unionColumns(j.declared, j.recs)

	buf := []byte{'['}
	for i, rec := range j.recs {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendObjectJSON(buf, cols, rec.Values)
	}
	buf = append(buf, ']', '\n')

	if _, err := j.w.Write(buf); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// appendObjectJSON renders one JSON object with the given keys in order,
// null for keys the value map lacks or holds as absent. encoding/json
// cannot order map keys, so framing is written by hand and only string
// encoding is delegated.
func appendObjectJSON(dst []byte, keys []string, values map[string]extract.Value) []byte {
	dst = append(dst, '{')
	for i, name := range keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendJSONString(dst, name)
		dst = append(dst, ':')

		v := values[name]
		if !v.Present {
			dst = append(dst, "null"...)
			continue
		}
		dst = appendJSONString(dst, v.Str)
	}
	return append(dst, '}')
}

// appendJSONString appends s as a JSON string literal without HTML escaping,
// matching how the rest of this tool emits JSON.
func appendJSONString(dst []byte, s string) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail.
	_ = enc.Encode(s)
	return append(dst, bytes.TrimRight(b.Bytes(), "\n")...)
}
