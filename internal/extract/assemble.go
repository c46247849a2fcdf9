package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Value is the result of one field extraction. Absent (Present=false) is
// distinct from the empty string: it means the selector matched nothing or
// the attribute was missing.
type Value struct {
	Str     string
	Present bool
}

// Record is one extracted item: the declared field order plus a value per
// field. Every record produced by a request carries all of its field names,
// absent ones included, so serialized output keeps a stable shape.
type Record struct {
	Fields []string
	Values map[string]Value
}

// Warnings tallies fields that could not be resolved, per field name.
// Misses are expected in heterogeneous scraped content; the tally is
// reported once after the run instead of interrupting it.
type Warnings struct {
	counts map[string]int
	total  int
}

func newWarnings() *Warnings {
	return &Warnings{counts: make(map[string]int)}
}

func (w *Warnings) add(field string) {
	w.counts[field]++
	w.total++
}

// Total returns the number of missing field values across the whole run.
func (w *Warnings) Total() int { return w.total }

// PerField returns a copy of the per-field miss counts.
func (w *Warnings) PerField() map[string]int {
	out := make(map[string]int, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}

// Summary renders the tally as a single line, fields sorted by name, e.g.
// "3 missing values (link=1 price=2)". Empty string when nothing is missing.
func (w *Warnings) Summary() string {
	if w.total == 0 {
		return ""
	}
	names := make([]string, 0, len(w.counts))
	for k := range w.counts {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", n, w.counts[n]))
	}
	return fmt.Sprintf("%d missing values (%s)", w.total, strings.Join(parts, " "))
}

// Assemble runs the compiled request against doc and emits one Record per
// matched item, in document order. No reordering, filtering, or
// deduplication happens here: the engine is a pure projection.
//
// If emit returns an error, assembly stops and that error is returned.
// Missing fields never abort the run; they are tallied in the returned
// Warnings.
func Assemble(doc *goquery.Document, c *Compiled, emit func(Record) error) (*Warnings, error) {
	warns := newWarnings()
	err := assemble(doc, c, warns, emit)
	return warns, err
}

func assemble(doc *goquery.Document, c *Compiled, warns *Warnings, emit func(Record) error) error {
	roots := doc.Selection
	if c.items != nil {
		roots = doc.FindMatcher(c.items)
	}

	var emitErr error
	roots.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if err := emit(c.record(item, warns)); err != nil {
			emitErr = err
			return false
		}
		return true
	})
	return emitErr
}

// record extracts every field from one item and assembles a flat Record.
func (c *Compiled) record(item *goquery.Selection, warns *Warnings) Record {
	names := make([]string, len(c.fields))
	vals := make(map[string]Value, len(c.fields))

	for i, f := range c.fields {
		names[i] = f.spec.Name

		s, ok := extractField(item, f)
		if !ok {
			warns.add(f.spec.Name)
			vals[f.spec.Name] = Value{}
			continue
		}
		if c.resolve && c.base != nil && fieldWantsURL(f.spec) {
			s = NormalizeURL(c.base, s)
		}
		vals[f.spec.Name] = Value{Str: s, Present: true}
	}

	return Record{Fields: names, Values: vals}
}

// ExtractHTML parses html and assembles records through emit.
func ExtractHTML(html string, c *Compiled, emit func(Record) error) (*Warnings, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return Assemble(doc, c, emit)
}

// ExtractAllHTML is the buffered convenience form of ExtractHTML.
func ExtractAllHTML(html string, c *Compiled) ([]Record, *Warnings, error) {
	var recs []Record
	warns, err := ExtractHTML(html, c, func(r Record) error {
		recs = append(recs, r)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return recs, warns, nil
}
