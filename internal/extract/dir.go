package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SourceFileField is the extra field appended to each record in directory
// mode, carrying the name of the file the record came from.
const SourceFileField = "source_file"

// ExtractDir assembles records from every file in dir, in filename order,
// and appends a source_file field to each record.
//
// Unreadable or unparseable files are skipped so one bad file cannot stop
// a batch. Subdirectories are ignored.
func ExtractDir(dir string, c *Compiled, emit func(Record) error) (*Warnings, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	warns := newWarnings()

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(b)))
		if err != nil {
			continue
		}

		name := e.Name()
		err = assemble(doc, c, warns, func(rec Record) error {
			return emit(withSourceFile(rec, name))
		})
		if err != nil {
			return warns, err
		}
	}

	return warns, nil
}

// withSourceFile appends the source_file field unless the request already
// declares a field by that name.
func withSourceFile(rec Record, name string) Record {
	if _, taken := rec.Values[SourceFileField]; taken {
		return rec
	}
	rec.Fields = append(rec.Fields, SourceFileField)
	rec.Values[SourceFileField] = Value{Str: name, Present: true}
	return rec
}
