// Command scrape extracts structured records from HTML using declarative
// field rules and writes them as CSV, JSON, or NDJSON.
//
// Field rules (repeatable -field, "name:selector@mode" where mode is "text"
// or an attribute name):
//
//	cat page.html | scrape -item ".product_pod" \
//	    -field "title:h3 a@title" \
//	    -field "price:.price_color@text" \
//	    -field "link:h3 a@href" \
//	    -base "https://books.toscrape.com" -resolve-urls \
//	    -format csv
//
// Mapping file instead of flags:
//
//	scrape -url "https://example.com/list" -mappings fields.json -format ndjson
//
// Single-field legacy mode (one record per matched node):
//
//	cat page.html | scrape -selector "a" -attr href
//
// Directory mode (every HTML file in a directory, source_file added):
//
//	scrape -dir ./pages -mappings fields.json -format json
//
// Probe mode (print matches for a selector instead of extracting):
//
//	cat page.html | scrape -probe "div.card" -text
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"scrape/internal/extract"
	"scrape/internal/fetch"
	"scrape/internal/metrics"
	"scrape/internal/metrics/datadog"
	"scrape/internal/serialize"
	"scrape/internal/storage"
	_ "scrape/internal/storage/mssql"
	_ "scrape/internal/storage/postgres"
	_ "scrape/internal/storage/sqlite"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// multiFlag collects repeated -field values in declaration order.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// backendCloser is the minimal interface used to manage a metrics backend.
type backendCloser interface {
	metrics.Backend
	Close() error
}

type noopBackend struct{ metrics.Noop }

func (noopBackend) Close() error { return nil }

// run is split out from main so the command can be unit tested without
// spawning an OS process.
//
// Exit codes:
//   - 0 for success
//   - 2 for usage/config errors, including selector syntax errors (caught
//     before any record is emitted)
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var fields multiFlag
	fs.Var(&fields, "field", "Field rule \"name:selector@mode\" (repeatable; mode is \"text\" or an attribute name)")
	itemSel := fs.String("item", "", "Item scope selector; each match becomes one record (default: whole document)")
	mappingsPath := fs.String("mappings", "", "Path to a JSON mapping file (alternative to -field flags)")
	legacySel := fs.String("selector", "", "Legacy single-field mode: every match becomes a record")
	legacyAttr := fs.String("attr", "", "Legacy mode: attribute to extract (default: text content)")
	baseURL := fs.String("base", "", "Base URL for resolving relative URLs")
	resolveURLs := fs.Bool("resolve-urls", false, "Resolve relative URLs in href/src (and -url-fields) against -base")
	urlFields := fs.String("url-fields", "", "Comma-separated field names to treat as URLs regardless of attribute")

	urlFlag := fs.String("url", "", "Fetch HTML from URL instead of stdin")
	dirFlag := fs.String("dir", "", "Extract from every HTML file in a directory (adds source_file)")
	timeout := fs.Duration("timeout", 20*time.Second, "Timeout for -url fetch")

	format := fs.String("format", "json", "Output format: csv | json | ndjson")
	outPath := fs.String("out", "", "Write output to a file instead of stdout")

	probeSel := fs.String("probe", "", "Debug: print matches for a CSS selector instead of extracting")
	onlyText := fs.Bool("text", false, "Debug: with -probe, print text instead of outer HTML")

	storeKind := fs.String("store", "", "Also write records to a database: sqlite | postgres | mssql")
	storeDSN := fs.String("dsn", "", "DSN for -store")
	storeTable := fs.String("table", "records", "Table name for -store")

	metricsOn := fs.Bool("metrics", false, "Submit run metrics to Datadog (DD_API_KEY env)")
	metricsTags := fs.String("metrics-tags", "", "Extra Datadog tags, comma-separated (env:prod,site:books)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	var backend backendCloser = noopBackend{}
	if *metricsOn {
		dd, err := datadog.NewBackend(ctx, datadog.Options{
			Tags: datadog.ParseTagsCSV(*metricsTags),
		})
		if err != nil {
			fmt.Fprintf(stderr, "metrics init: %v\n", err)
			return 1
		}
		backend = dd
	}
	defer func() {
		if err := backend.Close(); err != nil {
			fmt.Fprintf(stderr, "metrics flush: %v\n", err)
		}
	}()

	loader := fetch.NewLoader(httpClient, *timeout)

	// Probe mode needs HTML input (stdin or url) but no field rules.
	if *probeSel != "" {
		html, err := loadHTML(ctx, loader, *urlFlag, stdin, backend)
		if err != nil {
			fmt.Fprintf(stderr, "load html: %v\n", err)
			return 1
		}
		if err := extract.PrintSelector(stdout, html, *probeSel, *onlyText); err != nil {
			fmt.Fprintf(stderr, "probe: %v\n", err)
			return 2
		}
		return 0
	}

	req, code := buildRequest(stderr, fields, *itemSel, *mappingsPath, *legacySel, *legacyAttr, *baseURL, *resolveURLs)
	if code != 0 {
		return code
	}
	markURLFields(&req, *urlFields)

	comp, err := req.Compile()
	if err != nil {
		// Selector syntax errors are caught here, before any item is
		// processed, so a bad request never produces partial output.
		fmt.Fprintf(stderr, "compile request: %v\n", err)
		return 2
	}

	out := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(stderr, "create %q: %v\n", *outPath, err)
			return 1
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	declared := comp.FieldNames()
	writer, err := serialize.NewWriter(out, serialize.Format(*format), declared)
	if err != nil {
		fmt.Fprintf(stderr, "output: %v\n", err)
		return 2
	}

	// Records are buffered for the database sink so a sink failure after
	// extraction cannot silently lose serialized output.
	var stored []extract.Record
	var count int
	emit := func(rec extract.Record) error {
		count++
		if *storeKind != "" {
			stored = append(stored, rec)
		}
		return writer.Write(rec)
	}

	started := time.Now()

	var warns *extract.Warnings
	if *dirFlag != "" {
		warns, err = extract.ExtractDir(*dirFlag, comp, emit)
	} else {
		var html string
		html, err = loadHTML(ctx, loader, *urlFlag, stdin, backend)
		if err != nil {
			fmt.Fprintf(stderr, "load html: %v\n", err)
			return 1
		}
		warns, err = extract.ExtractHTML(html, comp, emit)
	}
	if err != nil {
		fmt.Fprintf(stderr, "extract: %v\n", err)
		return 1
	}

	if err := writer.Close(); err != nil {
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}

	if *storeKind != "" {
		if err := storeRecords(ctx, *storeKind, *storeDSN, *storeTable, declared, stored); err != nil {
			fmt.Fprintf(stderr, "store: %v\n", err)
			return 1
		}
	}

	reportRun(stderr, backend, count, warns, time.Since(started))
	return 0
}

// buildRequest assembles the extraction request from whichever specification
// style the invocation used: a mapping file, -field flags, or the legacy
// -selector/-attr pair. The int is an exit code; nonzero means usage error.
func buildRequest(
	stderr io.Writer,
	fields multiFlag,
	itemSel, mappingsPath, legacySel, legacyAttr, baseURL string,
	resolveURLs bool,
) (extract.Request, int) {
	switch {
	case mappingsPath != "":
		mf, err := extract.LoadMappingFile(mappingsPath)
		if err != nil {
			fmt.Fprintf(stderr, "load mappings: %v\n", err)
			return extract.Request{}, 2
		}
		req := mf.Request()
		if baseURL != "" {
			req.BaseURL = baseURL
		}
		req.ResolveURLs = req.ResolveURLs || resolveURLs
		return req, 0

	case len(fields) > 0:
		req := extract.Request{
			ItemSelector: itemSel,
			BaseURL:      baseURL,
			ResolveURLs:  resolveURLs,
		}
		for _, f := range fields {
			spec, err := extract.ParseFieldSpec(f)
			if err != nil {
				fmt.Fprintf(stderr, "%v\n", err)
				return extract.Request{}, 2
			}
			req.Fields = append(req.Fields, spec)
		}
		return req, 0

	case legacySel != "":
		return extract.LegacyRequest(legacySel, legacyAttr, baseURL, resolveURLs), 0

	default:
		fmt.Fprintln(stderr, "nothing to extract: use -field/-item, -mappings, or -selector")
		return extract.Request{}, 2
	}
}

// markURLFields flags the named fields for URL resolution.
func markURLFields(req *extract.Request, csv string) {
	if csv == "" {
		return
	}
	names := make(map[string]struct{})
	for _, n := range strings.Split(csv, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names[n] = struct{}{}
		}
	}
	for i := range req.Fields {
		if _, ok := names[req.Fields[i].Name]; ok {
			req.Fields[i].URL = true
		}
	}
}

// loadHTML loads from stdin or fetches a URL, recording HTTP metrics for
// fetches.
func loadHTML(ctx context.Context, loader *fetch.Loader, url string, stdin io.Reader, backend metrics.Backend) (string, error) {
	if url == "" {
		return loader.Load(ctx, fetch.Input{Stdin: stdin})
	}

	started := time.Now()
	html, err := loader.Load(ctx, fetch.Input{URL: url})
	dur := time.Since(started).Seconds()

	status := "ok"
	if err != nil {
		status = "error"
		backend.IncCounter(metrics.CounterHTTPErrors, 1, metrics.Labels{"status": status})
	}
	backend.IncCounter(metrics.CounterHTTPRequests, 1, metrics.Labels{"status": status})
	backend.ObserveHistogram(metrics.HistHTTPDuration, dur, metrics.Labels{"status": status})

	return html, err
}

// storeRecords writes the buffered records into the configured database.
// Columns cover the union of field names across all records (first-seen
// order, declared fields first), normalized to SQL identifiers; absent
// values insert as NULL.
func storeRecords(ctx context.Context, kind, dsn, table string, declared []string, recs []extract.Record) error {
	repo, err := storage.New(ctx, storage.Config{Kind: kind, DSN: dsn})
	if err != nil {
		return err
	}
	defer repo.Close()

	names := unionFieldNames(declared, recs)
	columns := storage.NormalizeColumns(names)

	if err := repo.EnsureTable(ctx, table, columns); err != nil {
		return err
	}

	rows := make([][]any, 0, len(recs))
	for _, rec := range recs {
		row := make([]any, len(names))
		for i, name := range names {
			if v, ok := rec.Values[name]; ok && v.Present {
				row[i] = v.Str
			}
		}
		rows = append(rows, row)
	}

	_, err = repo.InsertRows(ctx, table, columns, rows)
	return err
}

func unionFieldNames(declared []string, recs []extract.Record) []string {
	names := make([]string, 0, len(declared))
	seen := make(map[string]struct{}, len(declared))

	add := func(n string) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}

	for _, n := range declared {
		add(n)
	}
	for _, rec := range recs {
		for _, n := range rec.Fields {
			add(n)
		}
	}
	return names
}

// reportRun prints the post-run warning summary to stderr and submits run
// metrics. Missing fields are warnings, never errors: scraped HTML is
// irregular and absent values are part of normal output.
func reportRun(stderr io.Writer, backend metrics.Backend, count int, warns *extract.Warnings, elapsed time.Duration) {
	backend.IncCounter(metrics.CounterRecords, float64(count), nil)
	backend.ObserveHistogram(metrics.HistRunDuration, elapsed.Seconds(), nil)

	if warns == nil || warns.Total() == 0 {
		return
	}
	for field, n := range warns.PerField() {
		backend.IncCounter(metrics.CounterFieldsMissing, float64(n), metrics.Labels{"field": field})
	}
	fmt.Fprintf(stderr, "warning: %s\n", warns.Summary())
}
