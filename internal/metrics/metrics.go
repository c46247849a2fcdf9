// Package metrics defines the minimal metrics surface the scrape command
// emits to. The core extraction code never talks to a vendor SDK directly;
// it depends only on Backend, with the Datadog implementation living in a
// subpackage.
package metrics

// Labels are free-form metric tags (e.g. {"field": "price"}).
type Labels map[string]string

// Backend receives counters and histogram samples from a scrape run.
//
// Implementations must be safe for concurrent use; the noop backend and any
// buffered backend qualify.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Noop discards all metrics. It is the default backend when metrics are not
// configured, so call sites never need nil checks.
type Noop struct{}

func (Noop) IncCounter(string, float64, Labels)       {}
func (Noop) ObserveHistogram(string, float64, Labels) {}

var _ Backend = Noop{}

// Metric names emitted by the scrape command.
const (
	CounterRecords       = "scrape_records_total"
	CounterFieldsMissing = "scrape_fields_missing_total"
	CounterHTTPRequests  = "scrape_http_requests_total"
	CounterHTTPErrors    = "scrape_http_errors_total"
	HistRunDuration      = "scrape_run_duration_seconds"
	HistHTTPDuration     = "scrape_http_request_duration_seconds"
)
