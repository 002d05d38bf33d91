// Package metrics is the backend-neutral instrumentation surface used by the
// profiling pipeline and the HTTP server.
package metrics

// Labels are metric dimensions, e.g. {"stage": "attributes"}.
type Labels map[string]string

// Metric names emitted by catprofile.
const (
	StageDurationSeconds = "catprofile_stage_duration_seconds"
	ColumnsTotal         = "catprofile_columns_total"
	ReportsTotal         = "catprofile_reports_total"
	HTTPRequestsTotal    = "catprofile_http_requests_total"
)

// Backend receives counters and histogram samples. Implementations must be
// safe for concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
	Close() error
}

// Nop drops everything.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }
func (Nop) Close() error                             { return nil }

var _ Backend = Nop{}
