// Package datadog ships catprofile metrics to Datadog.
//
// Counters and stage-duration samples accumulate in memory. A background
// ticker submits them (every minute by default) and Close submits whatever is
// left, which is all a one-shot CLI run ever produces.
package datadog

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/catprofile/internal/metrics"
)

// Options configures NewBackend.
type Options struct {
	// JobName is sent as "job:<name>". Defaults to "catprofile".
	JobName string
	// Tags are appended to every series, e.g. "team:data".
	Tags []string
	// FlushEvery is the submit interval; <= 0 means one minute.
	FlushEvery time.Duration

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter submitter
}

type submitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// series describes how one internal metric is published.
type series struct {
	name  string
	label string
}

var (
	counters = map[string]series{
		metrics.ColumnsTotal:      {"catprofile.columns.total", "status"},
		metrics.ReportsTotal:      {"catprofile.reports.total", "mode"},
		metrics.HTTPRequestsTotal: {"catprofile.http.requests.total", "status"},
	}
	histograms = map[string]series{
		metrics.StageDurationSeconds: {"catprofile.stage.duration_seconds", "stage"},
	}
)

// stageSummary lists the gauges derived from a batch of duration samples.
var stageSummary = []struct {
	suffix string
	q      float64
}{
	{".p50", 0.50},
	{".p90", 0.90},
	{".p95", 0.95},
	{".p99", 0.99},
	{".max", 1},
}

type key struct {
	metric, tag string
}

// Backend is a metrics.Backend buffering into memory and submitting to Datadog.
type Backend struct {
	api  submitter
	ctx  context.Context
	tags []string

	flushEvery time.Duration
	now        func() time.Time
	newTicker  func(d time.Duration) *time.Ticker
	stop       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once

	mu      sync.Mutex
	counts  map[key]float64
	samples map[key][]float64
}

var _ metrics.Backend = (*Backend)(nil)

// envTag reads the deployment environment from ENV, then DD_ENV.
func envTag() string {
	for _, name := range []string{"ENV", "DD_ENV"} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return "env:" + v
		}
	}
	return "env:unknown"
}

// NewBackend starts a backend on the official API client, which reads
// DD_API_KEY and DD_SITE from the environment. Submission errors are returned
// by Flush and Close.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	if parent == nil {
		return nil, fmt.Errorf("datadog metrics init: nil context")
	}
	job := cmp.Or(opts.JobName, "catprofile")
	b := &Backend{
		api:        opts.submitter,
		ctx:        dd.NewDefaultContext(parent),
		tags:       append([]string{envTag(), "job:" + job}, opts.Tags...),
		flushEvery: opts.FlushEvery,
		now:        opts.now,
		newTicker:  opts.newTicker,
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		counts:     make(map[key]float64),
		samples:    make(map[key][]float64),
	}
	if b.flushEvery <= 0 {
		b.flushEvery = time.Minute
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newTicker == nil {
		b.newTicker = time.NewTicker
	}
	if b.api == nil {
		b.api = datadogV2.NewMetricsApi(dd.NewAPIClient(dd.NewConfiguration()))
	}
	go b.run()
	return b, nil
}

func (b *Backend) run() {
	defer close(b.stopped)
	t := b.newTicker(b.flushEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stop:
			return
		}
	}
}

// Close stops the ticker and flushes. Calling it again only flushes.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		close(b.stop)
		<-b.stopped
	})
	return b.Flush()
}

// IncCounter buffers a positive delta for a known counter.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	s, ok := counters[name]
	if !ok || delta <= 0 {
		return
	}
	k := key{name, tagValue(labels, s.label)}
	b.mu.Lock()
	b.counts[k] += delta
	b.mu.Unlock()
}

// ObserveHistogram buffers a non-negative sample for a known histogram.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	s, ok := histograms[name]
	if !ok || value < 0 {
		return
	}
	k := key{name, tagValue(labels, s.label)}
	b.mu.Lock()
	b.samples[k] = append(b.samples[k], value)
	b.mu.Unlock()
}

func tagValue(labels metrics.Labels, label string) string {
	return cmp.Or(strings.TrimSpace(labels[label]), "unknown")
}

// Flush submits and clears the buffers. The buffers are cleared even when
// the submission fails; an empty buffer submits nothing.
func (b *Backend) Flush() error {
	b.mu.Lock()
	counts, samples := b.counts, b.samples
	b.counts, b.samples = make(map[key]float64), make(map[key][]float64)
	b.mu.Unlock()

	if len(counts) == 0 && len(samples) == 0 {
		return nil
	}
	body := datadogV2.MetricPayload{Series: b.buildSeries(counts, samples, b.now().Unix())}
	if _, _, err := b.api.SubmitMetrics(b.ctx, body, *datadogV2.NewSubmitMetricsOptionalParameters()); err != nil {
		return fmt.Errorf("datadog submit: %w", err)
	}
	return nil
}

// buildSeries emits counters first, then stage summaries, each ordered by
// metric and tag.
func (b *Backend) buildSeries(counts map[key]float64, samples map[key][]float64, ts int64) []datadogV2.MetricSeries {
	out := make([]datadogV2.MetricSeries, 0, len(counts)+(len(stageSummary)+1)*len(samples))
	count, gauge := datadogV2.METRICINTAKETYPE_COUNT, datadogV2.METRICINTAKETYPE_GAUGE

	for _, k := range ordered(counts) {
		s := counters[k.metric]
		out = append(out, b.point(s.name, count, counts[k], s.label+":"+k.tag, ts))
	}
	for _, k := range ordered(samples) {
		vals := slices.Clone(samples[k])
		if len(vals) == 0 {
			continue
		}
		sort.Float64s(vals)
		s := histograms[k.metric]
		tag := s.label + ":" + k.tag
		for _, g := range stageSummary {
			out = append(out, b.point(s.name+g.suffix, gauge, stat.Quantile(g.q, stat.Empirical, vals, nil), tag, ts))
		}
		out = append(out, b.point(s.name+".samples", gauge, float64(len(vals)), tag, ts))
	}
	return out
}

func (b *Backend) point(metric string, typ datadogV2.MetricIntakeType, v float64, tag string, ts int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   typ.Ptr(),
		Points: []datadogV2.MetricPoint{{Timestamp: dd.PtrInt64(ts), Value: dd.PtrFloat64(v)}},
		Tags:   append(slices.Clip(b.tags), tag),
	}
}

func ordered[V any](m map[key]V) []key {
	return slices.SortedFunc(maps.Keys(m), func(a, c key) int {
		return cmp.Or(cmp.Compare(a.metric, c.metric), cmp.Compare(a.tag, c.tag))
	})
}

// ParseTagsCSV splits "env:prod, team:data" into trimmed, non-empty tags.
func ParseTagsCSV(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
