// Package profile computes the categorical profile of a dataset: frequency
// tables, memory accounting, Cramér's V associations and contingency tables,
// assembled into a default or interactive report model.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/KaramelBytes/catprofile/internal/dataset"
	"github.com/KaramelBytes/catprofile/internal/metrics"
	"github.com/KaramelBytes/catprofile/internal/prepare"
)

// Mode selects the report shape.
type Mode string

const (
	ModeDefault     Mode = "default"
	ModeInteractive Mode = "interactive"
)

// ParseMode validates a mode name; empty means ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModeInteractive:
		return ModeInteractive, nil
	default:
		return "", fmt.Errorf("unknown report mode %q (use default or interactive)", s)
	}
}

// Options tunes one profiling run.
type Options struct {
	Mode Mode
	// Title is the dataset display name; empty picks a per-mode placeholder.
	Title string
	// CatLimit is the maximum number of categories a column may have.
	CatLimit int
	// MissingValues extends DefaultMissingValues.
	MissingValues []string
	// AutoPrepare normalizes missing tokens and runs the Preparer first.
	AutoPrepare bool
	// Workers bounds the pair stage; 0 uses NumCPU.
	Workers int
}

// DefaultOptions returns the defaults of a mode: auto preparation is on for
// interactive reports only.
func DefaultOptions(mode Mode) Options {
	return Options{
		Mode:        mode,
		CatLimit:    DefaultCatLimit,
		AutoPrepare: mode == ModeInteractive,
	}
}

func (o Options) title() string {
	if o.Title != "" {
		return o.Title
	}
	if o.Mode == ModeInteractive {
		return "DataFrame"
	}
	return "<dataframe>"
}

// ChartRenderer draws the charts of the default report. Every call builds a
// fresh image from its arguments.
type ChartRenderer interface {
	MemoryBar(s MemorySeries) (*Chart, error)
	Histogram(title string, labels []string, counts []int) (*Chart, error)
	AssociationHeatmap(m *AssociationMatrix) (*Chart, error)
	CountHeatmap(t *ContingencyTable) (*Chart, error)
}

// Result carries the model of whichever mode ran.
type Result struct {
	Mode        Mode
	Default     *DefaultReport
	Interactive *InteractiveReport
}

// Model returns the populated report model.
func (r *Result) Model() any {
	if r.Mode == ModeInteractive {
		return r.Interactive
	}
	return r.Default
}

// Title returns the report title.
func (r *Result) Title() string {
	if r.Mode == ModeInteractive {
		return r.Interactive.Title
	}
	return r.Default.Title
}

// Pipeline wires the collaborators of a profiling run. Zero fields fall back
// to prepare.NewAuto, no charts, Nop progress and Nop metrics.
type Pipeline struct {
	Preparer prepare.Preparer
	Charts   ChartRenderer
	Progress Progress
	Metrics  metrics.Backend

	now func() time.Time
}

// Profile runs a pipeline with default collaborators.
func Profile(ctx context.Context, ds *dataset.Dataset, opt Options) (*Result, error) {
	var p Pipeline
	return p.Run(ctx, ds, opt)
}

// Run builds the report model selected by opt.Mode and announces StageDone
// once the model is complete. Writing the report is left to the caller.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset, opt Options) (*Result, error) {
	mode, err := ParseMode(string(opt.Mode))
	if err != nil {
		return nil, err
	}
	opt.Mode = mode
	res := &Result{Mode: mode}
	if mode == ModeInteractive {
		res.Interactive, err = p.BuildInteractive(ctx, ds, opt)
	} else {
		res.Default, err = p.BuildDefault(ctx, ds, opt)
	}
	if err != nil {
		return nil, err
	}
	p.metrics().IncCounter(metrics.ReportsTotal, 1, metrics.Labels{"mode": string(mode)})
	p.progress().Stage(StageDone, "")
	return res, nil
}

// BuildDefault produces the static report model: warnings for every
// rejected column, the variable table, per-variable details, the association
// matrix and one contingency heatmap per ordered column pair.
func (p *Pipeline) BuildDefault(ctx context.Context, ds *dataset.Dataset, opt Options) (*DefaultReport, error) {
	opt.Mode = ModeDefault
	ds, err := p.prepared(ds, opt)
	if err != nil {
		return nil, err
	}
	catLimit := opt.CatLimit
	if catLimit <= 0 {
		catLimit = DefaultCatLimit
	}
	prog := p.progress()

	prog.Note(fmt.Sprintf("Will limit to %d categories.", catLimit))
	for _, c := range ds.Columns {
		n, _ := distinctCategories(c, true)
		prog.Note(fmt.Sprintf("...variable %s has %d categories", c.Name, n))
	}
	kept, rejected := FilterColumns(ds, catLimit)
	for _, r := range rejected {
		prog.Warn(r.Message)
	}
	p.countColumns(len(kept.Columns), len(rejected))

	rep := &DefaultReport{
		RunID:     uuid.NewString(),
		Version:   Version,
		Title:     opt.title(),
		Generated: p.clock(),
		CatLimit:  catLimit,
		Warnings:  rejected,
	}

	start := time.Now()
	prog.Stage(StageAttributes, "")
	rep.Summary = summarize(kept)
	sizes := make([]ColumnSize, 0, len(kept.Columns))
	for i, c := range kept.Columns {
		prof := ProfileColumn(c)
		sizes = append(sizes, ColumnSize{Name: c.Name, Bytes: prof.MemoryBytes})
		rep.Variables = append(rep.Variables, variableSummary(c, prof))
		detail := VariableDetail{Index: i + 1, Profile: prof, Summary: summaryTable(prof)}
		if p.Charts != nil {
			labels, counts := histogram(c)
			if detail.Histogram, err = p.Charts.Histogram(c.Name, labels, counts); err != nil {
				return nil, fmt.Errorf("render histogram %s: %w", c.Name, err)
			}
		}
		rep.Details = append(rep.Details, detail)
	}
	rep.Memory = SummarizeMemory(sizes)
	if p.Charts != nil {
		if rep.MemoryChart, err = p.Charts.MemoryBar(rep.Memory); err != nil {
			return nil, fmt.Errorf("render memory chart: %w", err)
		}
	}
	p.observe(StageAttributes, start)

	start = time.Now()
	prog.Stage(StageOverall, "")
	pairs, err := ComputePairs(ctx, kept, opt.Workers)
	if err != nil {
		return nil, fmt.Errorf("compute associations: %w", err)
	}
	rep.Associations = pairs.Matrix
	if p.Charts != nil {
		if rep.OverallChart, err = p.Charts.AssociationHeatmap(pairs.Matrix); err != nil {
			return nil, fmt.Errorf("render association heatmap: %w", err)
		}
	}
	p.observe(StageOverall, start)

	start = time.Now()
	prog.Stage(StageIndividual, "")
	for i, a := range pairs.Columns {
		prog.Note(fmt.Sprintf("... for variable %s...", a))
		vc := VariableCorrelations{Variable: a}
		for j, b := range pairs.Columns {
			prog.Note(fmt.Sprintf("...... doing crosstab %s x %s", a, b))
			t := pairs.Table(i, j)
			hm := PairHeatmap{Row: a, Col: b, RowLabels: t.RowLabels(), ColLabels: t.ColLabels(), Counts: t.Dense()}
			if p.Charts != nil {
				if hm.Chart, err = p.Charts.CountHeatmap(t); err != nil {
					return nil, fmt.Errorf("render crosstab %s x %s: %w", a, b, err)
				}
			}
			vc.Pairs = append(vc.Pairs, hm)
		}
		rep.Correlations = append(rep.Correlations, vc)
	}
	p.observe(StageIndividual, start)

	prog.Stage(StageAssemble, "")
	return rep, nil
}

// BuildInteractive produces the client-side report model. Columns over the
// category limit are dropped without diagnostics.
func (p *Pipeline) BuildInteractive(ctx context.Context, ds *dataset.Dataset, opt Options) (*InteractiveReport, error) {
	opt.Mode = ModeInteractive
	ds, err := p.prepared(ds, opt)
	if err != nil {
		return nil, err
	}
	prog := p.progress()

	start := time.Now()
	prog.Stage(StageAttributes, "")
	kept := DropOverLimit(ds, opt.CatLimit)
	p.countColumns(len(kept.Columns), len(ds.Columns)-len(kept.Columns))
	rep := &InteractiveReport{
		RunID:            uuid.NewString(),
		Version:          Version,
		Title:            opt.title(),
		Generated:        p.clock(),
		CorrelationKeys:  []string{OverallKey},
		CorrelationsData: make(map[string][]Record),
	}
	for _, c := range kept.Columns {
		rep.AttributeProfiles = append(rep.AttributeProfiles, attributeProfile(ProfileColumn(c)))
	}
	sum := summarize(kept)
	rep.AttributeCount = sum.Columns
	rep.RecordsCount = sum.Records
	rep.MissingCount = sum.Missing
	rep.TotalRAM = sum.Memory
	p.observe(StageAttributes, start)

	start = time.Now()
	prog.Stage(StageOverall, "")
	pairs, err := ComputePairs(ctx, kept, opt.Workers)
	if err != nil {
		return nil, fmt.Errorf("compute associations: %w", err)
	}
	overall := make([]Record, 0, len(pairs.Columns)*len(pairs.Columns))
	for i, a := range pairs.Columns {
		for j, b := range pairs.Columns {
			overall = append(overall, Record{X: a, Y: b, V: Value(round3(pairs.Matrix.Values[i][j]))})
		}
	}
	rep.CorrelationsData[OverallKey] = overall
	p.observe(StageOverall, start)

	start = time.Now()
	prog.Stage(StageIndividual, "")
	for i, a := range pairs.Columns {
		for j, b := range pairs.Columns {
			key := PairKey(a, b)
			entries := pairs.Table(i, j).Entries()
			records := make([]Record, len(entries))
			for k, e := range entries {
				records[k] = Record{X: e.Row, Y: e.Col, V: Value(e.Count)}
			}
			rep.CorrelationKeys = append(rep.CorrelationKeys, key)
			rep.CorrelationsData[key] = records
		}
	}
	p.observe(StageIndividual, start)

	prog.Stage(StageAssemble, "")
	return rep, nil
}

// prepared validates ds and, when requested, normalizes missing tokens in
// place and hands the result to the Preparer.
func (p *Pipeline) prepared(ds *dataset.Dataset, opt Options) (*dataset.Dataset, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if !opt.AutoPrepare {
		return ds, nil
	}
	start := time.Now()
	p.progress().Stage(StagePrepare, "")
	n := NormalizeMissing(ds, opt.MissingValues)
	p.progress().Note(fmt.Sprintf("...replaced %d missing tokens", n))
	prep := p.Preparer
	if prep == nil {
		prep = prepare.NewAuto()
	}
	out, err := prep.Prepare(ds)
	if err != nil {
		return nil, fmt.Errorf("prepare dataset: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("prepare dataset: %w", err)
	}
	p.observe(StagePrepare, start)
	return out, nil
}

func summarize(ds *dataset.Dataset) Summary {
	mem := ds.MemoryUsage()
	return Summary{
		Records:     ds.Rows(),
		Columns:     len(ds.Columns),
		Missing:     ds.MissingCount(),
		MemoryBytes: mem,
		Memory:      HumanBytes(mem),
	}
}

func variableSummary(c *dataset.Column, prof ColumnProfile) VariableSummary {
	var names []string
	for _, cell := range dataset.Categories(c) {
		if !cell.Missing {
			names = append(names, cell.Value)
		}
	}
	return VariableSummary{
		Attribute:    c.Name,
		Categories:   len(names),
		CategoryList: strings.Join(names, ", "),
		MemoryBytes:  prof.MemoryBytes,
		Memory:       HumanBytes(prof.MemoryBytes),
	}
}

func summaryTable(prof ColumnProfile) SummaryTable {
	st := SummaryTable{
		Categories: humanize.Comma(int64(len(prof.Categories))),
		Missings:   fmt.Sprintf("%s (%.2f%%)", humanize.Comma(int64(prof.Missing)), prof.MissingPercent()),
		Memory:     HumanBytes(prof.MemoryBytes),
	}
	if prof.MostFrequent != nil {
		st.MostFrequent = frequentLabel(*prof.MostFrequent, prof.Rows)
	}
	if prof.LeastFrequent != nil {
		st.LeastFrequent = frequentLabel(*prof.LeastFrequent, prof.Rows)
	}
	return st
}

func frequentLabel(cc CategoryCount, rows int) string {
	pct := 0.0
	if rows > 0 {
		pct = float64(cc.Count) / float64(rows) * 100
	}
	return fmt.Sprintf("%s (%s values, %.2f%%)", cc.Category, humanize.Comma(int64(cc.Count)), pct)
}

// histogram lists the categories of c in natural order with their counts.
func histogram(c *dataset.Column) ([]string, []int) {
	counts := make(map[string]int)
	for _, cell := range c.Cells {
		counts[cell.Key()]++
	}
	cats := dataset.Categories(c)
	labels := make([]string, len(cats))
	values := make([]int, len(cats))
	for i, cell := range cats {
		labels[i] = cell.String()
		values[i] = counts[cell.Key()]
	}
	return labels, values
}

func attributeProfile(prof ColumnProfile) AttributeProfile {
	ap := AttributeProfile{
		Attribute:   prof.Name,
		Categories:  []string{},
		Counts:      []int{},
		Percentages: []float64{},
		Missing:     prof.Missing,
		RAM:         HumanBytes(prof.MemoryBytes),
	}
	for _, cc := range prof.Categories {
		if cc.Missing {
			continue
		}
		ap.Categories = append(ap.Categories, cc.Category)
		ap.Counts = append(ap.Counts, cc.Count)
		ap.Percentages = append(ap.Percentages, cc.Percent)
	}
	return ap
}

func (p *Pipeline) progress() Progress {
	if p.Progress == nil {
		return Nop{}
	}
	return p.Progress
}

func (p *Pipeline) metrics() metrics.Backend {
	if p.Metrics == nil {
		return metrics.Nop{}
	}
	return p.Metrics
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Pipeline) observe(s Stage, start time.Time) {
	p.metrics().ObserveHistogram(metrics.StageDurationSeconds, time.Since(start).Seconds(), metrics.Labels{"stage": s.String()})
}

func (p *Pipeline) countColumns(retained, rejected int) {
	m := p.metrics()
	m.IncCounter(metrics.ColumnsTotal, float64(retained), metrics.Labels{"status": "retained"})
	m.IncCounter(metrics.ColumnsTotal, float64(rejected), metrics.Labels{"status": "rejected"})
}
