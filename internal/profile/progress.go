package profile

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Stage is one of the fixed pipeline milestones.
type Stage int

const (
	StagePrepare Stage = iota + 1
	StageAttributes
	StageOverall
	StageIndividual
	StageAssemble
	StageDone
)

// StageCount is the number of milestones reported per run.
const StageCount = int(StageDone)

var stageMessages = map[Stage]string{
	StagePrepare:    "Preparing data...",
	StageAttributes: "Preparing attribute profiles...",
	StageOverall:    "Calculating overall correlations...",
	StageIndividual: "Calculating individual correlations...",
	StageAssemble:   "Preparing html report...",
	StageDone:       "Report finished...",
}

func (s Stage) String() string {
	switch s {
	case StagePrepare:
		return "prepare"
	case StageAttributes:
		return "attributes"
	case StageOverall:
		return "overall_correlations"
	case StageIndividual:
		return "individual_correlations"
	case StageAssemble:
		return "assemble"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Progress receives human-readable pipeline notifications. It is a side
// channel only; nothing in the report depends on it.
type Progress interface {
	// Stage announces a milestone. A non-empty msg replaces the default text.
	Stage(s Stage, msg string)
	Note(msg string)
	Warn(msg string)
}

// Nop discards progress.
type Nop struct{}

func (Nop) Stage(Stage, string) {}
func (Nop) Note(string)         {}
func (Nop) Warn(string)         {}

// WriterProgress prints "[mm:ss] Progress i/6: ..." lines to w.
type WriterProgress struct {
	mu      sync.Mutex
	w       io.Writer
	start   time.Time
	verbose bool
}

// NewWriterProgress returns a progress printer that timestamps relative to
// now. Notes are printed only when verbose is set.
func NewWriterProgress(w io.Writer, verbose bool) *WriterProgress {
	return &WriterProgress{w: w, start: time.Now(), verbose: verbose}
}

func (p *WriterProgress) Stage(s Stage, msg string) {
	if msg == "" {
		msg = stageMessages[s]
	}
	p.printf("Progress %d/%d: %s", int(s), StageCount, msg)
}

func (p *WriterProgress) Note(msg string) {
	if p.verbose {
		p.printf("%s", msg)
	}
}

func (p *WriterProgress) Warn(msg string) { p.printf("⚠ WARNING: %s", msg) }

func (p *WriterProgress) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60
	fmt.Fprintf(p.w, "[%02d:%02d] %s\n", mins, secs, fmt.Sprintf(format, args...))
}
