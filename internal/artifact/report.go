package artifact

import (
	"fmt"
	"io"
	"sync"
)

// Outcome is the status printed for one checked artifact.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeCorrupt    Outcome = "corrupt"
	OutcomeMissing    Outcome = "missing"
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeFailed     Outcome = "failed"
)

// Reporter receives one status per checked or downloaded artifact.
// Implementations must be safe for concurrent use.
type Reporter interface {
	Report(path string, outcome Outcome, err error)
}

type nopReporter struct{}

func (nopReporter) Report(string, Outcome, error) {}

// LineReporter writes one line per status, e.g. "corrupt    libs/a.jar".
type LineReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineReporter returns a LineReporter writing to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

func (r *LineReporter) Report(path string, outcome Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		fmt.Fprintf(r.w, "%-10s %s: %v\n", outcome, path, err)
		return
	}
	fmt.Fprintf(r.w, "%-10s %s\n", outcome, path)
}

// Tally counts outcomes. It is mostly useful for summaries and tests.
type Tally struct {
	mu     sync.Mutex
	counts map[Outcome]int
	paths  map[Outcome][]string
}

func (t *Tally) Report(path string, outcome Outcome, _ error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.counts == nil {
		t.counts = make(map[Outcome]int)
		t.paths = make(map[Outcome][]string)
	}
	t.counts[outcome]++
	t.paths[outcome] = append(t.paths[outcome], path)
}

// Count returns how many artifacts were reported with outcome.
func (t *Tally) Count(outcome Outcome) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[outcome]
}

// Paths returns the artifacts reported with outcome, in report order.
func (t *Tally) Paths(outcome Outcome) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.paths[outcome]...)
}

// Multi fans a status out to several reporters.
type Multi []Reporter

func (m Multi) Report(path string, outcome Outcome, err error) {
	for _, r := range m {
		r.Report(path, outcome, err)
	}
}
