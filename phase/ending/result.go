package ending

import (
	"fmt"
	"strings"
	"time"

	"github.com/quartzproof/rigprep/common"
	rigtime "github.com/quartzproof/rigprep/time"
)

// StepRecord holds one step's outcome inside a run.
type StepRecord struct {
	Name     string
	State    common.StepState
	Duration time.Duration
	Message  string // result line on success or skip, error text otherwise
}

// RunOutcome aggregates everything a phase run produced: the per-step
// records, the failure that stopped it (if any), and the distinct
// benchmark-failure marker the exit code is derived from.
type RunOutcome struct {
	RunID           string
	Phase           string
	StartedAt       time.Time
	Duration        time.Duration
	Steps           []StepRecord
	PreconditionErr error
	BenchmarkFailed bool
	Err             error
}

// NewRunOutcome starts an outcome for one phase invocation.
func NewRunOutcome(runID, phase string) *RunOutcome {
	return &RunOutcome{
		RunID:     runID,
		Phase:     phase,
		StartedAt: time.Now(),
		Steps:     make([]StepRecord, 0),
	}
}

// Finish stamps the total duration. Safe to call exactly once, typically
// deferred by the runner.
func (o *RunOutcome) Finish() {
	o.Duration = time.Since(o.StartedAt).Round(time.Millisecond)
}

// Failed reports whether the run as a whole must be treated as failed.
// A benchmark-only failure is not counted here: provisioning succeeded
// and only the exit code tells the operator to look at the benchmark.
func (o *RunOutcome) Failed() bool {
	return o.PreconditionErr != nil || o.Err != nil
}

// ExitCode maps the outcome onto the process exit codes.
func (o *RunOutcome) ExitCode() int {
	switch {
	case o.PreconditionErr != nil:
		return common.ExitPreconditionFailed
	case o.Err != nil:
		return common.ExitStepFailed
	case o.BenchmarkFailed:
		return common.ExitBenchmarkFailed
	default:
		return common.ExitSuccess
	}
}

// Summary renders the run as an operator-facing table, one line per step
// plus a closing result line.
func (o *RunOutcome) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "phase %s finished in %s (run %s)\n", o.Phase, rigtime.ShortDur(o.Duration), o.RunID)
	for _, s := range o.Steps {
		fmt.Fprintf(&b, "  %-8s %-14s %8s  %s\n", s.State, s.Name, rigtime.ShortDur(s.Duration), s.Message)
	}
	switch {
	case o.PreconditionErr != nil:
		fmt.Fprintf(&b, "result: REFUSED, precondition failed: %v\n", o.PreconditionErr)
	case o.Err != nil:
		fmt.Fprintf(&b, "result: FAILED: %v\n", o.Err)
	case o.BenchmarkFailed:
		b.WriteString("result: PROVISIONED, BENCHMARK FAILED, see the benchmark step above\n")
	default:
		b.WriteString("result: SUCCESS\n")
	}
	return b.String()
}
