package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/common"
	"github.com/quartzproof/rigprep/hook"
	"github.com/quartzproof/rigprep/phase/ending"
	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// Runner executes one phase: preconditions first, then every step in
// declared order, collecting a RunOutcome along the way.
type Runner struct {
	rt  runtime.Runtime
	log *logrus.Entry
}

// NewRunner creates a runner bound to one runtime and a logger already
// scoped with the run id.
func NewRunner(rt runtime.Runtime, log *logrus.Entry) *Runner {
	return &Runner{rt: rt, log: log}
}

// Run executes the phase and always returns an outcome, even when the
// phase is refused at the precondition gate.
//
// Step failures halt the phase unless the step tolerates them, in which
// case the step is recorded as warned and execution continues. A warned
// benchmark step additionally marks the outcome so the process can exit
// with the dedicated code while still reporting that provisioning
// itself succeeded.
func (r *Runner) Run(ctx context.Context, p Phase) *ending.RunOutcome {
	outcome := ending.NewRunOutcome(r.rt.RunID(), p.Name())
	defer outcome.Finish()

	log := r.log.WithField(common.LogFieldPhase, p.Name())
	log.Infof("starting phase %s: %s", p.Name(), p.Description())

	// Preconditions gate entry. Dry runs evaluate them too, but only
	// warn on failure so the plan can be inspected from any machine.
	for _, check := range p.Preconditions() {
		checkLog := log.WithField(common.LogFieldCheckName, check.Name())
		if err := check.Check(ctx, r.rt); err != nil {
			if r.rt.DryRun() {
				checkLog.Warnf("precondition failed, continuing dry-run: %v", err)
				continue
			}
			checkLog.Errorf("precondition failed: %v", err)
			outcome.PreconditionErr = errors.Wrapf(err, "precondition %s failed", check.Name())
			return outcome
		}
		checkLog.Infof("precondition satisfied")
	}

	steps := p.Steps()

	// Initialize everything before executing anything. A phase that
	// cannot fully prepare refuses to start, leaving no partial side
	// effects behind.
	for i, s := range steps {
		stepLog := r.stepLogger(log, s, i, len(steps))
		if err := s.Init(ctx, r.rt, stepLog); err != nil {
			stepLog.Errorf("step init failed: %v", err)
			outcome.Err = errors.Wrapf(err, "failed to initialize step %s", s.Name())
			return outcome
		}
	}

	for i, s := range steps {
		stepLog := r.stepLogger(log, s, i, len(steps))
		stepLog.Infof("executing step: %s (%s)", s.Name(), s.Description())

		record := r.runStep(ctx, s, stepLog)
		outcome.Steps = append(outcome.Steps, record)

		switch record.State {
		case common.StateFailed:
			outcome.Err = errors.Errorf("step %s failed: %s", s.Name(), record.Message)
			return outcome
		case common.StateWarned:
			if isBenchmark(s) {
				outcome.BenchmarkFailed = true
			}
		}
	}

	log.Infof("phase %s completed", p.Name())
	return outcome
}

// runStep executes a single step with its timeout and panic guard, and
// always runs the step's Post hook.
func (r *Runner) runStep(ctx context.Context, s step.Step, log *logrus.Entry) ending.StepRecord {
	started := time.Now()

	stepCtx, cancel := context.WithTimeout(ctx, r.rt.Settings().Timeouts.StepTimeout())
	defer cancel()

	var output string
	var skipped bool
	var execErr error
	err := hook.Call(hook.Funcs{
		TryFn: func() error {
			output, skipped, execErr = s.Execute(stepCtx, r.rt, log)
			return execErr
		},
		FinallyFn: func() {
			if postErr := s.Post(stepCtx, r.rt, log, execErr); postErr != nil {
				log.Warnf("step post hook failed: %v", postErr)
			}
		},
	})

	record := ending.StepRecord{
		Name:     s.Name(),
		Duration: time.Since(started).Round(time.Millisecond),
	}
	switch {
	case err != nil && s.Tolerable():
		record.State = common.StateWarned
		record.Message = err.Error()
		log.Warnf("step %s failed but is tolerated: %v", s.Name(), err)
	case err != nil:
		record.State = common.StateFailed
		record.Message = err.Error()
		log.Errorf("step %s failed: %v", s.Name(), err)
	case skipped:
		record.State = common.StateSkipped
		record.Message = output
		log.Infof("step %s skipped: %s", s.Name(), output)
	default:
		record.State = common.StateSuccess
		record.Message = output
		log.Infof("step %s succeeded: %s", s.Name(), output)
	}
	return record
}

func (r *Runner) stepLogger(log *logrus.Entry, s step.Step, i, total int) *logrus.Entry {
	fields := logrus.Fields{
		common.LogFieldStepName:  s.Name(),
		common.LogFieldStepIndex: fmt.Sprintf("%d/%d", i+1, total),
	}
	if user := s.RunAsUser(); user != "" {
		fields[common.LogFieldUser] = user
	}
	return log.WithFields(fields)
}

// isBenchmark reports whether the step marked itself as the benchmark,
// whose failure is reported distinctly from infrastructure failures.
func isBenchmark(s step.Step) bool {
	_, ok := s.(interface{ BenchmarkStep() })
	return ok
}
