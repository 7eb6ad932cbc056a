package bench

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// RunBenchmark executes the benchmark client as the operating user. This
// is the one step whose failure does not abort the run outcome: by the
// time it executes the machine is fully provisioned, so a failing
// benchmark is downgraded to a warning the operator can act on and the
// process exits with a code distinct from infrastructure failures.
type RunBenchmark struct {
	step.BaseStep
}

// NewRunBenchmark creates the benchmark step for the given operating
// user.
func NewRunBenchmark(user string) *RunBenchmark {
	s := &RunBenchmark{
		BaseStep: step.NewBaseStep("benchmark", "Run the proving benchmark client"),
	}
	s.RunAsField = user
	s.TolerableField = true
	return s
}

// BenchmarkStep marks the step so the phase runner reports its failure
// distinctly from infrastructure failures.
func (s *RunBenchmark) BenchmarkStep() {}

func (s *RunBenchmark) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if s.RunAsField == "" {
		return errors.New("benchmark step requires an operating user")
	}
	return nil
}

func (s *RunBenchmark) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	settings := rt.Settings()
	bench := settings.Bench
	cargoBin := filepath.Join(settings.User.HomeDir(), ".cargo", "bin")

	binPath, err := rt.ResolveTool(bench.Crate, cargoBin)
	if err != nil {
		return "", false, errors.Wrapf(err, "%s is not installed, did the pre-reboot phase complete?", bench.Crate)
	}

	log.Infof("running %s with concurrency %d and RUST_LOG=%s", bench.Crate, bench.Concurrency, bench.LogLevel)
	script := fmt.Sprintf("RUST_LOG=%s %s --concurrency %d", bench.LogLevel, binPath, bench.Concurrency)
	if out, err := s.RunScript(ctx, rt, script); err != nil {
		return out, false, errors.Wrap(err, "benchmark run failed, inspect the log output and re-run the client manually once the cause is fixed")
	}

	return fmt.Sprintf("benchmark completed with concurrency %d", bench.Concurrency), false, nil
}

var _ step.Step = (*RunBenchmark)(nil)
