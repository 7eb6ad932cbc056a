package ending

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzproof/rigprep/common"
)

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RunOutcome)
		want    int
		failed  bool
	}{
		{
			name:   "clean run",
			mutate: func(o *RunOutcome) {},
			want:   common.ExitSuccess,
		},
		{
			name: "precondition failure",
			mutate: func(o *RunOutcome) {
				o.PreconditionErr = errors.New("only 12 GiB free")
			},
			want:   common.ExitPreconditionFailed,
			failed: true,
		},
		{
			name: "step failure",
			mutate: func(o *RunOutcome) {
				o.Err = errors.New("step apt-baseline failed")
			},
			want:   common.ExitStepFailed,
			failed: true,
		},
		{
			name: "benchmark failure only",
			mutate: func(o *RunOutcome) {
				o.BenchmarkFailed = true
			},
			want: common.ExitBenchmarkFailed,
		},
		{
			name: "step failure wins over benchmark marker",
			mutate: func(o *RunOutcome) {
				o.Err = errors.New("boom")
				o.BenchmarkFailed = true
			},
			want:   common.ExitStepFailed,
			failed: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewRunOutcome("run-1", common.PhasePostReboot)
			tt.mutate(o)
			assert.Equal(t, tt.want, o.ExitCode())
			assert.Equal(t, tt.failed, o.Failed())
		})
	}
}

func TestBenchmarkFailureIsNotARunFailure(t *testing.T) {
	o := NewRunOutcome("run-1", common.PhasePostReboot)
	o.BenchmarkFailed = true
	assert.False(t, o.Failed(), "a benchmark-only failure leaves provisioning successful")
	assert.Equal(t, common.ExitBenchmarkFailed, o.ExitCode())
}

func TestFinishStampsDuration(t *testing.T) {
	o := NewRunOutcome("run-1", common.PhasePreReboot)
	time.Sleep(5 * time.Millisecond)
	o.Finish()
	require.Greater(t, o.Duration, time.Duration(0))
}

func TestSummaryListsStepsAndResult(t *testing.T) {
	o := NewRunOutcome("4a1c9d", common.PhasePreReboot)
	o.Steps = append(o.Steps,
		StepRecord{Name: "rust-toolchain", State: common.StateSkipped, Duration: 1200 * time.Millisecond, Message: "Rust 1.79.0 already installed"},
		StepRecord{Name: "apt-baseline", State: common.StateSuccess, Duration: 42 * time.Second, Message: "installed 4 baseline packages"},
		StepRecord{Name: "gpu-monitor", State: common.StateWarned, Duration: 3 * time.Second, Message: "monitor package nvtop install failed"},
	)
	o.Finish()

	s := o.Summary()
	require.True(t, strings.HasPrefix(s, "phase pre-reboot finished in "), s)
	assert.Contains(t, s, "run 4a1c9d")
	assert.Contains(t, s, "Skipped")
	assert.Contains(t, s, "rust-toolchain")
	assert.Contains(t, s, "Rust 1.79.0 already installed")
	assert.Contains(t, s, "Warned")
	assert.Contains(t, s, "42s")
	assert.True(t, strings.HasSuffix(s, "result: SUCCESS\n"), s)
}

func TestSummaryNamesFailures(t *testing.T) {
	o := NewRunOutcome("run-1", common.PhasePreReboot)
	o.PreconditionErr = errors.New("effective UID is 1000")
	assert.Contains(t, o.Summary(), "result: REFUSED, precondition failed: effective UID is 1000")

	o = NewRunOutcome("run-2", common.PhasePostReboot)
	o.Err = errors.New("step stack-up failed")
	assert.Contains(t, o.Summary(), "result: FAILED: step stack-up failed")

	o = NewRunOutcome("run-3", common.PhasePostReboot)
	o.BenchmarkFailed = true
	assert.Contains(t, o.Summary(), "BENCHMARK FAILED")
}
