package bench

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/config"
	"github.com/quartzproof/rigprep/runtime"
)

type reply struct {
	stdout string
	stderr string
	code   int
	err    error
}

type recordedCall struct {
	user   string
	script string
}

type fakeRunner struct {
	calls   []recordedCall
	replies []reply
}

func (f *fakeRunner) next() reply {
	if len(f.replies) == 0 {
		return reply{}
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	f.calls = append(f.calls, recordedCall{script: name + " " + strings.Join(args, " ")})
	r := f.next()
	return r.stdout, r.stderr, r.code, r.err
}

func (f *fakeRunner) RunShell(ctx context.Context, script string) (string, string, int, error) {
	f.calls = append(f.calls, recordedCall{script: script})
	r := f.next()
	return r.stdout, r.stderr, r.code, r.err
}

func (f *fakeRunner) RunAs(ctx context.Context, user, script string) (string, string, int, error) {
	f.calls = append(f.calls, recordedCall{user: user, script: script})
	r := f.next()
	return r.stdout, r.stderr, r.code, r.err
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestRuntime(t *testing.T, fake *fakeRunner, mutate func(*config.Settings)) runtime.Runtime {
	t.Helper()
	settings := config.DefaultSettings()
	if mutate != nil {
		mutate(settings)
	}
	rt, err := runtime.NewRuntime(runtime.Config{
		Settings: settings,
		Runner:   fake,
		WorkDir:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewRuntime returned error: %v", err)
	}
	rt.RegisterTool("cargo", "/home/ubuntu/.cargo/bin/cargo")
	rt.RegisterTool("quartz-bench", "/home/ubuntu/.cargo/bin/quartz-bench")
	return rt
}

func TestInstallClientBuildsFromPinnedBranch(t *testing.T) {
	fake := &fakeRunner{}
	rt := newTestRuntime(t, fake, nil)

	s := NewInstallClient("ubuntu")
	out, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if skipped {
		t.Error("cargo install --force always runs, the step never skips")
	}
	if out != "installed quartz-bench from branch perf/gpu-batch" {
		t.Errorf("output = %q", out)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("recorded %d runner calls, want 1", len(fake.calls))
	}

	call := fake.calls[0]
	if call.user != "ubuntu" {
		t.Errorf("cargo install ran as %q, want ubuntu", call.user)
	}
	want := "/home/ubuntu/.cargo/bin/cargo install --git https://github.com/quartzproof/quartz-bench --branch perf/gpu-batch quartz-bench --locked --force"
	if call.script != want {
		t.Errorf("script = %q\nwant   %q", call.script, want)
	}
}

func TestInstallClientSurfacesBuildFailure(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{code: 101, stderr: "error[E0432]: unresolved import"},
	}}
	rt := newTestRuntime(t, fake, nil)

	s := NewInstallClient("ubuntu")
	_, _, err := s.Execute(context.Background(), rt, testLogger())
	if err == nil {
		t.Fatal("expected error when the build fails")
	}
	if !strings.Contains(err.Error(), "quartz-bench") || !strings.Contains(err.Error(), "E0432") {
		t.Errorf("error = %v", err)
	}
}

func TestRunBenchmarkInvokesClientAsUser(t *testing.T) {
	fake := &fakeRunner{replies: []reply{{stdout: "proofs/s: 182.4\n"}}}
	rt := newTestRuntime(t, fake, nil)

	s := NewRunBenchmark("ubuntu")
	out, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if skipped {
		t.Error("the benchmark always runs, the step never skips")
	}
	if out != "benchmark completed with concurrency 8" {
		t.Errorf("output = %q", out)
	}

	call := fake.calls[0]
	if call.user != "ubuntu" {
		t.Errorf("benchmark ran as %q, want ubuntu", call.user)
	}
	want := "RUST_LOG=debug /home/ubuntu/.cargo/bin/quartz-bench --concurrency 8"
	if call.script != want {
		t.Errorf("script = %q\nwant   %q", call.script, want)
	}
}

func TestRunBenchmarkHonorsConfiguredConcurrencyAndLogLevel(t *testing.T) {
	fake := &fakeRunner{}
	rt := newTestRuntime(t, fake, func(s *config.Settings) {
		s.Bench.Concurrency = 16
		s.Bench.LogLevel = "trace"
	})

	s := NewRunBenchmark("ubuntu")
	if _, _, err := s.Execute(context.Background(), rt, testLogger()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	script := fake.calls[0].script
	if !strings.HasPrefix(script, "RUST_LOG=trace ") || !strings.HasSuffix(script, "--concurrency 16") {
		t.Errorf("script = %q", script)
	}
}

func TestRunBenchmarkFailureCarriesRemediation(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{code: 1, stderr: "prover node connection refused"},
	}}
	rt := newTestRuntime(t, fake, nil)

	s := NewRunBenchmark("ubuntu")
	_, _, err := s.Execute(context.Background(), rt, testLogger())
	if err == nil {
		t.Fatal("expected error when the benchmark fails")
	}
	if !strings.Contains(err.Error(), "re-run the client manually") {
		t.Errorf("error %q should carry remediation guidance", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error %q should carry the client's stderr", err)
	}
}

func TestRunBenchmarkIsTolerableAndMarked(t *testing.T) {
	s := NewRunBenchmark("ubuntu")
	if !s.Tolerable() {
		t.Error("benchmark failures must be tolerable")
	}
	if _, ok := interface{}(s).(interface{ BenchmarkStep() }); !ok {
		t.Error("benchmark step must carry the benchmark marker")
	}
}
