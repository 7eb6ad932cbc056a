package pkgs

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
	rt.RegisterTool("apt-get", "/usr/bin/apt-get")
	return rt
}

func TestInstallBaseRefreshesIndexThenInstalls(t *testing.T) {
	fake := &fakeRunner{}
	rt := newTestRuntime(t, fake, nil)

	s := NewInstallBase()
	out, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if skipped {
		t.Error("apt steps never report a skip, apt handles idempotence itself")
	}
	if out != "installed 4 baseline packages" {
		t.Errorf("output = %q", out)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("recorded %d runner calls, want 2", len(fake.calls))
	}

	update, install := fake.calls[0], fake.calls[1]
	if !strings.Contains(update.script, "/usr/bin/apt-get update -q") {
		t.Errorf("first call %q should refresh the index", update.script)
	}
	for _, call := range fake.calls {
		if !strings.HasPrefix(call.script, "DEBIAN_FRONTEND=noninteractive ") {
			t.Errorf("call %q missing the noninteractive frontend", call.script)
		}
		if call.user != "" {
			t.Errorf("apt must run in the privileged context, ran as %q", call.user)
		}
	}
	for _, pkg := range []string{"build-essential", "pkg-config", "libssl-dev", "just"} {
		if !strings.Contains(install.script, pkg) {
			t.Errorf("install script %q missing package %q", install.script, pkg)
		}
	}
}

func TestInstallBaseStopsWhenIndexRefreshFails(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{code: 100, stderr: "Could not get lock /var/lib/apt/lists/lock"},
	}}
	rt := newTestRuntime(t, fake, nil)

	s := NewInstallBase()
	_, _, err := s.Execute(context.Background(), rt, testLogger())
	if err == nil {
		t.Fatal("expected error when apt update fails")
	}
	if !strings.Contains(err.Error(), "index refresh failed") {
		t.Errorf("error = %v", err)
	}
	if len(fake.calls) != 1 {
		t.Errorf("install must not run after a failed refresh, recorded %d calls", len(fake.calls))
	}
}

func TestInstallBaseInitRejectsEmptyPackageList(t *testing.T) {
	fake := &fakeRunner{}
	rt := newTestRuntime(t, fake, func(s *config.Settings) {
		s.Packages.Baseline = []string{}
	})

	s := NewInstallBase()
	if err := s.Init(context.Background(), rt, testLogger()); err == nil {
		t.Error("Init should fail with no baseline packages configured")
	}
}

func TestInstallMonitorIsTolerable(t *testing.T) {
	s := NewInstallMonitor()
	if !s.Tolerable() {
		t.Error("monitor install failures must be tolerable")
	}
	if s.RunAsUser() != "" {
		t.Errorf("monitor installs in the privileged context, got user %q", s.RunAsUser())
	}
}

func TestInstallMonitorInstallsConfiguredPackage(t *testing.T) {
	fake := &fakeRunner{}
	rt := newTestRuntime(t, fake, nil)

	s := NewInstallMonitor()
	out, _, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out != "installed nvtop" {
		t.Errorf("output = %q", out)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("recorded %d runner calls, want 1", len(fake.calls))
	}
	if !strings.Contains(fake.calls[0].script, "install -y -q nvtop") {
		t.Errorf("install script = %q", fake.calls[0].script)
	}
}

func TestInstallMonitorSurfacesFailure(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{code: 100, stderr: "E: Unable to locate package nvtop"},
	}}
	rt := newTestRuntime(t, fake, nil)

	s := NewInstallMonitor()
	_, _, err := s.Execute(context.Background(), rt, testLogger())
	if err == nil {
		t.Fatal("expected error when the monitor install fails")
	}
	if !strings.Contains(err.Error(), "nvtop") {
		t.Errorf("error %q should name the package", err)
	}
}
