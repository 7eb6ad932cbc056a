package prover

import (
	"context"
	"strings"
	"testing"
)

const (
	pluginListEmpty  = `{"plugins":[]}`
	pluginListPinned = `{"plugins":[{"name":"cuda-prover","version":"2.4.1"},{"name":"cpu-prover","version":"1.0.2"}]}`
	pluginListStale  = `{"plugins":[{"name":"cuda-prover","version":"2.3.0"}]}`
)

func TestPluginSkipsWhenPinnedVersionPresent(t *testing.T) {
	fake := &fakeRunner{replies: []reply{{stdout: pluginListPinned}}}
	rt := newTestRuntime(t, fake, nil, false)
	rt.RegisterTool(toolName, "/usr/local/bin/quartz")

	s := NewInstallPlugin()
	out, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !skipped {
		t.Error("step should be skipped when the pinned plugin version is present")
	}
	if !strings.Contains(out, "cuda-prover 2.4.1") {
		t.Errorf("output = %q", out)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("recorded %d runner calls, want 1 (probe only)", len(fake.calls))
	}
	if fake.calls[0].script != "/usr/local/bin/quartz plugin list --format json" {
		t.Errorf("probe = %q", fake.calls[0].script)
	}
}

func TestPluginInstallsWhenAbsent(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{stdout: pluginListEmpty},  // probe
		{stdout: "installed"},      // install
		{stdout: pluginListPinned}, // verify
	}}
	rt := newTestRuntime(t, fake, nil, false)
	rt.RegisterTool(toolName, "/usr/local/bin/quartz")

	s := NewInstallPlugin()
	out, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if skipped {
		t.Error("fresh install must not be reported as skipped")
	}
	if out != "pinned plugin cuda-prover at 2.4.1" {
		t.Errorf("output = %q", out)
	}
	if len(fake.calls) != 3 {
		t.Fatalf("recorded %d runner calls, want 3", len(fake.calls))
	}
	install := fake.calls[1].script
	if install != "/usr/local/bin/quartz plugin install cuda-prover --version 2.4.1" {
		t.Errorf("install command = %q", install)
	}
}

func TestPluginUpgradesOnVersionMismatch(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{stdout: pluginListStale},
		{stdout: "installed"},
		{stdout: pluginListPinned},
	}}
	rt := newTestRuntime(t, fake, nil, false)
	rt.RegisterTool(toolName, "/usr/local/bin/quartz")

	s := NewInstallPlugin()
	_, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if skipped {
		t.Error("stale plugin version must trigger an install, not a skip")
	}
	if len(fake.calls) != 3 {
		t.Errorf("recorded %d runner calls, want 3", len(fake.calls))
	}
}

func TestPluginFailsWhenVerifyDisagrees(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{stdout: pluginListEmpty},
		{stdout: "installed"},
		{stdout: pluginListStale},
	}}
	rt := newTestRuntime(t, fake, nil, false)
	rt.RegisterTool(toolName, "/usr/local/bin/quartz")

	s := NewInstallPlugin()
	_, _, err := s.Execute(context.Background(), rt, testLogger())
	if err == nil {
		t.Fatal("expected error when the plugin list disagrees with the pin after install")
	}
	if !strings.Contains(err.Error(), "2.3.0") || !strings.Contains(err.Error(), "2.4.1") {
		t.Errorf("error %q should name both reported and pinned versions", err)
	}
}

func TestPluginProbeToleratesListFailure(t *testing.T) {
	fake := &fakeRunner{replies: []reply{
		{code: 1, stderr: "plugin registry unreachable"}, // probe fails, not fatal
		{stdout: "installed"},
		{stdout: pluginListPinned},
	}}
	rt := newTestRuntime(t, fake, nil, false)
	rt.RegisterTool(toolName, "/usr/local/bin/quartz")

	s := NewInstallPlugin()
	_, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("a failed probe should fall through to the install, got error: %v", err)
	}
	if skipped {
		t.Error("a failed probe must not be read as satisfied")
	}
}

func TestPluginDryRunSkipsVerify(t *testing.T) {
	fake := &fakeRunner{}
	rt := newTestRuntime(t, fake, nil, true)
	rt.RegisterTool(toolName, "/usr/local/bin/quartz")

	s := NewInstallPlugin()
	out, skipped, err := s.Execute(context.Background(), rt, testLogger())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if skipped {
		t.Error("dry-run should report the planned action, not a skip")
	}
	if !strings.Contains(out, "would pin plugin cuda-prover at 2.4.1") {
		t.Errorf("output = %q", out)
	}
}
