package prover

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/mod/semver"

	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// InstallPlugin pins the prover's GPU plugin at the configured version.
// The CLI lists installed plugins as JSON; the step only installs when
// the pinned version is not already reported.
type InstallPlugin struct {
	step.BaseStep
}

// NewInstallPlugin creates the plugin pinning step.
func NewInstallPlugin() *InstallPlugin {
	return &InstallPlugin{
		BaseStep: step.NewBaseStep("prover-plugin", "Pin the prover GPU plugin at its configured version"),
	}
}

func (s *InstallPlugin) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	prover := rt.Settings().Prover
	plugin, pin := prover.Plugin, prover.PluginVersion

	quartz, err := rt.ResolveTool(toolName)
	if err != nil {
		return "", false, errors.Wrapf(err, "the %s CLI must be installed before its plugins", toolName)
	}

	if got, ok := s.probeVersion(ctx, rt, quartz, plugin); ok {
		if semver.Compare("v"+got, "v"+pin) == 0 {
			log.Infof("plugin %s %s already installed, nothing to do", plugin, got)
			return fmt.Sprintf("plugin %s %s already installed", plugin, got), true, nil
		}
		log.Infof("plugin %s is at %s, pinning %s", plugin, got, pin)
	}

	log.Infof("installing plugin %s at version %s", plugin, pin)
	if out, err := s.RunCommand(ctx, rt, quartz, "plugin", "install", plugin, "--version", pin); err != nil {
		return out, false, errors.Wrapf(err, "failed to install plugin %s", plugin)
	}

	if rt.DryRun() {
		return fmt.Sprintf("would pin plugin %s at %s", plugin, pin), false, nil
	}

	got, ok := s.probeVersion(ctx, rt, quartz, plugin)
	if !ok || semver.Compare("v"+got, "v"+pin) != 0 {
		return "", false, errors.Errorf("plugin install finished but %s reports version %q, want %s", plugin, got, pin)
	}
	return fmt.Sprintf("pinned plugin %s at %s", plugin, got), false, nil
}

// probeVersion asks the CLI for its installed plugins and extracts the
// version of the named one. The CLI answers with a document like
// {"plugins":[{"name":"cuda-prover","version":"2.4.1"}]}; ok is false
// when the listing fails or the plugin is absent.
func (s *InstallPlugin) probeVersion(ctx context.Context, rt runtime.Runtime, quartz, plugin string) (string, bool) {
	stdout, _, code, err := rt.Runner().Run(ctx, quartz, "plugin", "list", "--format", "json")
	if err != nil || code != 0 {
		return "", false
	}
	got := gjson.Get(stdout, fmt.Sprintf(`plugins.#(name=="%s").version`, plugin)).String()
	if got == "" {
		return "", false
	}
	return got, true
}

var _ step.Step = (*InstallPlugin)(nil)
