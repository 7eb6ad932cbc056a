package pkgs

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// aptEnv keeps apt from blocking on debconf prompts during unattended
// runs.
const aptEnv = "DEBIAN_FRONTEND=noninteractive"

// InstallBase refreshes the apt index and installs the baseline build
// packages plus the task runner the companion repository's scripts rely
// on. apt itself makes the step idempotent: packages already at their
// candidate version are left alone.
type InstallBase struct {
	step.BaseStep
}

// NewInstallBase creates the baseline package step.
func NewInstallBase() *InstallBase {
	return &InstallBase{
		BaseStep: step.NewBaseStep("apt-baseline", "Install baseline build packages via apt"),
	}
}

func (s *InstallBase) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if len(rt.Settings().Packages.Baseline) == 0 {
		return errors.New("no baseline packages configured")
	}
	return nil
}

func (s *InstallBase) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	packages := rt.Settings().Packages.Baseline

	aptGet, err := rt.ResolveTool("apt-get")
	if err != nil {
		return "", false, errors.Wrap(err, "apt-get is required")
	}

	log.Infof("refreshing the apt package index")
	if out, err := s.RunScript(ctx, rt, fmt.Sprintf("%s %s update -q", aptEnv, aptGet)); err != nil {
		return out, false, errors.Wrap(err, "apt index refresh failed")
	}

	log.Infof("installing baseline packages: %s", strings.Join(packages, " "))
	script := fmt.Sprintf("%s %s install -y -q %s", aptEnv, aptGet, strings.Join(packages, " "))
	if out, err := s.RunScript(ctx, rt, script); err != nil {
		return out, false, errors.Wrap(err, "baseline package install failed")
	}

	return fmt.Sprintf("installed %d baseline packages", len(packages)), false, nil
}

var _ step.Step = (*InstallBase)(nil)
