package pkgs

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// InstallMonitor installs the GPU monitoring utility. The monitor is a
// convenience for the operator, so a failure here is tolerated rather
// than allowed to block the steps the benchmark actually depends on.
type InstallMonitor struct {
	step.BaseStep
}

// NewInstallMonitor creates the GPU monitor step.
func NewInstallMonitor() *InstallMonitor {
	s := &InstallMonitor{
		BaseStep: step.NewBaseStep("gpu-monitor", "Install the GPU monitoring utility"),
	}
	s.TolerableField = true
	return s
}

func (s *InstallMonitor) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if rt.Settings().Packages.Monitor == "" {
		return errors.New("no monitor package configured")
	}
	return nil
}

func (s *InstallMonitor) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	monitor := rt.Settings().Packages.Monitor

	aptGet, err := rt.ResolveTool("apt-get")
	if err != nil {
		return "", false, errors.Wrap(err, "apt-get is required")
	}

	log.Infof("installing the GPU monitor package %s", monitor)
	script := fmt.Sprintf("%s %s install -y -q %s", aptEnv, aptGet, monitor)
	if out, err := s.RunScript(ctx, rt, script); err != nil {
		return out, false, errors.Wrapf(err, "monitor package %s install failed", monitor)
	}

	return fmt.Sprintf("installed %s", monitor), false, nil
}

var _ step.Step = (*InstallMonitor)(nil)
