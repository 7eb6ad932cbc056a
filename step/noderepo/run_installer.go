package noderepo

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/file"
	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// RunInstaller executes the companion repository's GPU stack installer,
// answering yes to its interactive prompts. The script installs the GPU
// driver and the container runtime; both only take effect after the
// reboot that ends the phase.
type RunInstaller struct {
	step.BaseStep
}

// NewRunInstaller creates the GPU stack installer step. The script needs
// the privileged context, so there is no run-as user.
func NewRunInstaller() *RunInstaller {
	return &RunInstaller{
		BaseStep: step.NewBaseStep("gpu-stack", "Run the companion repository's GPU driver and container runtime installer"),
	}
}

func (s *RunInstaller) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	node := rt.Settings().Node
	installer := node.InstallerPath()

	if !rt.DryRun() {
		exists, err := file.PathExists(installer)
		if err != nil {
			return "", false, errors.Wrapf(err, "failed to inspect %s", installer)
		}
		if !exists {
			return "", false, errors.Errorf("installer script %s does not exist, was the repository cloned at the right branch?", installer)
		}
	}

	log.Infof("running the GPU stack installer %s", installer)
	script := fmt.Sprintf("cd %s && yes | /bin/bash %s", node.Dir, installer)
	if out, err := s.RunScript(ctx, rt, script); err != nil {
		return out, false, errors.Wrap(err, "GPU stack installer failed")
	}

	return "GPU stack installer completed", false, nil
}

var _ step.Step = (*RunInstaller)(nil)
