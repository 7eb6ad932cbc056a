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

// InstallClient builds and installs the benchmark client from its source
// branch with cargo, as the operating user. --force keeps the step
// idempotent: cargo exits cleanly and reinstalls even when the binary is
// already present, so a re-run always ends on the branch head.
type InstallClient struct {
	step.BaseStep
}

// NewInstallClient creates the benchmark client build step for the given
// operating user.
func NewInstallClient(user string) *InstallClient {
	s := &InstallClient{
		BaseStep: step.NewBaseStep("bench-client", "Build and install the benchmark client from source"),
	}
	s.RunAsField = user
	return s
}

func (s *InstallClient) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if s.RunAsField == "" {
		return errors.New("bench client step requires an operating user")
	}
	return nil
}

func (s *InstallClient) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	settings := rt.Settings()
	bench := settings.Bench
	cargoBin := filepath.Join(settings.User.HomeDir(), ".cargo", "bin")

	cargo, err := rt.ResolveTool("cargo", cargoBin)
	if err != nil {
		return "", false, errors.Wrap(err, "cargo is required to build the benchmark client")
	}

	log.Infof("building %s from %s branch %s", bench.Crate, bench.RepoURL, bench.Branch)
	script := fmt.Sprintf("%s install --git %s --branch %s %s --locked --force",
		cargo, bench.RepoURL, bench.Branch, bench.Crate)
	if out, err := s.RunScript(ctx, rt, script); err != nil {
		return out, false, errors.Wrapf(err, "failed to build %s", bench.Crate)
	}

	rt.RegisterTool(bench.Crate, filepath.Join(cargoBin, bench.Crate))
	return fmt.Sprintf("installed %s from branch %s", bench.Crate, bench.Branch), false, nil
}

var _ step.Step = (*InstallClient)(nil)
