package prover

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/common"
	"github.com/quartzproof/rigprep/file"
	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// toolName is the binary the hosted installer places on the machine.
const toolName = "quartz"

const defaultInstallDir = "/usr/local/bin"

// InstallCLI installs the proving-system command line tool via its
// hosted installer. Presence of the binary is the idempotence probe:
// the CLI updates itself, so an existing install is left alone.
type InstallCLI struct {
	step.BaseStep
	InstallDir string // where the installer places the binary
}

// NewInstallCLI creates the prover CLI step.
func NewInstallCLI() *InstallCLI {
	return &InstallCLI{
		BaseStep:   step.NewBaseStep("prover-cli", "Install the proving system CLI via its hosted installer"),
		InstallDir: defaultInstallDir,
	}
}

func (s *InstallCLI) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if s.InstallDir == "" {
		s.InstallDir = defaultInstallDir
	}
	log.Debugf("prover CLI step: installer=%s dir=%s", rt.Settings().Prover.InstallerURL, s.InstallDir)
	return nil
}

func (s *InstallCLI) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	settings := rt.Settings()

	// In dry-run the resolver answers with the bare tool name instead of
	// failing, which would read as "already installed" here. Dry runs
	// always show the full install plan instead.
	if !rt.DryRun() {
		if path, err := rt.ResolveTool(toolName, s.InstallDir); err == nil {
			log.Infof("%s already installed at %s, nothing to do", toolName, path)
			return fmt.Sprintf("%s already installed at %s", toolName, path), true, nil
		}
	}

	if rt.DryRun() {
		log.Infof("dry-run: would download %s and run the %s installer", settings.Prover.InstallerURL, toolName)
		return fmt.Sprintf("would install %s", toolName), false, nil
	}

	installer := filepath.Join(rt.WorkDir(), "quartz-install.sh")
	log.Infof("downloading the %s installer from %s", toolName, settings.Prover.InstallerURL)
	if err := file.Download(ctx, settings.Prover.InstallerURL, installer, common.FileMode0755); err != nil {
		return "", false, errors.Wrap(err, "failed to download the prover installer")
	}
	if err := file.VerifySHA256(installer, settings.Prover.InstallerSHA256); err != nil {
		return "", false, errors.Wrap(err, "prover installer checksum mismatch")
	}

	log.Infof("running the %s installer", toolName)
	if out, err := s.RunScript(ctx, rt, "/bin/bash "+installer); err != nil {
		return out, false, errors.Wrap(err, "prover installer failed")
	}

	path, err := rt.ResolveTool(toolName, s.InstallDir)
	if err != nil {
		return "", false, errors.Wrapf(err, "installer finished but %s was not found", toolName)
	}
	log.Infof("%s installed at %s", toolName, path)
	return fmt.Sprintf("installed %s at %s", toolName, path), false, nil
}

var _ step.Step = (*InstallCLI)(nil)
