package rust

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"

	"github.com/quartzproof/rigprep/common"
	"github.com/quartzproof/rigprep/file"
	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
)

// InstallToolchain installs the pinned Rust toolchain for the operating
// user via rustup. The toolchain lands under that user's home rather
// than root's because the benchmark client is built and run as that
// user.
type InstallToolchain struct {
	step.BaseStep
}

// NewInstallToolchain creates the toolchain step for the given operating
// user.
func NewInstallToolchain(user string) *InstallToolchain {
	s := &InstallToolchain{
		BaseStep: step.NewBaseStep("rust-toolchain", "Install the pinned Rust toolchain for the operating user"),
	}
	s.RunAsField = user
	return s
}

func (s *InstallToolchain) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if s.RunAsField == "" {
		return errors.New("rust toolchain step requires an operating user")
	}
	rust := rt.Settings().Rust
	log.Debugf("rust toolchain step: toolchain=%s installer=%s user=%s", rust.Toolchain, rust.InstallerURL, s.RunAsField)
	return nil
}

func (s *InstallToolchain) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	settings := rt.Settings()
	pin := settings.Rust.Toolchain
	home := settings.User.HomeDir()
	rustc := filepath.Join(home, ".cargo", "bin", "rustc")

	if got, ok := s.probeVersion(ctx, rt, rustc); ok {
		if semver.Compare("v"+got, "v"+pin) == 0 {
			log.Infof("rustc %s already installed for %s, nothing to do", got, s.RunAsField)
			s.registerTools(rt, home)
			return fmt.Sprintf("Rust %s already installed", got), true, nil
		}
		log.Infof("rustc %s installed but %s is pinned, switching", got, pin)
	}

	if rt.DryRun() {
		log.Infof("dry-run: would download %s and install toolchain %s for %s", settings.Rust.InstallerURL, pin, s.RunAsField)
		return fmt.Sprintf("would install Rust %s", pin), false, nil
	}

	installer := filepath.Join(rt.WorkDir(), "rustup-init.sh")
	log.Infof("downloading the rustup installer from %s", settings.Rust.InstallerURL)
	if err := file.Download(ctx, settings.Rust.InstallerURL, installer, common.FileMode0755); err != nil {
		return "", false, errors.Wrap(err, "failed to download the rustup installer")
	}
	if err := file.VerifySHA256(installer, settings.Rust.InstallerSHA256); err != nil {
		return "", false, errors.Wrap(err, "rustup installer checksum mismatch")
	}

	log.Infof("installing Rust %s for user %s", pin, s.RunAsField)
	script := fmt.Sprintf("/bin/bash %s -y --default-toolchain %s --profile minimal", installer, pin)
	if out, err := s.RunScript(ctx, rt, script); err != nil {
		return out, false, errors.Wrap(err, "rustup installer failed")
	}

	got, ok := s.probeVersion(ctx, rt, rustc)
	if !ok {
		return "", false, errors.Errorf("rustup finished but %s is not runnable as %s", rustc, s.RunAsField)
	}
	if semver.Compare("v"+got, "v"+pin) != 0 {
		return "", false, errors.Errorf("rustup finished but rustc reports %s, want %s", got, pin)
	}

	s.registerTools(rt, home)
	return fmt.Sprintf("installed Rust %s", got), false, nil
}

func (s *InstallToolchain) registerTools(rt runtime.Runtime, home string) {
	bin := filepath.Join(home, ".cargo", "bin")
	rt.RegisterTool("rustc", filepath.Join(bin, "rustc"))
	rt.RegisterTool("cargo", filepath.Join(bin, "cargo"))
}

// probeVersion runs rustc --version as the operating user and parses the
// reported release. ok is false when the binary is missing or the output
// is not recognizable.
func (s *InstallToolchain) probeVersion(ctx context.Context, rt runtime.Runtime, rustc string) (string, bool) {
	stdout, _, code, err := rt.Runner().RunAs(ctx, s.RunAsField, rustc+" --version")
	if err != nil || code != 0 {
		return "", false
	}
	return parseRustcVersion(stdout)
}

// parseRustcVersion extracts the release from output like
// "rustc 1.79.0 (129f3b996 2024-06-10)".
func parseRustcVersion(out string) (string, bool) {
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "rustc" {
		return "", false
	}
	if !semver.IsValid("v" + fields[1]) {
		return "", false
	}
	return fields[1], true
}

var _ step.Step = (*InstallToolchain)(nil)
