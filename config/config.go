package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// Settings is the top-level configuration structure. Every field has a
// working default; a YAML file given with --config overrides individual
// values. Zero values left after unmarshalling are filled by SetDefaults.
type Settings struct {
	OS       OSSettings      `yaml:"os"`
	Disk     DiskSettings    `yaml:"disk"`
	User     UserSettings    `yaml:"user"`
	Rust     RustSettings    `yaml:"rust"`
	Prover   ProverSettings  `yaml:"prover"`
	Bench    BenchSettings   `yaml:"bench"`
	Node     NodeSettings    `yaml:"node"`
	Packages PackageSettings `yaml:"packages"`
	Timeouts TimeoutSettings `yaml:"timeouts"`
}

// OSSettings pins the distribution the sequencer is allowed to run on.
type OSSettings struct {
	ID        string `yaml:"id"`
	VersionID string `yaml:"version_id"`
}

// DiskSettings configures the free-space precondition.
type DiskSettings struct {
	Mount      string `yaml:"mount"`
	MinFreeGiB uint64 `yaml:"min_free_gib"`
}

// UserSettings identifies the unprivileged operating user that owns the
// Rust toolchain, the benchmark client and the companion repository.
type UserSettings struct {
	Name string `yaml:"name"`
	Home string `yaml:"home,omitempty"`
}

// HomeDir returns the configured home directory, deriving the conventional
// one from the user name when unset.
func (u UserSettings) HomeDir() string {
	if u.Home != "" {
		return u.Home
	}
	if u.Name == "root" {
		return "/root"
	}
	return filepath.Join("/home", u.Name)
}

// RustSettings pins the toolchain installed for the operating user.
type RustSettings struct {
	Toolchain       string `yaml:"toolchain"`
	InstallerURL    string `yaml:"installer_url"`
	InstallerSHA256 string `yaml:"installer_sha256,omitempty"`
}

// ProverSettings configures the proving CLI and its GPU plugin pin.
type ProverSettings struct {
	InstallerURL    string `yaml:"installer_url"`
	InstallerSHA256 string `yaml:"installer_sha256,omitempty"`
	Plugin          string `yaml:"plugin"`
	PluginVersion   string `yaml:"plugin_version"`
}

// BenchSettings configures the benchmark client build and invocation.
type BenchSettings struct {
	RepoURL     string `yaml:"repo_url"`
	Branch      string `yaml:"branch"`
	Crate       string `yaml:"crate"`
	Concurrency int    `yaml:"concurrency"`
	LogLevel    string `yaml:"log_level"`
}

// NodeSettings configures the companion repository checkout and the
// container stack it ships.
type NodeSettings struct {
	RepoURL     string   `yaml:"repo_url"`
	Branch      string   `yaml:"branch"`
	Dir         string   `yaml:"dir,omitempty"`
	Installer   string   `yaml:"installer"`
	ComposeFile string   `yaml:"compose_file"`
	Services    []string `yaml:"services"`
}

// InstallerPath returns the driver installer script path inside the
// checkout.
func (n NodeSettings) InstallerPath() string {
	return filepath.Join(n.Dir, n.Installer)
}

// PackageSettings lists the apt packages the pre-reboot phase installs.
type PackageSettings struct {
	Baseline []string `yaml:"baseline"`
	Monitor  string   `yaml:"monitor"`
}

// TimeoutSettings carries command budgets as duration strings ("45m",
// "90s"). Empty or malformed values fall back to the defaults; Validate
// rejects malformed values so typos surface at startup.
type TimeoutSettings struct {
	Step       string `yaml:"step"`
	DockerWait string `yaml:"docker_wait"`
}

// StepTimeout returns the per-step command budget.
func (t TimeoutSettings) StepTimeout() time.Duration {
	return parseDurationOr(t.Step, DefaultStepTimeout)
}

// DockerWaitTimeout returns how long the post-reboot phase waits for
// docker.service to become active.
func (t TimeoutSettings) DockerWaitTimeout() time.Duration {
	return parseDurationOr(t.DockerWait, DefaultDockerWaitTimeout)
}

func parseDurationOr(val string, defaultVal time.Duration) time.Duration {
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// Validate checks the settings for values the sequencer cannot work with.
// It expects SetDefaults to have run, so empty fields are real errors.
func (s *Settings) Validate() error {
	if s.OS.ID == "" || s.OS.VersionID == "" {
		return fmt.Errorf("os.id and os.version_id must not be empty")
	}
	if s.Disk.Mount == "" {
		return fmt.Errorf("disk.mount must not be empty")
	}
	if s.Disk.MinFreeGiB == 0 {
		return fmt.Errorf("disk.min_free_gib must be greater than zero")
	}
	if s.User.Name == "" {
		return fmt.Errorf("user.name must not be empty")
	}
	if !semver.IsValid("v" + s.Rust.Toolchain) {
		return fmt.Errorf("rust.toolchain %q is not a version pin (expected e.g. 1.79.0)", s.Rust.Toolchain)
	}
	if s.Rust.InstallerURL == "" {
		return fmt.Errorf("rust.installer_url must not be empty")
	}
	if s.Prover.InstallerURL == "" {
		return fmt.Errorf("prover.installer_url must not be empty")
	}
	if s.Prover.Plugin == "" {
		return fmt.Errorf("prover.plugin must not be empty")
	}
	if !semver.IsValid("v" + s.Prover.PluginVersion) {
		return fmt.Errorf("prover.plugin_version %q is not a version pin (expected e.g. 2.4.1)", s.Prover.PluginVersion)
	}
	if s.Bench.RepoURL == "" || s.Bench.Branch == "" || s.Bench.Crate == "" {
		return fmt.Errorf("bench.repo_url, bench.branch and bench.crate must not be empty")
	}
	if s.Bench.Concurrency < 1 {
		return fmt.Errorf("bench.concurrency must be at least 1, got %d", s.Bench.Concurrency)
	}
	if s.Node.RepoURL == "" || s.Node.Branch == "" || s.Node.Dir == "" {
		return fmt.Errorf("node.repo_url, node.branch and node.dir must not be empty")
	}
	if s.Node.Installer == "" || s.Node.ComposeFile == "" {
		return fmt.Errorf("node.installer and node.compose_file must not be empty")
	}
	if len(s.Node.Services) == 0 {
		return fmt.Errorf("node.services must list at least one compose service")
	}
	if len(s.Packages.Baseline) == 0 {
		return fmt.Errorf("packages.baseline must list at least one package")
	}
	if s.Packages.Monitor == "" {
		return fmt.Errorf("packages.monitor must not be empty")
	}
	for name, val := range map[string]string{
		"timeouts.step":        s.Timeouts.Step,
		"timeouts.docker_wait": s.Timeouts.DockerWait,
	} {
		if val == "" {
			continue
		}
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("%s %q is not a duration: %w", name, val, err)
		}
	}
	return nil
}

// repoDirName returns the directory name `git clone <url>` would create.
func repoDirName(url string) string {
	base := path.Base(strings.TrimRight(url, "/"))
	return strings.TrimSuffix(base, ".git")
}
