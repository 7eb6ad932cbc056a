package config

import (
	"path/filepath"
	"time"

	"github.com/quartzproof/rigprep/util"
)

// Default values for every setting. The pins (toolchain, plugin version)
// are deliberate: the benchmark numbers are only comparable across rigs
// when everything underneath them is identical.
const (
	DefaultOSID        = "ubuntu"
	DefaultOSVersionID = "24.04"

	DefaultDiskMount  = "/"
	DefaultMinFreeGiB = 200

	DefaultUserName = "ubuntu"

	DefaultRustToolchain    = "1.79.0"
	DefaultRustInstallerURL = "https://sh.rustup.rs"

	DefaultProverInstallerURL  = "https://install.quartzproof.io"
	DefaultProverPlugin        = "cuda-prover"
	DefaultProverPluginVersion = "2.4.1"

	DefaultBenchRepoURL     = "https://github.com/quartzproof/quartz-bench"
	DefaultBenchBranch      = "perf/gpu-batch"
	DefaultBenchCrate       = "quartz-bench"
	DefaultBenchConcurrency = 8
	DefaultBenchLogLevel    = "debug"

	DefaultNodeRepoURL     = "https://github.com/quartzproof/quartz-node"
	DefaultNodeBranch      = "gpu-compose"
	DefaultNodeInstaller   = "scripts/install-gpu-stack.sh"
	DefaultNodeComposeFile = "docker-compose.yml"

	DefaultMonitorPackage = "nvtop"

	DefaultStepTimeout       = 45 * time.Minute
	DefaultDockerWaitTimeout = 3 * time.Minute
)

// DefaultBaselinePackages are the build prerequisites for the benchmark
// client plus the `just` task runner the companion repo's scripts expect.
func DefaultBaselinePackages() []string {
	return []string{"build-essential", "pkg-config", "libssl-dev", "just"}
}

// DefaultNodeServices are the compose services expected to be running once
// the node stack is up.
func DefaultNodeServices() []string {
	return []string{"prover-node"}
}

// DefaultSettings returns a fully populated Settings value.
func DefaultSettings() *Settings {
	s := &Settings{}
	s.SetDefaults()
	return s
}

// SetDefaults fills every zero-valued field. It is idempotent and safe to
// call on a partially populated Settings, which is how file overrides are
// merged: unmarshal first, default the rest.
func (s *Settings) SetDefaults() {
	if s.OS.ID == "" {
		s.OS.ID = DefaultOSID
	}
	if s.OS.VersionID == "" {
		s.OS.VersionID = DefaultOSVersionID
	}

	if s.Disk.Mount == "" {
		s.Disk.Mount = DefaultDiskMount
	}
	if s.Disk.MinFreeGiB == 0 {
		s.Disk.MinFreeGiB = DefaultMinFreeGiB
	}

	if s.User.Name == "" {
		s.User.Name = DefaultUserName
	}

	if s.Rust.Toolchain == "" {
		s.Rust.Toolchain = DefaultRustToolchain
	}
	if s.Rust.InstallerURL == "" {
		s.Rust.InstallerURL = DefaultRustInstallerURL
	}

	if s.Prover.InstallerURL == "" {
		s.Prover.InstallerURL = DefaultProverInstallerURL
	}
	if s.Prover.Plugin == "" {
		s.Prover.Plugin = DefaultProverPlugin
	}
	if s.Prover.PluginVersion == "" {
		s.Prover.PluginVersion = DefaultProverPluginVersion
	}

	if s.Bench.RepoURL == "" {
		s.Bench.RepoURL = DefaultBenchRepoURL
	}
	if s.Bench.Branch == "" {
		s.Bench.Branch = DefaultBenchBranch
	}
	if s.Bench.Crate == "" {
		s.Bench.Crate = DefaultBenchCrate
	}
	if s.Bench.Concurrency == 0 {
		s.Bench.Concurrency = DefaultBenchConcurrency
	}
	if s.Bench.LogLevel == "" {
		s.Bench.LogLevel = DefaultBenchLogLevel
	}

	if s.Node.RepoURL == "" {
		s.Node.RepoURL = DefaultNodeRepoURL
	}
	if s.Node.Branch == "" {
		s.Node.Branch = DefaultNodeBranch
	}
	if s.Node.Dir == "" {
		// git clone's directory for the repo URL, under the operating
		// user's home.
		s.Node.Dir = filepath.Join(s.User.HomeDir(), repoDirName(s.Node.RepoURL))
	}
	if s.Node.Installer == "" {
		s.Node.Installer = DefaultNodeInstaller
	}
	if s.Node.ComposeFile == "" {
		s.Node.ComposeFile = DefaultNodeComposeFile
	}
	if len(s.Node.Services) == 0 {
		s.Node.Services = DefaultNodeServices()
	}

	if len(s.Packages.Baseline) == 0 {
		s.Packages.Baseline = DefaultBaselinePackages()
	}
	// A file override that repeats a package would repeat it on the apt
	// command line.
	s.Packages.Baseline = util.UniqueStrings(s.Packages.Baseline)
	if s.Packages.Monitor == "" {
		s.Packages.Monitor = DefaultMonitorPackage
	}
}
