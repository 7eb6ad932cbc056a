package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/quartzproof/rigprep/cache"
	"github.com/quartzproof/rigprep/common"
	"github.com/quartzproof/rigprep/config"
	"github.com/quartzproof/rigprep/runner"
	"github.com/quartzproof/rigprep/util"
)

// provisionRuntime implements the Runtime interface.
type provisionRuntime struct {
	settings *config.Settings
	runner   runner.Runner
	workDir  string
	verbose  bool
	dryRun   bool
	runID    string

	tools *cache.Cache[string, string]
}

// Config for creating a new provisionRuntime.
type Config struct {
	Settings *config.Settings
	Runner   runner.Runner
	WorkDir  string
	Verbose  bool
	DryRun   bool
}

// NewRuntime creates a new instance of Runtime and ensures the scratch
// directory exists.
func NewRuntime(cfg Config) (Runtime, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("runtime: settings cannot be nil")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runtime: runner cannot be nil")
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = common.GetTmpDir()
	}
	if err := util.EnsureDir(cfg.WorkDir); err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	return &provisionRuntime{
		settings: cfg.Settings,
		runner:   cfg.Runner,
		workDir:  cfg.WorkDir,
		verbose:  cfg.Verbose,
		dryRun:   cfg.DryRun,
		runID:    uuid.New().String(),
		tools:    cache.New[string, string](),
	}, nil
}

func (r *provisionRuntime) Settings() *config.Settings {
	return r.settings
}

func (r *provisionRuntime) Runner() runner.Runner {
	return r.runner
}

func (r *provisionRuntime) WorkDir() string {
	return r.workDir
}

func (r *provisionRuntime) Verbose() bool {
	return r.verbose
}

func (r *provisionRuntime) DryRun() bool {
	return r.dryRun
}

func (r *provisionRuntime) RunID() string {
	return r.runID
}

func (r *provisionRuntime) RegisterTool(name string, path string) {
	r.tools.Set(name, path)
}

func (r *provisionRuntime) ResolveTool(name string, extraDirs ...string) (string, error) {
	path, err := r.tools.GetOrCompute(name, func() (string, error) {
		return lookupTool(name, extraDirs)
	})
	if err != nil {
		if r.dryRun {
			return name, nil
		}
		return "", err
	}
	return path, nil
}

// defaultToolDirs are searched after PATH and the caller's hints. The
// sequencer runs as root through sudo, whose secure_path may omit
// /usr/local/bin where the prover installer places its binary.
func defaultToolDirs() []string {
	return []string{"/usr/local/bin", "/usr/bin", "/usr/sbin", "/snap/bin"}
}

func lookupTool(name string, extraDirs []string) (string, error) {
	if filepath.IsAbs(name) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("tool %s does not exist or is not executable", name)
	}

	if path, err := exec.LookPath(name); err == nil {
		if abs, absErr := filepath.Abs(path); absErr == nil {
			return abs, nil
		}
		return path, nil
	}

	searched := append(append([]string{}, extraDirs...), defaultToolDirs()...)
	for _, dir := range searched {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("tool %q not found on PATH or in %v", name, searched)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
