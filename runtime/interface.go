package runtime

import (
	"github.com/quartzproof/rigprep/config"
	"github.com/quartzproof/rigprep/runner"
)

// Runtime gives steps and prechecks access to the run-wide collaborators:
// the effective settings, the command runner and the tool-path cache.
type Runtime interface {
	// Settings returns the effective configuration for this run.
	Settings() *config.Settings

	// Runner returns the command runner steps execute through.
	Runner() runner.Runner

	// ResolveTool returns the absolute path of an external tool. It
	// consults PATH, then the given extra directories, then the
	// conventional install directories, and caches the answer for the
	// rest of the run. In dry-run mode an unresolvable tool resolves to
	// its bare name so the full command plan can still be logged.
	ResolveTool(name string, extraDirs ...string) (string, error)

	// RegisterTool records the path an install step just created, so
	// later steps resolve the tool without re-probing the filesystem.
	RegisterTool(name string, path string)

	// WorkDir is the scratch directory for downloaded installers.
	WorkDir() string

	Verbose() bool
	DryRun() bool

	// RunID identifies this invocation in log fields and the outcome.
	RunID() string
}
