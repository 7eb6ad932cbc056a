package runner

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/executor"
	"github.com/quartzproof/rigprep/util"
)

// cmdRunner implements the Runner interface over an executor.Executor.
type cmdRunner struct {
	exec   executor.Executor
	log    *logrus.Entry
	dryRun bool
}

// Option configures a Runner created by NewCmdRunner.
type Option func(*cmdRunner)

// WithDryRun makes the runner log every command instead of executing it.
// Dry runs report exit code 0 and empty output.
func WithDryRun(dryRun bool) Option {
	return func(r *cmdRunner) {
		r.dryRun = dryRun
	}
}

// WithLogger attaches the log entry used for command tracing.
func WithLogger(entry *logrus.Entry) Option {
	return func(r *cmdRunner) {
		if entry != nil {
			r.log = entry
		}
	}
}

// NewCmdRunner creates a new Runner that uses the given executor.
func NewCmdRunner(exec executor.Executor, opts ...Option) Runner {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &cmdRunner{
		exec: exec,
		log:  logrus.NewEntry(discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command using the underlying executor.
func (r *cmdRunner) Run(ctx context.Context, name string, args ...string) (string, string, int, error) {
	display := displayCommand(name, args...)
	if r.dryRun {
		r.log.Infof("dry-run: %s", display)
		return "", "", 0, nil
	}

	r.log.Debugf("exec: %s", display)
	stdout, stderr, exitCode, err := r.exec.Execute(ctx, name, args...)
	if err != nil {
		r.log.WithError(err).Debugf("exec failed to start: %s", display)
		return stdout, stderr, exitCode, err
	}
	r.log.Debugf("exec done (exit %d): %s", exitCode, display)
	return stdout, stderr, exitCode, nil
}

// RunShell executes a script through bash in the invoking context.
func (r *cmdRunner) RunShell(ctx context.Context, script string) (string, string, int, error) {
	return r.Run(ctx, "/bin/bash", "-c", script)
}

// RunAs executes a script through bash as the given user. The script is a
// single argv element, so no quoting is required of callers.
func (r *cmdRunner) RunAs(ctx context.Context, user string, script string) (string, string, int, error) {
	if user == "" {
		return r.RunShell(ctx, script)
	}
	return r.Run(ctx, "sudo", "-u", user, "-H", "/bin/bash", "-c", script)
}

// maxDisplayLen bounds traced command lines; installer scripts passed as
// a single argv element would otherwise flood the debug log.
const maxDisplayLen = 512

func displayCommand(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return util.TruncateString(name+" "+strings.Join(args, " "), maxDisplayLen, "...")
}
