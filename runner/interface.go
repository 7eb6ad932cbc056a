package runner

import (
	"context"
)

// Runner executes the external tools the provisioning steps drive: apt,
// rustup, cargo, git, the prover CLI, docker compose. All methods block
// until the command finishes or ctx expires.
//
// A non-zero exit code is reported through exitCode, not err; err means
// the command could not be run at all. Callers that treat non-zero exits
// as failures convert at their layer, so probe commands can inspect the
// exit code without unwrapping errors.
type Runner interface {
	// Run executes a single command with an explicit argv.
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, exitCode int, err error)

	// RunShell executes a script through /bin/bash -c in the invoking
	// context (root for this tool).
	RunShell(ctx context.Context, script string) (stdout string, stderr string, exitCode int, err error)

	// RunAs executes a script through /bin/bash -c as another user via
	// sudo -H, so files the script creates land in that user's home. An
	// empty user falls back to RunShell.
	RunAs(ctx context.Context, user string, script string) (stdout string, stderr string, exitCode int, err error)
}
