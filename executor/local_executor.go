package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

// localExecutor implements the Executor interface via os/exec.
type localExecutor struct{}

// NewLocalExecutor creates a new Executor for local operations.
func NewLocalExecutor() Executor {
	return &localExecutor{}
}

func (l *localExecutor) Execute(ctx context.Context, name string, args ...string) (string, string, int, error) {
	if strings.TrimSpace(name) == "" {
		return "", "", 0, fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// A command killed by context expiry reports a signal, not an exit
	// code; surface the context error instead.
	if ctx.Err() != nil {
		return stdout.String(), stderr.String(), -1,
			fmt.Errorf("command '%s' interrupted: %w", name, ctx.Err())
	}

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// Not an exit status: the process never ran (binary missing,
			// permission denied).
			return stdout.String(), stderr.String(), 1,
				fmt.Errorf("failed to run command '%s %s': %w", name, strings.Join(args, " "), err)
		}
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			exitCode = status.ExitStatus()
		} else {
			exitCode = 1
		}
	}
	return stdout.String(), stderr.String(), exitCode, nil
}
