package executor

import (
	"context"
)

// Executor runs commands on the machine being provisioned. The runner
// builds the argv; implementations only transport it.
type Executor interface {
	// Execute runs a command and returns captured stdout/stderr, the
	// process exit code and any transport error. A non-zero exit code is
	// not an error at this layer; failing to start the process is.
	Execute(ctx context.Context, name string, args ...string) (stdout string, stderr string, exitCode int, err error)
}
