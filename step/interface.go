package step

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/runtime"
)

// Step is one idempotent unit of provisioning work within a phase.
//
// Steps are constructed fresh on every invocation and carry no state
// between runs. Anything a later step needs from an earlier one must be
// a filesystem or OS side effect (an installed binary, a cloned
// directory), never an in-memory value.
type Step interface {
	// Name returns the short machine-friendly name of the step.
	Name() string

	// Description returns a human-readable description of what the step does.
	Description() string

	// RunAsUser returns the account the step's commands run as. Empty
	// means the invoking (privileged) context.
	RunAsUser() string

	// Tolerable reports whether a failure of this step is downgraded to
	// a warning instead of aborting the remainder of the phase.
	Tolerable() bool

	// Init validates the step's inputs and prepares anything Execute
	// needs. An Init error aborts the phase before any step executes.
	Init(ctx context.Context, rt runtime.Runtime, logger *logrus.Entry) error

	// Execute performs the step's action. A true skipped return with a
	// nil error means the step's probe found the desired state already
	// in place and nothing was changed. output carries a short result
	// line for the run summary.
	Execute(ctx context.Context, rt runtime.Runtime, logger *logrus.Entry) (output string, skipped bool, err error)

	// Post runs after Execute regardless of its result and receives
	// Execute's error, if any.
	Post(ctx context.Context, rt runtime.Runtime, logger *logrus.Entry, executeErr error) error
}
