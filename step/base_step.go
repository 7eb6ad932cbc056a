package step

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/runtime"
)

// maxErrDetail bounds how much command output is folded into an error
// message. The full output is still in the debug log.
const maxErrDetail = 400

// BaseStep provides common fields and default method implementations for
// steps. Concrete steps embed it and override Execute (and, where needed,
// Init and Post).
type BaseStep struct {
	NameField        string
	DescriptionField string
	RunAsField       string // empty means the invoking (privileged) context
	TolerableField   bool
}

// NewBaseStep is a helper constructor for initializing common BaseStep
// fields. Concrete steps call this in their own constructors and set
// RunAsField / TolerableField as needed.
func NewBaseStep(name, description string) BaseStep {
	return BaseStep{
		NameField:        name,
		DescriptionField: description,
	}
}

// Name returns the name of the step.
func (bs *BaseStep) Name() string {
	return bs.NameField
}

// Description returns the description of the step.
func (bs *BaseStep) Description() string {
	return bs.DescriptionField
}

// RunAsUser returns the account the step's commands run as.
func (bs *BaseStep) RunAsUser() string {
	return bs.RunAsField
}

// Tolerable reports whether a failure of this step is downgraded to a
// warning.
func (bs *BaseStep) Tolerable() bool {
	return bs.TolerableField
}

// Init validates the shared step inputs. Concrete steps with their own
// Init should call this first, then perform their specific checks.
func (bs *BaseStep) Init(ctx context.Context, rt runtime.Runtime, logger *logrus.Entry) error {
	if rt == nil {
		return errors.Errorf("runtime cannot be nil for step '%s'", bs.NameField)
	}
	if logger != nil {
		logger.Debugf("step [%s] initialized", bs.NameField)
	}
	return nil
}

// Execute is overridden by concrete steps. The base implementation
// returns an error so a step that forgot to implement it fails loudly.
func (bs *BaseStep) Execute(ctx context.Context, rt runtime.Runtime, logger *logrus.Entry) (output string, skipped bool, err error) {
	if logger != nil {
		logger.Warnf("BaseStep.Execute called directly for step [%s], this should be overridden by a concrete step implementation", bs.NameField)
	}
	return "", false, errors.Errorf("Execute not implemented for step '%s'", bs.NameField)
}

// Post is a hook for post-execution actions. The base implementation is
// a no-op.
func (bs *BaseStep) Post(ctx context.Context, rt runtime.Runtime, logger *logrus.Entry, executeErr error) error {
	if logger != nil {
		logger.Debugf("step [%s] post hook, execute error: %v", bs.NameField, executeErr)
	}
	return nil
}

// RunScript runs a shell script through the runtime's runner in the
// step's run-as context and converts a non-zero exit into an error
// carrying the exit code and the tail of the command's output.
func (bs *BaseStep) RunScript(ctx context.Context, rt runtime.Runtime, script string) (string, error) {
	stdout, stderr, code, err := rt.Runner().RunAs(ctx, bs.RunAsField, script)
	if err != nil {
		return stdout, err
	}
	if code != 0 {
		return stdout, exitError(code, stdout, stderr)
	}
	return stdout, nil
}

// RunCommand runs an explicit argv through the runtime's runner in the
// invoking (privileged) context, with the same exit conversion as
// RunScript. Probes that need to inspect exit codes themselves should
// use rt.Runner() directly instead.
func (bs *BaseStep) RunCommand(ctx context.Context, rt runtime.Runtime, name string, args ...string) (string, error) {
	stdout, stderr, code, err := rt.Runner().Run(ctx, name, args...)
	if err != nil {
		return stdout, err
	}
	if code != 0 {
		return stdout, exitError(code, stdout, stderr)
	}
	return stdout, nil
}

func exitError(code int, stdout, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = strings.TrimSpace(stdout)
	}
	if detail == "" {
		return errors.Errorf("command exited with code %d", code)
	}
	return errors.Errorf("command exited with code %d: %s", code, tailString(detail, maxErrDetail))
}

// tailString keeps the last max bytes of s, where the useful part of a
// failed command's output usually is.
func tailString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
