package phase

import (
	"github.com/quartzproof/rigprep/config"
	"github.com/quartzproof/rigprep/precheck"
	"github.com/quartzproof/rigprep/step"
)

// Factory builds a fresh phase from the run's settings. Phases are
// constructed once per invocation and never reused; the reboot between
// the two phases guarantees no in-memory state survives anyway.
type Factory func(settings *config.Settings) Phase

// Phase is one of the two provisioning stages separated by the
// driver-activation reboot.
type Phase interface {
	Name() string
	Description() string

	// Preconditions gate phase entry. Every check must pass before any
	// step executes.
	Preconditions() []precheck.Check

	// Steps returns the phase's steps in execution order.
	Steps() []step.Step
}
