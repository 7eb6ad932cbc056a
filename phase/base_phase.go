package phase

import (
	"github.com/quartzproof/rigprep/precheck"
	"github.com/quartzproof/rigprep/step"
)

// BasePhase provides the common plumbing for phases: a name, a
// description, and the ordered precondition and step lists.
type BasePhase struct {
	name          string
	description   string
	preconditions []precheck.Check
	steps         []step.Step
}

// NewBasePhase creates a new BasePhase. Preconditions and steps are
// added by the concrete phase's constructor.
func NewBasePhase(name, description string) BasePhase {
	return BasePhase{
		name:          name,
		description:   description,
		preconditions: make([]precheck.Check, 0),
		steps:         make([]step.Step, 0),
	}
}

// Name returns the name of the phase.
func (bp *BasePhase) Name() string {
	return bp.name
}

// Description returns the description of the phase.
func (bp *BasePhase) Description() string {
	return bp.description
}

// Preconditions returns the phase's entry checks. A copy is returned to
// prevent external modification.
func (bp *BasePhase) Preconditions() []precheck.Check {
	checks := make([]precheck.Check, len(bp.preconditions))
	copy(checks, bp.preconditions)
	return checks
}

// Steps returns the phase's steps in execution order. A copy is
// returned to prevent external modification.
func (bp *BasePhase) Steps() []step.Step {
	steps := make([]step.Step, len(bp.steps))
	copy(steps, bp.steps)
	return steps
}

// AddPrecondition appends an entry check.
func (bp *BasePhase) AddPrecondition(c precheck.Check) {
	bp.preconditions = append(bp.preconditions, c)
}

// AddStep appends a step to the execution list.
func (bp *BasePhase) AddStep(s step.Step) {
	bp.steps = append(bp.steps, s)
}
