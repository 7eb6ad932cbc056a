package power

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
	"github.com/quartzproof/rigprep/sysd"
)

// Rebooter requests a system reboot. Satisfied by sysd.Client.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// Reboot asks logind for a reboot. This is the terminal step of the
// pre-reboot phase: logind answers as soon as the request is accepted,
// which leaves the process just enough time to print its summary while
// the shutdown is in flight. Nothing is ever scheduled after it.
type Reboot struct {
	step.BaseStep
	rebooter Rebooter
}

// NewReboot creates the reboot step. A nil rebooter selects the real
// systemd connection.
func NewReboot(rebooter Rebooter) *Reboot {
	if rebooter == nil {
		rebooter = sysd.NewClient()
	}
	return &Reboot{
		BaseStep: step.NewBaseStep("reboot", "Reboot the machine to activate the GPU driver"),
		rebooter: rebooter,
	}
}

func (s *Reboot) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	if rt.DryRun() {
		log.Infof("dry-run: would request a reboot via logind")
		return "would reboot via logind", false, nil
	}

	log.Warnf("requesting a reboot, the machine goes down momentarily")
	if err := s.rebooter.Reboot(ctx); err != nil {
		return "", false, errors.Wrap(err, "reboot request failed")
	}
	return "reboot requested via logind", false, nil
}

var _ step.Step = (*Reboot)(nil)
