package phase

import (
	"github.com/quartzproof/rigprep/common"
	"github.com/quartzproof/rigprep/config"
	"github.com/quartzproof/rigprep/precheck"
	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step/bench"
	"github.com/quartzproof/rigprep/step/compose"
)

func init() {
	if err := Register(common.PhasePostReboot, NewPostReboot); err != nil {
		panic(err)
	}
}

// PostReboot brings up the container stack and runs the benchmark once
// the driver-activation reboot is behind us.
type PostReboot struct {
	BasePhase
}

// NewPostReboot assembles the post-reboot phase from the run's settings.
// The companion repository clone is the sole hand-off contract from the
// pre-reboot phase, so its presence is the phase's entry check.
func NewPostReboot(settings *config.Settings) Phase {
	p := &PostReboot{
		BasePhase: NewBasePhase(common.PhasePostReboot, "Bring up the container stack and run the benchmark"),
	}

	p.AddPrecondition(precheck.NewRootPrivilege(nil))
	p.AddPrecondition(precheck.NewArtifactPresent(nil, "node-repo-clone",
		func(rt runtime.Runtime) string { return rt.Settings().Node.Dir },
		"run the pre-reboot phase and reboot before invoking post-reboot"))

	p.AddStep(compose.NewStackUp(nil))
	p.AddStep(bench.NewRunBenchmark(settings.User.Name))
	return p
}
