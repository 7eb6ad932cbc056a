package phase

import (
	"github.com/quartzproof/rigprep/common"
	"github.com/quartzproof/rigprep/config"
	"github.com/quartzproof/rigprep/precheck"
	"github.com/quartzproof/rigprep/step/bench"
	"github.com/quartzproof/rigprep/step/noderepo"
	"github.com/quartzproof/rigprep/step/pkgs"
	"github.com/quartzproof/rigprep/step/power"
	"github.com/quartzproof/rigprep/step/prover"
	"github.com/quartzproof/rigprep/step/rust"
)

func init() {
	if err := Register(common.PhasePreReboot, NewPreReboot); err != nil {
		panic(err)
	}
}

// PreReboot takes a fresh instance from bare OS to the reboot that
// activates the GPU driver.
type PreReboot struct {
	BasePhase
}

// NewPreReboot assembles the pre-reboot phase from the run's settings.
// The step order matters: everything the benchmark needs is installed
// before the companion repository's installer runs, and the reboot is
// always last.
func NewPreReboot(settings *config.Settings) Phase {
	p := &PreReboot{
		BasePhase: NewBasePhase(common.PhasePreReboot, "Provision the instance up to the driver-activation reboot"),
	}

	p.AddPrecondition(precheck.NewRootPrivilege(nil))
	p.AddPrecondition(precheck.NewOSRelease(nil))
	p.AddPrecondition(precheck.NewFreeSpace(nil))

	user := settings.User.Name
	p.AddStep(rust.NewInstallToolchain(user))
	p.AddStep(pkgs.NewInstallBase())
	p.AddStep(pkgs.NewInstallMonitor())
	p.AddStep(prover.NewInstallCLI())
	p.AddStep(prover.NewInstallPlugin())
	p.AddStep(bench.NewInstallClient(user))
	p.AddStep(noderepo.NewSyncRepo(user))
	p.AddStep(noderepo.NewRunInstaller())
	p.AddStep(power.NewReboot(nil))
	return p
}
