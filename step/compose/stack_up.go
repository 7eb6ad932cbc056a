package compose

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/step"
	"github.com/quartzproof/rigprep/sysd"
)

const dockerUnit = "docker.service"

// UnitWaiter waits for a systemd unit to become active. Satisfied by
// sysd.Client.
type UnitWaiter interface {
	WaitUnitActive(ctx context.Context, unit string, timeout time.Duration) error
}

// StackUp brings up the container stack the companion repository
// defines. Compose is only invoked once docker.service reports active:
// right after a reboot the daemon can lag the session by a good few
// seconds.
type StackUp struct {
	step.BaseStep
	waiter UnitWaiter
}

// NewStackUp creates the stack step. A nil waiter selects the real
// systemd connection.
func NewStackUp(waiter UnitWaiter) *StackUp {
	if waiter == nil {
		waiter = sysd.NewClient()
	}
	return &StackUp{
		BaseStep: step.NewBaseStep("stack-up", "Bring up the prover container stack"),
		waiter:   waiter,
	}
}

func (s *StackUp) Init(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) error {
	if err := s.BaseStep.Init(ctx, rt, log); err != nil {
		return err
	}
	if rt.DryRun() {
		log.Infof("dry-run: skipping the wait for %s", dockerUnit)
		return nil
	}
	timeout := rt.Settings().Timeouts.DockerWaitTimeout()
	log.Infof("waiting up to %s for %s to become active", timeout, dockerUnit)
	if err := s.waiter.WaitUnitActive(ctx, dockerUnit, timeout); err != nil {
		return errors.Wrap(err, "the container runtime is not ready")
	}
	return nil
}

func (s *StackUp) Execute(ctx context.Context, rt runtime.Runtime, log *logrus.Entry) (string, bool, error) {
	node := rt.Settings().Node
	composeFile := filepath.Join(node.Dir, node.ComposeFile)

	docker, err := rt.ResolveTool("docker")
	if err != nil {
		return "", false, errors.Wrap(err, "docker is required to bring up the stack")
	}

	if running, ok := s.probeServices(ctx, rt, docker, composeFile, node.Services); ok && running {
		log.Infof("services already running: %s", strings.Join(node.Services, ", "))
		return fmt.Sprintf("services already running: %s", strings.Join(node.Services, ", ")), true, nil
	}

	log.Infof("bringing up the stack from %s", composeFile)
	if out, err := s.RunCommand(ctx, rt, docker, "compose", "-f", composeFile, "up", "-d"); err != nil {
		return out, false, errors.Wrap(err, "compose up failed")
	}
	return fmt.Sprintf("stack up from %s", node.ComposeFile), false, nil
}

// probeServices asks compose for its service states. ok is false when
// the probe itself could not run, which is the normal case before the
// first up; running is true only when every expected service reports
// running.
func (s *StackUp) probeServices(ctx context.Context, rt runtime.Runtime, docker, composeFile string, services []string) (running, ok bool) {
	stdout, _, code, err := rt.Runner().Run(ctx, docker, "compose", "-f", composeFile, "ps", "--format", "json")
	if err != nil || code != 0 {
		return false, false
	}
	return servicesRunning(stdout, services), true
}

// servicesRunning parses compose ps JSON output, which is a plain array
// in older compose releases and newline-delimited objects in newer ones.
func servicesRunning(out string, services []string) bool {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" || len(services) == 0 {
		return false
	}

	var entries []gjson.Result
	if parsed := gjson.Parse(trimmed); parsed.IsArray() {
		entries = parsed.Array()
	} else {
		for _, line := range strings.Split(trimmed, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			entries = append(entries, gjson.Parse(line))
		}
	}

	up := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Get("State").String() == "running" {
			up[e.Get("Service").String()] = true
		}
	}
	for _, svc := range services {
		if !up[svc] {
			return false
		}
	}
	return true
}

var _ step.Step = (*StackUp)(nil)
