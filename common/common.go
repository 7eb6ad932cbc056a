package common

import (
	"io/fs"
	"path/filepath"
)

const (
	AppName    = "rigprep"
	TmpDirBase = "/tmp/"
)

// GetTmpDir returns the scratch directory used for downloaded installers.
func GetTmpDir() string {
	return filepath.Join(TmpDirBase, AppName) + "/"
}

// Canonical names of the two provisioning phases. The positional CLI
// argument is matched against PhasePostReboot; an absent argument selects
// PhasePreReboot.
const (
	PhasePreReboot  = "pre-reboot"
	PhasePostReboot = "post-reboot"
)

// Structured log field names shared by the sequencer and the steps.
const (
	LogFieldApp       = "app"
	LogFieldRunID     = "run_id"
	LogFieldPhase     = "phase"
	LogFieldStepName  = "step"
	LogFieldStepIndex = "step_index"
	LogFieldCheckName = "check"
	LogFieldUser      = "run_as"
)

const (
	// FileMode0755 represents rwxr-xr-x
	FileMode0755 fs.FileMode = 0755
	// FileMode0644 represents rw-r--r--
	FileMode0644 fs.FileMode = 0644
	// FileMode0600 represents rw-------
	FileMode0600 fs.FileMode = 0600
	// FileMode0700 represents rwx------
	FileMode0700 fs.FileMode = 0700
)

// Process exit codes. Zero is full success; the non-zero codes keep the
// failure families apart so wrapper automation can tell a refused start
// from a broken step from a benchmark that merely needs a re-run.
const (
	ExitSuccess            = 0
	ExitConfigError        = 1
	ExitPreconditionFailed = 2
	ExitStepFailed         = 3
	ExitBenchmarkFailed    = 4
)

// StepState tracks the lifecycle of one provisioning step.
type StepState int

const (
	StatePending StepState = iota
	StateRunning
	StateSuccess
	StateFailed
	StateSkipped
	StateWarned
)

func (s StepState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	case StateSkipped:
		return "Skipped"
	case StateWarned:
		return "Warned"
	default:
		return "Unknown"
	}
}

// GiB is the number of bytes in one gibibyte, the unit the free-space
// precondition is configured in.
const GiB uint64 = 1 << 30
