package precheck

import (
	"context"

	"github.com/quartzproof/rigprep/runtime"
)

// Check gates phase entry. A nil return means the precondition holds; an
// error carries the diagnostic shown to the operator. Checks only read
// system state, they never mutate it.
type Check interface {
	Name() string
	Check(ctx context.Context, rt runtime.Runtime) error
}

// SysInfo abstracts the host facts the checks read, so tests can fake
// them without root or a specific distribution.
type SysInfo interface {
	// EffectiveUID returns the effective user id of this process.
	EffectiveUID() int

	// OSRelease returns the parsed key/value pairs of /etc/os-release.
	OSRelease() (map[string]string, error)

	// FreeBytes returns the bytes available to unprivileged users on the
	// filesystem holding mount.
	FreeBytes(mount string) (uint64, error)

	// DirExists reports whether path exists and is a directory.
	DirExists(path string) (bool, error)
}
