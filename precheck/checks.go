package precheck

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/quartzproof/rigprep/runtime"
	"github.com/quartzproof/rigprep/util"
)

// RootPrivilege verifies the process runs with effective UID 0. Every step
// either needs root directly (apt, the driver installer) or drops to the
// operating user explicitly through sudo.
type RootPrivilege struct {
	sys SysInfo
}

// NewRootPrivilege creates the check; a nil sys uses the real host.
func NewRootPrivilege(sys SysInfo) *RootPrivilege {
	if sys == nil {
		sys = LocalSysInfo()
	}
	return &RootPrivilege{sys: sys}
}

func (c *RootPrivilege) Name() string { return "root-privilege" }

func (c *RootPrivilege) Check(_ context.Context, _ runtime.Runtime) error {
	if uid := c.sys.EffectiveUID(); uid != 0 {
		return fmt.Errorf("effective UID is %d, this tool must run as root (re-run with sudo)", uid)
	}
	return nil
}

// OSRelease verifies the host distribution matches the configured pin.
// The driver installer and the package list are only known to work on the
// pinned release, so anything else is refused outright.
type OSRelease struct {
	sys SysInfo
}

// NewOSRelease creates the check; a nil sys uses the real host.
func NewOSRelease(sys SysInfo) *OSRelease {
	if sys == nil {
		sys = LocalSysInfo()
	}
	return &OSRelease{sys: sys}
}

func (c *OSRelease) Name() string { return "os-release" }

func (c *OSRelease) Check(_ context.Context, rt runtime.Runtime) error {
	want := rt.Settings().OS
	fields, err := c.sys.OSRelease()
	if err != nil {
		return err
	}

	id := fields["ID"]
	versionID := fields["VERSION_ID"]
	if id != want.ID || versionID != want.VersionID {
		return fmt.Errorf("unsupported OS: detected ID=%q VERSION_ID=%q, need ID=%q VERSION_ID=%q",
			id, versionID, want.ID, want.VersionID)
	}
	return nil
}

// FreeSpace verifies the configured mount has room for the toolchain,
// container images and proving artifacts before anything is downloaded.
type FreeSpace struct {
	sys SysInfo
}

// NewFreeSpace creates the check; a nil sys uses the real host.
func NewFreeSpace(sys SysInfo) *FreeSpace {
	if sys == nil {
		sys = LocalSysInfo()
	}
	return &FreeSpace{sys: sys}
}

func (c *FreeSpace) Name() string { return "free-disk-space" }

func (c *FreeSpace) Check(_ context.Context, rt runtime.Runtime) error {
	disk := rt.Settings().Disk
	free, err := c.sys.FreeBytes(disk.Mount)
	if err != nil {
		return err
	}

	if free < util.GiBToBytes(disk.MinFreeGiB) {
		return fmt.Errorf("insufficient disk space on %s: %d GiB free, need at least %d GiB",
			disk.Mount, util.BytesToGiB(free), disk.MinFreeGiB)
	}
	return nil
}

// ArtifactPresent verifies a directory created by an earlier phase still
// exists. Its presence is the only state handed across the reboot, so the
// error carries remediation for the operator instead of a bare "missing".
type ArtifactPresent struct {
	sys         SysInfo
	name        string
	path        func(rt runtime.Runtime) string
	remediation string
}

// NewArtifactPresent creates the check; a nil sys uses the real host. The
// path is resolved lazily so it can depend on the effective settings.
func NewArtifactPresent(sys SysInfo, name string, path func(runtime.Runtime) string, remediation string) *ArtifactPresent {
	if sys == nil {
		sys = LocalSysInfo()
	}
	return &ArtifactPresent{sys: sys, name: name, path: path, remediation: remediation}
}

func (c *ArtifactPresent) Name() string { return c.name }

func (c *ArtifactPresent) Check(_ context.Context, rt runtime.Runtime) error {
	path := c.path(rt)
	exists, err := c.sys.DirExists(path)
	if err != nil {
		return errors.Wrapf(err, "failed to inspect %s", path)
	}
	if !exists {
		return fmt.Errorf("%s does not exist: %s", path, c.remediation)
	}
	return nil
}
