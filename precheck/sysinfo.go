package precheck

import (
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/quartzproof/rigprep/file"
	"github.com/quartzproof/rigprep/util"
)

const osReleasePath = "/etc/os-release"

// localSysInfo implements SysInfo against the running host.
type localSysInfo struct{}

// LocalSysInfo returns the SysInfo implementation used outside of tests.
func LocalSysInfo() SysInfo {
	return localSysInfo{}
}

func (localSysInfo) EffectiveUID() int {
	return os.Geteuid()
}

func (localSysInfo) OSRelease() (map[string]string, error) {
	content, err := util.ReadFileToString(osReleasePath)
	if err != nil {
		return nil, err
	}
	return parseOSRelease(content), nil
}

func (localSysInfo) FreeBytes(mount string) (uint64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(mount, &st); err != nil {
		return 0, errors.Wrapf(err, "statfs %s failed", mount)
	}
	return st.Bavail * uint64(st.Bsize), nil
}

func (localSysInfo) DirExists(path string) (bool, error) {
	return file.IsDir(path)
}

// parseOSRelease parses the KEY=VALUE lines of an os-release file.
// Values may be double-quoted; comments and malformed lines are ignored.
func parseOSRelease(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || key == "" {
			continue
		}
		fields[key] = strings.Trim(value, `"`)
	}
	return fields
}
