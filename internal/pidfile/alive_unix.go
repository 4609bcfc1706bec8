//go:build !windows
// +build !windows

package pidfile

import "golang.org/x/sys/unix"

// alive probes pid with signal 0. Only a clean answer counts as alive; a
// process we may not signal is treated as gone.
func alive(pid int) bool {
	return unix.Kill(pid, 0) == nil
}
