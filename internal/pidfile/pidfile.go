// File: internal/pidfile/pidfile.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PID file guarding against two daemons sharing a working directory.

package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrRunning is returned when the PID file names a live process.
var ErrRunning = errors.New("daemon is already running")

// PIDFile is an acquired PID file.
type PIDFile struct {
	path string
	pid  int
}

// Acquire writes the current PID to path. A file naming a live process
// fails with ErrRunning; a stale one is replaced.
func Acquire(path string) (*PIDFile, error) {
	if data, err := os.ReadFile(path); err == nil {
		pid, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr == nil && pid > 0 && pid != os.Getpid() && alive(pid) {
			return nil, fmt.Errorf("%s: pid %d: %w", path, pid, ErrRunning)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale pid file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read pid file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pid file dir: %w", err)
		}
	}
	pid := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	return &PIDFile{path: path, pid: pid}, nil
}

// Path returns the file location.
func (p *PIDFile) Path() string { return p.path }

// PID returns the recorded process id.
func (p *PIDFile) PID() int { return p.pid }

// Release removes the file.
func (p *PIDFile) Release() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
