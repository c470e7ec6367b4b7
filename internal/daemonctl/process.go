package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"valier/internal/config"
)

// PIDPath returns the pid file written by a running daemon.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "valier.pid")
}

// ReadPID returns the daemon pid, or 0 when no pid file exists.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s", path)
	}
	return pid, nil
}

// ProcessAlive reports whether pid names a live process.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Stop sends SIGTERM to the daemon recorded in pidPath and waits for it to exit.
func Stop(pidPath string, timeout time.Duration) (bool, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return false, err
	}
	if !ProcessAlive(pid) {
		return false, nil
	}
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		return false, fmt.Errorf("signal daemon: %w", err)
	}
	return true, WaitForShutdown(pid, timeout)
}

// WaitForShutdown polls until pid exits or timeout elapses.
func WaitForShutdown(pid int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !ProcessAlive(pid) {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("daemon did not stop: pid %d still running", pid)
}
