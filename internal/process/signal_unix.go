//go:build !windows

package process

import (
	"errors"
	"fmt"
	"syscall"
)

// KillTree sends SIGTERM to the process tree rooted at pid: its process group,
// the pid itself and every descendant found, deepest first. Descendants are
// collected before anything is signaled since they get reparented once their
// parent exits.
// An error is returned only when neither the group nor the pid accepted the
// signal, e.g. the process is gone (ESRCH) or belongs to another user (EPERM).
func KillTree(pid int) error {
	return killTree(pid, syscall.SIGTERM)
}

func killTree(pid int, sig syscall.Signal) error {
	if err := checkPID(pid); err != nil {
		return err
	}
	desc := Descendants(pid)
	groupErr := syscall.Kill(-pid, sig)
	pidErr := syscall.Kill(pid, sig)
	for i := len(desc) - 1; i >= 0; i-- {
		_ = syscall.Kill(desc[i], sig)
	}
	if groupErr != nil && pidErr != nil {
		return fmt.Errorf("signal %s to pid %d: %w", sig, pid, pidErr)
	}
	return nil
}

// Alive reports whether a process with pid exists. A process owned by another
// user still counts as alive.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
