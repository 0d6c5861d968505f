//go:build !windows

package process

import (
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func waitUntil(timeout, step time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(step)
	}
	return cond()
}

func startSpec(t *testing.T, s Spec) *exec.Cmd {
	t.Helper()
	cmd := s.BuildCommand()
	if err := cmd.Start(); err != nil {
		t.Fatalf("start %s: %v", s.Name, err)
	}
	return cmd
}

func TestKillTree_TerminatesProcess(t *testing.T) {
	cmd := startSpec(t, Spec{Name: "sleeper", Command: "sleep", Args: []string{"30"}})
	pid := cmd.Process.Pid
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if !Alive(pid) {
		t.Fatalf("expected pid %d alive", pid)
	}
	if err := KillTree(pid); err != nil {
		t.Fatalf("KillTree: %v", err)
	}
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("process %d did not exit after KillTree", pid)
	}
}

func TestKillTree_TerminatesDescendants(t *testing.T) {
	// The shell forks a background sleep; both must go away.
	cmd := startSpec(t, Spec{Name: "tree", Command: "sleep 30 & echo $! ; wait"})
	pid := cmd.Process.Pid
	go func() { _ = cmd.Wait() }()

	var child int
	ok := waitUntil(2*time.Second, 20*time.Millisecond, func() bool {
		d := Descendants(pid)
		if len(d) == 0 {
			return false
		}
		child = d[0]
		return true
	})
	if !ok {
		t.Skip("descendant lookup unavailable on this system")
	}
	if err := KillTree(pid); err != nil {
		t.Fatalf("KillTree: %v", err)
	}
	if !waitUntil(3*time.Second, 20*time.Millisecond, func() bool { return !Alive(child) || isZombie(child) }) {
		t.Fatalf("descendant %d still alive", child)
	}
}

// isZombie treats an exited but unreaped descendant as gone.
func isZombie(pid int) bool {
	st := Inspect(pid)
	return st.Alive && st.Cmdline == ""
}

func TestKillTree_DeadPidReturnsError(t *testing.T) {
	err := KillTree(9999999)
	if err == nil {
		t.Fatalf("expected error for non-existent pid")
	}
	if !errors.Is(err, syscall.ESRCH) {
		t.Fatalf("expected ESRCH, got %v", err)
	}
}

func TestKillTree_RejectsReservedPids(t *testing.T) {
	for _, pid := range []int{-5, 0, 1} {
		if err := KillTree(pid); !errors.Is(err, ErrInvalidPID) {
			t.Fatalf("pid %d: expected ErrInvalidPID, got %v", pid, err)
		}
	}
}

func TestAlive(t *testing.T) {
	if Alive(0) || Alive(-1) {
		t.Fatalf("non-positive pids are never alive")
	}
	if Alive(9999999) {
		t.Fatalf("pid 9999999 should not exist")
	}
	if !Alive(syscall.Getpid()) {
		t.Fatalf("own pid should be alive")
	}
}

func TestInspect(t *testing.T) {
	cmd := startSpec(t, Spec{Name: "sleeper", Command: "sleep", Args: []string{"30"}})
	defer func() {
		_ = KillTree(cmd.Process.Pid)
		_ = cmd.Wait()
	}()
	st := Inspect(cmd.Process.Pid)
	if !st.Alive || st.PID != cmd.Process.Pid {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.StartedAt.IsZero() {
		t.Fatalf("expected start time")
	}
	if time.Since(st.StartedAt) > time.Minute {
		t.Fatalf("start time too old: %v", st.StartedAt)
	}

	gone := Inspect(9999999)
	if gone.Alive || !gone.StartedAt.IsZero() {
		t.Fatalf("unexpected status for missing pid %+v", gone)
	}
}
