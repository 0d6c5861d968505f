//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"strconv"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// KillTree terminates pid and all of its children with taskkill /T.
func KillTree(pid int) error {
	if err := checkPID(pid); err != nil {
		return err
	}
	// #nosec G204
	out, err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).CombinedOutput()
	if err != nil {
		return fmt.Errorf("taskkill pid %d: %w: %s", pid, err, out)
	}
	return nil
}

func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gopsproc.PidExists(int32(pid))
	return err == nil && ok
}
