package process

import (
	"errors"
	"fmt"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// ErrInvalidPID is returned for pids that must never be signaled (0, 1 and
// negatives would address process groups or every process).
var ErrInvalidPID = errors.New("invalid pid")

func checkPID(pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return nil
}

// Descendants returns the pids of all processes below pid, parents before
// children. Lookup failures end the walk early; the result is best-effort.
func Descendants(pid int) []int {
	if pid <= 1 {
		return nil
	}
	var out []int
	seen := map[int32]bool{int32(pid): true}
	queue := []int32{int32(pid)}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		p, err := gopsproc.NewProcess(cur)
		if err != nil {
			continue
		}
		children, err := p.Children()
		if err != nil {
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			out = append(out, int(c.Pid))
			queue = append(queue, c.Pid)
		}
	}
	return out
}
