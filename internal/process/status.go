package process

import (
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Status is a point-in-time view of a recorded pid.
type Status struct {
	PID       int       `json:"pid"`
	Alive     bool      `json:"alive"`
	StartedAt time.Time `json:"started_at"`
	Cmdline   string    `json:"cmdline,omitempty"`
	Children  int       `json:"children"`
}

// Inspect reports liveness of pid and, when alive, its start time, command line
// and number of descendants.
func Inspect(pid int) Status {
	st := Status{PID: pid, Alive: Alive(pid)}
	if !st.Alive {
		return st
	}
	if sec := procStartUnix(pid); sec > 0 {
		st.StartedAt = time.Unix(sec, 0)
	}
	if p, err := gopsproc.NewProcess(int32(pid)); err == nil {
		st.Cmdline, _ = p.Cmdline()
	}
	st.Children = len(Descendants(pid))
	return st
}
