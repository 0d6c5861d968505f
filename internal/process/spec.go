package process

import (
	"errors"
	"os/exec"
	"strings"
)

// shellMeta lists characters that force the command string through a shell.
const shellMeta = "|&;<>*?`$\"'(){}[]~"

// Spec describes an external command to launch.
// Command is the executable, optionally followed by fixed leading arguments
// (e.g. "npx prism"); Args are appended verbatim after it.
type Spec struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
	WorkDir string   `json:"work_dir"`
	Env     []string `json:"env"`
}

// Validate checks the minimal fields needed to build a command.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("process name is required")
	}
	if strings.TrimSpace(s.Command) == "" {
		return errors.New("command is required for process " + s.Name)
	}
	return nil
}

// BuildCommand constructs an *exec.Cmd for the spec. The child is placed in its
// own process group so the whole tree can be signaled later by pid.
// A shell is only involved when Command contains metacharacters; Args are then
// passed positionally so they are never re-split by the shell.
func (s Spec) BuildCommand() *exec.Cmd {
	var cmd *exec.Cmd
	cmdStr := strings.TrimSpace(s.Command)
	switch {
	case cmdStr == "":
		cmd = getTrueCommand()
	case strings.ContainsAny(cmdStr, shellMeta):
		cmd = getShellCommand(cmdStr, s.Args)
	default:
		parts := strings.Fields(cmdStr)
		args := make([]string, 0, len(parts)-1+len(s.Args))
		args = append(args, parts[1:]...)
		args = append(args, s.Args...)
		// #nosec G204
		cmd = exec.Command(parts[0], args...)
	}
	if s.WorkDir != "" {
		cmd.Dir = s.WorkDir
	}
	if len(s.Env) > 0 {
		cmd.Env = s.Env
	}
	configureSysProcAttr(cmd)
	return cmd
}
