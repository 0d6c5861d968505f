//go:build !windows

package process

import "os/exec"

// getShellCommand runs script through /bin/sh with args bound to "$@".
func getShellCommand(script string, args []string) *exec.Cmd {
	argv := make([]string, 0, 3+len(args))
	argv = append(argv, "-c", script+` "$@"`, "sh")
	argv = append(argv, args...)
	// #nosec G204
	return exec.Command("/bin/sh", argv...)
}

func getTrueCommand() *exec.Cmd {
	// #nosec G204
	return exec.Command("/bin/true")
}
