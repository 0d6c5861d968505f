//go:build windows

package process

import (
	"os/exec"
	"strings"
)

// getShellCommand runs script through cmd.exe.
func getShellCommand(script string, args []string) *exec.Cmd {
	line := script
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	// #nosec G204
	return exec.Command("cmd", "/C", line)
}

func getTrueCommand() *exec.Cmd {
	// #nosec G204
	return exec.Command("cmd", "/C", "exit 0")
}
