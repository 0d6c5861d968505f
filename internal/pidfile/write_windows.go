//go:build windows

package pidfile

import "os"

// renameio does not support Windows.
func writeFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}
