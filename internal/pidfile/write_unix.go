//go:build !windows

package pidfile

import (
	"os"

	"github.com/google/renameio/v2"
)

// writeFile goes through a temp file and rename so a concurrent reader never
// observes a half-written list.
func writeFile(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
