package binary

import (
	"os/exec"
)

// Available reports whether the named binary can be found in PATH, along
// with its resolved location.
func Available(binName string) (string, bool) {
	path, err := exec.LookPath(binName)

	return path, err == nil
}
