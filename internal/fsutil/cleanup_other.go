//go:build !windows

package fsutil

import (
	"errors"
	"os"
)

// RemoveBestEffort removes path if possible. A missing file is not an error.
func RemoveBestEffort(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
