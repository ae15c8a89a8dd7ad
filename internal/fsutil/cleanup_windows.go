//go:build windows

package fsutil

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// RemoveBestEffort removes path if possible.
//
// Scanners and indexers can hold a handle on a freshly written archive for a
// moment; retry briefly, then schedule deletion at next reboot.
func RemoveBestEffort(path string) error {
	if path == "" {
		return nil
	}

	tryRemove := func() error {
		err := os.Remove(path)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var lastErr error
	for i := 0; i < 10; i++ {
		if lastErr = tryRemove(); lastErr == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return lastErr
	}
	if err := windows.MoveFileEx(p, nil, windows.MOVEFILE_DELAY_UNTIL_REBOOT); err != nil {
		return lastErr
	}
	return nil
}
