//go:build !windows

package fsops

import (
	"errors"
	"os"
	"syscall"
)

// sameFilesystem compares device IDs from stat(2), the same technique
// autobrr-qui's pkg/fsutil uses to decide whether a hardlink is possible.
func sameFilesystem(a, b string) (bool, error) {
	sa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	stA, ok := sa.Sys().(*syscall.Stat_t)
	if !ok {
		return false, errors.New("fsops: device comparison unsupported on this platform")
	}
	stB, ok := sb.Sys().(*syscall.Stat_t)
	if !ok {
		return false, errors.New("fsops: device comparison unsupported on this platform")
	}
	return stA.Dev == stB.Dev, nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
