//go:build windows

package fsops

// sameFilesystem conservatively reports false on Windows: volume-serial
// comparison would require syscall.GetVolumeInformation, which this build
// does not wire up. Callers fall back to copy, which is always correct.
func sameFilesystem(a, b string) (bool, error) { return false, nil }

func isCrossDevice(err error) bool { return true }
