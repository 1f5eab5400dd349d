//go:build windows

package fsops

import "errors"

// lookupOwnerGroup is unsupported on Windows, where POSIX uid/gid chown
// semantics do not apply (spec §4.8 stage 5 "non-Unix platforms ... emit
// fsops_failed{degraded=true, reason=ownership_unsupported}").
func lookupOwnerGroup(owner, group string) (uid, gid int, err error) {
	return 0, 0, errors.New("ownership is not supported on this platform")
}
