//go:build !windows

package fsops

import (
	"os/user"
	"strconv"
)

// lookupOwnerGroup resolves owner/group names to numeric ids via the
// system's user/group database (spec §4.8 stage 5 "apply owner/group via
// system lookup").
func lookupOwnerGroup(owner, group string) (uid, gid int, err error) {
	uid, gid = -1, -1
	if owner != "" {
		u, lookupErr := user.Lookup(owner)
		if lookupErr != nil {
			return 0, 0, lookupErr
		}
		uid, err = strconv.Atoi(u.Uid)
		if err != nil {
			return 0, 0, err
		}
	}
	if group != "" {
		g, lookupErr := user.LookupGroup(group)
		if lookupErr != nil {
			return 0, 0, lookupErr
		}
		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return 0, 0, err
		}
	}
	return uid, gid, nil
}
