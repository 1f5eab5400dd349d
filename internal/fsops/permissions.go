package fsops

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// applyPermissions chmods every file/dir explicitly per fs_policy, or
// derives a mode from umask against 0o666/0o777, then applies owner/group
// (spec §4.8 stage 5). Ownership lookup failure degrades health without
// failing completion.
func applyPermissions(_ context.Context, req Request, dir string) stageResult {
	fileMode := fs.FileMode(req.Policy.ChmodFile)
	dirMode := fs.FileMode(req.Policy.ChmodDir)
	if req.Policy.ChmodFile == 0 {
		fileMode = fs.FileMode(0o666 &^ req.Policy.Umask)
	}
	if req.Policy.ChmodDir == 0 {
		dirMode = fs.FileMode(0o777 &^ req.Policy.Umask)
	}

	degraded := false
	detail := "permissions applied"
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() == markerFileName {
			return nil
		}
		if d.IsDir() {
			return os.Chmod(path, dirMode)
		}
		return os.Chmod(path, fileMode)
	})
	if err != nil {
		return stageResult{degraded: true, detail: err.Error()}
	}

	if req.Policy.Owner != "" || req.Policy.Group != "" {
		uid, gid, lookupErr := lookupOwnerGroup(req.Policy.Owner, req.Policy.Group)
		if lookupErr != nil {
			degraded = true
			detail = "ownership_unsupported: " + lookupErr.Error()
		} else {
			err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.Name() == markerFileName {
					return nil
				}
				return os.Chown(path, uid, gid)
			})
			if err != nil {
				degraded = true
				detail = "ownership_unsupported: " + err.Error()
			}
		}
	}

	result := stageResult{degraded: degraded, detail: detail}
	if degraded {
		result.fallback = "ownership_unsupported"
	}
	return result
}
