package fsops

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"revaer/internal/domain"
)

// move transfers the staging tree to <library_root>/<sanitized name> per
// fs_policy.move_mode (spec §4.8 stage 4). Hardlink falls back to copy on
// EXDEV; move uses rename when possible, else copy+fsync+unlink.
func move(_ context.Context, req Request, dir string) stageResult {
	if req.Policy.LibraryRoot == "" {
		return stageResult{detail: "no library root configured, left in place"}
	}

	dest := filepath.Join(req.Policy.LibraryRoot, sanitizeName(req.Name))
	if !pathAllowed(dest, req.Policy.AllowPaths) {
		return stageResult{err: fmt.Errorf("destination %q is outside allow_paths", dest)}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return stageResult{err: err}
	}
	if dir == dest {
		return stageResult{detail: "already at library destination"}
	}

	switch req.Policy.MoveMode {
	case domain.MoveModeHardlink:
		return hardlinkTransfer(dir, dest)
	case domain.MoveModeCopy:
		return copyTransfer(dir, dest)
	default:
		return moveTransfer(dir, dest)
	}
}

func moveTransfer(src, dest string) stageResult {
	if err := os.Rename(src, dest); err == nil {
		return stageResult{detail: "renamed", newDir: dest}
	} else if !isCrossDevice(err) {
		return stageResult{err: err}
	}

	if err := copyDirRecursive(src, dest); err != nil {
		return stageResult{err: err}
	}
	if err := os.RemoveAll(src); err != nil {
		return stageResult{degraded: true, detail: err.Error(), fallback: "copied across devices but source not removed", newDir: dest}
	}
	return stageResult{detail: "copied across devices (EXDEV fallback)", fallback: "copy+fsync+unlink", newDir: dest}
}

func hardlinkTransfer(src, dest string) stageResult {
	same, err := sameFilesystem(src, filepath.Dir(dest))
	if err != nil || !same {
		result := copyTransfer(src, dest)
		result.degraded = true
		result.warnOnly = true
		result.fallback = "copy"
		result.detail = "hardlink unavailable across devices, copied instead"
		return result
	}

	if err := hardlinkDirRecursive(src, dest); err != nil {
		if isCrossDevice(err) {
			result := copyTransfer(src, dest)
			result.degraded = true
			result.warnOnly = true
			result.fallback = "copy"
			result.detail = "hardlink failed cross-device mid-transfer, copied instead"
			return result
		}
		return stageResult{err: err}
	}
	return stageResult{detail: "hardlinked", newDir: dest}
}

func copyTransfer(src, dest string) stageResult {
	if err := copyDirRecursive(src, dest); err != nil {
		return stageResult{err: err}
	}
	return stageResult{detail: "copied", newDir: dest}
}

func copyDirRecursive(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func hardlinkDirRecursive(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.Link(path, target); err != nil {
			return err
		}
		return nil
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Join(err, out.Close())
	}
	return out.Sync()
}
