package fsops

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
)

// errNoExtractor is returned when a recognized archive format has no
// registered extraction implementation (treated as a missing-tool
// degradation per spec §4.8 stage 2).
var errNoExtractor = errors.New("no extractor available for this archive format")

// extract walks the staging tree and extracts any recognized archive
// in-place next to it (spec §4.8 stage 2, initial scope zip). It is a
// Pipeline method only to read the Extract toggle through req.Policy; it
// holds no other pipeline state.
func (p *Pipeline) extract(ctx context.Context, req Request, dir string) stageResult {
	if !req.Policy.Extract {
		return stageResult{detail: "extraction disabled"}
	}

	found := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == markerFileName || !recognizedArchiveExt(d.Name()) {
			return nil
		}
		found++
		return extractArchive(ctx, path, filepath.Dir(path))
	})
	if walkErr != nil {
		if errors.Is(walkErr, errNoExtractor) {
			return stageResult{degraded: true, detail: "missing extraction tool", fallback: "left archive in place"}
		}
		return stageResult{degraded: true, detail: walkErr.Error(), fallback: "left archive in place"}
	}
	if found == 0 {
		return stageResult{detail: "no archives found"}
	}
	return stageResult{detail: "extracted archives"}
}

func recognizedArchiveExt(name string) bool {
	return filepath.Ext(name) == ".zip"
}

func extractArchive(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	format, stream, err := archives.Identify(ctx, archivePath, f)
	if err != nil {
		return err
	}
	extractor, ok := format.(archives.Extraction)
	if !ok {
		return errNoExtractor
	}

	return extractor.Extract(ctx, stream, func(ctx context.Context, info archives.FileInfo) error {
		if info.IsDir() {
			return nil
		}
		target := filepath.Join(destDir, filepath.FromSlash(info.NameInArchive))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		src, err := info.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, src)
		return err
	})
}
