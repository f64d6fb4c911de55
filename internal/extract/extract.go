// Package extract turns scanned archives into files on a filesystem.
package extract

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/dcontiveros/sc2kne-patcher/internal/dcl"
	"github.com/dcontiveros/sc2kne-patcher/internal/is3"
)

// Extractor decodes and writes out the files of scanned archives. The
// zero value extracts to the host filesystem with default logging and
// one worker per CPU.
type Extractor struct {
	FS      afero.Fs     // destination filesystem; nil means the host OS
	Logger  *slog.Logger // nil means slog.Default()
	Workers int          // concurrent file decodes; <= 0 means GOMAXPROCS
	Match   string       // optional doublestar pattern restricting extraction
}

// Extract decompresses every file of the archive at hdr into
// outputRoot, creating directories as needed. Files are decoded
// concurrently; each one is decoded fully in memory and written only on
// success, so a failed file leaves nothing behind.
//
// Damaged entries (payload outside the buffer, corrupt stream, path
// escaping outputRoot, write errors) are counted and logged, never
// fatal. The error return covers only failure to create outputRoot
// itself.
func (e *Extractor) Extract(buf []byte, hdr is3.Header, outputRoot string) (extracted, failed int, err error) {
	fs := e.fs()
	logger := e.logger()

	files, _ := is3.ParseFileTable(buf, hdr)
	files = MatchFilter(files, e.Match)

	if err := fs.MkdirAll(outputRoot, 0o755); err != nil {
		return 0, 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger.Info("extracting archive",
		"offset", fmt.Sprintf("0x%x", hdr.Offset),
		"files", len(files),
		"output", outputRoot,
	)

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var okCount, failCount atomic.Int64

	p := pool.New().WithMaxGoroutines(workers)
	for _, rec := range files {
		p.Go(func() {
			if e.extractOne(fs, logger, buf, rec, outputRoot) {
				okCount.Add(1)
			} else {
				failCount.Add(1)
			}
		})
	}
	p.Wait()

	return int(okCount.Load()), int(failCount.Load()), nil
}

// extractOne decodes one record and writes it under outputRoot,
// reporting whether the file made it to disk.
func (e *Extractor) extractOne(fs afero.Fs, logger *slog.Logger, buf []byte, rec is3.FileRecord, outputRoot string) bool {
	end := rec.CompressedOffset + uint64(rec.CompressedSize)
	if end > uint64(len(buf)) {
		logger.Warn("payload lies outside the input buffer",
			"path", rec.Path,
			"offset", rec.CompressedOffset,
			"compressed_size", rec.CompressedSize,
		)
		return false
	}

	data, err := dcl.Explode(buf[rec.CompressedOffset:end])
	if err != nil {
		logger.Warn("failed to decompress",
			"path", rec.Path,
			"compressed_size", rec.CompressedSize,
			"error", err,
		)
		return false
	}

	target, ok := securePath(outputRoot, rec.Path)
	if !ok {
		logger.Warn("path escapes the output directory", "path", rec.Path)
		return false
	}

	if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		logger.Error("failed to create directory", "path", rec.Path, "error", err)
		return false
	}
	if err := afero.WriteFile(fs, target, data, 0o644); err != nil {
		logger.Error("failed to write file", "path", rec.Path, "error", err)
		return false
	}
	if mtime := rec.ModTime(); !mtime.IsZero() {
		// best effort; not every backing filesystem can stamp times
		_ = fs.Chtimes(target, mtime, mtime)
	}

	logger.Debug("extracted file",
		"path", rec.Path,
		"size", len(data),
		"xxh64", fmt.Sprintf("%016x", xxhash.Sum64(data)),
	)
	return true
}

// MatchFilter drops the files a doublestar pattern excludes; an empty
// pattern keeps everything. Skipped files are not failures; they simply
// do not participate. Malformed patterns match nothing (the CLI
// validates patterns before work starts).
func MatchFilter(files []is3.FileRecord, pattern string) []is3.FileRecord {
	if pattern == "" {
		return files
	}
	return lo.Filter(files, func(rec is3.FileRecord, _ int) bool {
		ok, err := doublestar.Match(pattern, rec.Path)
		return err == nil && ok
	})
}

// securePath joins name under root and reports whether the result stays
// inside root. Archive names are untrusted legacy data; absolute names,
// "../" runs and empty names must not place files outside the extraction
// root.
func securePath(root, name string) (string, bool) {
	rel := filepath.FromSlash(name)
	if filepath.IsAbs(rel) {
		return "", false
	}
	target := filepath.Join(root, rel)
	if !strings.HasPrefix(target, filepath.Clean(root)+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

func (e *Extractor) fs() afero.Fs {
	if e.FS != nil {
		return e.FS
	}
	return afero.NewOsFs()
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
