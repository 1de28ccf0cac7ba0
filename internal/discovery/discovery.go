// Package discovery enumerates the files of a repository, applies ignore
// rules, drops binaries and oversized files, and returns a deterministically
// sorted, immutable file list. It reads no file content.
//
// Grounded on the teacher's internal/fileutil binary-detection heuristic and
// git-ignore fallback (phrazzld-thinktank internal/fileutil/fileutil.go),
// generalized to glob-based include/exclude matching via doublestar, the way
// standardbeagle-lci's internal/indexer layers glob ignore rules.
package discovery

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/snapshot"
)

// MaxFileSize is the hard per-file size ceiling (2 MiB per spec §4.1).
const MaxFileSize = 2 * 1024 * 1024

// heavyDirs are excluded at traversal time regardless of ignore files.
var heavyDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"target":       true,
	".next":        true,
	".cache":       true,
	".handover":    true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// binaryExtensions are dropped entirely regardless of content sniffing.
var binaryExtensions = map[string]bool{
	".exe": true, ".bin": true, ".obj": true, ".o": true, ".a": true,
	".lib": true, ".so": true, ".dll": true, ".dylib": true, ".class": true,
	".jar": true, ".pyc": true, ".pyo": true, ".pyd": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".odt": true, ".ods": true, ".odp": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
	".tiff": true, ".svg": true, ".mp3": true, ".wav": true, ".ogg": true,
	".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
	".iso": true, ".img": true, ".dmg": true, ".db": true, ".sqlite": true,
}

// Options configures a discovery run.
type Options struct {
	Include []string // glob patterns layered over default excludes
	Exclude []string // glob patterns
	Logger  logutil.LoggerInterface
}

// Run enumerates root, applying the fixed heavy-dir exclusions, the
// root-level ignore file (".handoverignore", falling back to ".gitignore"),
// and the caller-supplied include/exclude globs. Entries are returned sorted
// lexicographically by relative path. Symlinks are never followed.
func Run(ctx context.Context, root string, opts Options) ([]snapshot.FileEntry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[discovery] ")
	}

	ignorePatterns := loadIgnoreFile(root)

	var entries []snapshot.FileEntry
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // tolerate unreadable entries, skip them
		}
		if d.IsDir() {
			if path != root && heavyDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(rel, ignorePatterns) {
			return nil
		}
		if matchesAny(rel, opts.Exclude) {
			return nil
		}
		if len(opts.Include) > 0 && !matchesAny(rel, opts.Include) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if binaryExtensions[ext] {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		if info.Size() > MaxFileSize {
			logger.Warn("skipping oversized file %s (%d bytes)", rel, info.Size())
			return nil
		}

		entries = append(entries, snapshot.FileEntry{
			RelPath:   rel,
			AbsPath:   path,
			Size:      info.Size(),
			Extension: ext,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

func loadIgnoreFile(root string) []string {
	for _, name := range []string{".handoverignore", ".gitignore"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		var patterns []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
		return patterns
	}
	return nil
}

func matchesAny(relPath string, patterns []string) bool {
	for _, p := range patterns {
		p = strings.TrimSuffix(p, "/")
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
		if ok, _ := doublestar.Match("**/"+p, relPath); ok {
			return true
		}
		if ok, _ := doublestar.Match(p+"/**", relPath); ok {
			return true
		}
	}
	return false
}

// isBinaryContent sniffs the first bytes of content for binary markers,
// used by analyzers that read file content after discovery has already
// passed the extension-based filter (e.g. files with no/unknown extension).
func isBinaryContent(content []byte) bool {
	if bytes.IndexByte(content, 0) != -1 {
		return true
	}
	sample := content
	if len(sample) > 512 {
		sample = sample[:512]
	}
	nonPrintable := 0
	for _, b := range sample {
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			nonPrintable++
		}
	}
	return len(sample) > 0 && float64(nonPrintable)/float64(len(sample)) > 0.3
}

// IsBinaryContent exposes the sniffing heuristic for use by analyzers.
func IsBinaryContent(content []byte) bool { return isBinaryContent(content) }
