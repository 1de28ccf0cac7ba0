// Package scorer computes a 0-100 priority score per non-lockfile entry in
// the discovered file tree from six weighted factors, producing the sort
// order the context packer consumes.
//
// Grounded on the teacher's scoring-adjacent pattern in
// phrazzld-thinktank internal/ratelimit/ratelimit.go, which also combines
// several independent signals into one bounded value via named constants;
// the weight table itself is spec-defined, not teacher-derived.
package scorer

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/phrazzld/handover/internal/snapshot"
)

// Named weight constants (spec §4.5).
const (
	WeightEntryPoint   = 30
	WeightImportFactor = 3
	MaxImportCount     = 30
	WeightExportFactor = 2
	MaxExportCount     = 20
	WeightGitActivity  = 1
	MaxGitActivity     = 10
	WeightEdgeCases    = 10
	WeightConfigFile   = 15
	TestFilePenalty    = 15
)

var entryPointPattern = regexp.MustCompile(`(?i)^(?:src/)?(index|main|app|server|cli)\.[a-zA-Z0-9]+$`)

var configFilePattern = regexp.MustCompile(`(?i)(^|/)([.]?[a-z0-9_-]*\.?config\.[a-zA-Z0-9]+|tsconfig\.json|webpack\.config\.[a-zA-Z0-9]+|\.eslintrc(\.[a-zA-Z0-9]+)?|\.babelrc(\.[a-zA-Z0-9]+)?|docker-compose\.ya?ml|Dockerfile|Makefile|go\.mod|pyproject\.toml|Cargo\.toml|package\.json)$`)

var testFilePattern = regexp.MustCompile(`\.test\.|\.spec\.|(^|/)__tests__/`)

var lockFiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"Cargo.lock":        true,
	"go.sum":            true,
	"poetry.lock":       true,
	"Pipfile.lock":      true,
	"composer.lock":     true,
	"Gemfile.lock":      true,
}

// relativeImportSuffixes is the best-effort resolution order for reverse
// import mapping (spec §4.5).
var relativeImportSuffixes = []string{
	".ts", ".tsx", ".js", ".jsx", ".py", ".go", ".rs", "/index.ts", "/index.js",
}

// Priority is the scored-and-ranked output of Score for one file.
type Priority struct {
	Path      string
	Score     int
	Breakdown Breakdown
}

// Breakdown exposes the per-factor contribution for diagnostics.
type Breakdown struct {
	EntryPoint   int
	ImportCount  int
	ExportCount  int
	GitActivity  int
	EdgeCases    int
	ConfigFile   int
}

// Score computes and sorts a Priority for every non-lockfile entry in
// files. files is the complete discovered file list (the truncated
// FileTreeResult.Tree is a display artifact and deliberately not used as
// the scoring domain).
// Sort order (score descending, path ascending) is an observable contract.
func Score(files []snapshot.FileEntry, result snapshot.StaticAnalysisResult) []Priority {
	reverseImports := buildReverseImportMap(result.AST.Files)
	exportCounts := make(map[string]int, len(result.AST.Files))
	for _, pf := range result.AST.Files {
		exportCounts[pf.Path] = len(pf.Exports)
	}
	gitActivity := make(map[string]int, len(result.GitHistory.MostChanged))
	for _, cf := range result.GitHistory.MostChanged {
		gitActivity[cf.Path] = cf.ChangeCount
	}
	edgeCaseFiles := make(map[string]bool)
	for _, item := range result.Todos.Items {
		edgeCaseFiles[item.File] = true
	}

	var priorities []Priority
	for _, f := range files {
		path := f.RelPath
		if lockFiles[filepath.Base(path)] {
			continue
		}
		b := Breakdown{}
		if entryPointPattern.MatchString(path) {
			b.EntryPoint = WeightEntryPoint
		}
		imports := reverseImports[path]
		if imports > MaxImportCount {
			imports = MaxImportCount
		}
		b.ImportCount = imports * WeightImportFactor

		exports := exportCounts[path]
		if exports > MaxExportCount {
			exports = MaxExportCount
		}
		b.ExportCount = exports * WeightExportFactor

		activity := gitActivity[path]
		if activity > MaxGitActivity {
			activity = MaxGitActivity
		}
		b.GitActivity = activity * WeightGitActivity

		if edgeCaseFiles[path] {
			b.EdgeCases = WeightEdgeCases
		}
		if configFilePattern.MatchString(path) {
			b.ConfigFile = WeightConfigFile
		}

		total := b.EntryPoint + b.ImportCount + b.ExportCount + b.GitActivity + b.EdgeCases + b.ConfigFile
		if testFilePattern.MatchString(path) {
			total -= TestFilePenalty
		}
		if total < 0 {
			total = 0
		}
		if total > 100 {
			total = 100
		}

		priorities = append(priorities, Priority{Path: path, Score: total, Breakdown: b})
	}

	sort.Slice(priorities, func(i, j int) bool {
		if priorities[i].Score != priorities[j].Score {
			return priorities[i].Score > priorities[j].Score
		}
		return priorities[i].Path < priorities[j].Path
	})
	return priorities
}

// buildReverseImportMap resolves relative import specifiers against the
// known file set to build an importer count per target file (spec §4.5).
func buildReverseImportMap(files []snapshot.ParsedFile) map[string]int {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f.Path] = true
	}

	counts := make(map[string]int)
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		for _, imp := range f.Imports {
			if !strings.HasPrefix(imp.Source, ".") {
				continue
			}
			base := filepath.ToSlash(filepath.Join(dir, imp.Source))
			if known[base] {
				counts[base]++
				continue
			}
			for _, suffix := range relativeImportSuffixes {
				candidate := base + suffix
				if strings.HasPrefix(suffix, "/") {
					candidate = base + suffix
				}
				if known[candidate] {
					counts[candidate]++
					break
				}
			}
		}
	}
	return counts
}
