package analyzers

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phrazzld/handover/internal/snapshot"
)

var readmeName = regexp.MustCompile(`(?i)^readme(\.[a-z0-9]+)?$`)

// docFileExtensions are treated as documentation content outside of README
// and the docs folder.
var docFileExtensions = map[string]bool{
	".md": true, ".mdx": true, ".rst": true, ".adoc": true,
}

// docCommentPrefixes marks a line as an inline documentation comment for the
// coverage heuristic, keyed by file extension.
var docCommentPrefixes = map[string][]string{
	".go":   {"//"},
	".js":   {"//", "/*", "*"},
	".ts":   {"//", "/*", "*"},
	".jsx":  {"//", "/*", "*"},
	".tsx":  {"//", "/*", "*"},
	".py":   {"#", `"""`, "'''"},
	".rb":   {"#"},
	".java": {"//", "/*", "*"},
	".rs":   {"//", "///"},
}

// Docs locates README files, a top-level "docs" folder, and other
// documentation-extension files, and estimates inline-documentation coverage
// by checking whether each source file's first non-blank lines contain a
// comment in that language's idiom.
func Docs(ctx context.Context, c *Context) Result[snapshot.DocsResult] {
	return run(func() (snapshot.DocsResult, error) {
		res := snapshot.DocsResult{}

		var codeFiles []snapshot.FileEntry
		for _, f := range c.Files {
			base := filepath.Base(f.RelPath)
			dir := filepath.Dir(f.RelPath)

			if readmeName.MatchString(base) {
				res.ReadmePaths = append(res.ReadmePaths, f.RelPath)
				continue
			}
			if dir == "docs" || strings.HasPrefix(dir, "docs/") {
				res.DocsFolder = "docs"
				res.DocFiles = append(res.DocFiles, f.RelPath)
				continue
			}
			if docFileExtensions[f.Extension] {
				res.DocFiles = append(res.DocFiles, f.RelPath)
				continue
			}
			if _, ok := docCommentPrefixes[f.Extension]; ok {
				codeFiles = append(codeFiles, f)
			}
		}

		paths := make([]string, len(codeFiles))
		for i, f := range codeFiles {
			paths[i] = f.AbsPath
		}
		contents := readBatched(ctx, c, paths)

		withDocs := 0
		for _, f := range codeFiles {
			content := contents[f.AbsPath]
			if content == nil {
				continue
			}
			if hasLeadingDocComment(string(content), docCommentPrefixes[f.Extension]) {
				withDocs++
			}
		}

		res.Summary.ReadmeCount = len(res.ReadmePaths)
		res.Summary.DocFileCount = len(res.DocFiles)
		res.Summary.HasDocsFolder = res.DocsFolder != ""

		res.Coverage.TotalFiles = len(codeFiles)
		res.Coverage.FilesWithDocs = withDocs
		if res.Coverage.TotalFiles > 0 {
			res.Coverage.Percentage = float64(withDocs) / float64(res.Coverage.TotalFiles) * 100
		}
		return res, nil
	})
}

func hasLeadingDocComment(content string, prefixes []string) bool {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(trimmed, p) {
				return true
			}
		}
		return false
	}
	return false
}
