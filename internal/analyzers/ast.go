package analyzers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/phrazzld/handover/internal/snapshot"
)

// extensionLanguage maps a file extension to the language tag reported in
// ASTSummary.ByLanguage.
var extensionLanguage = map[string]string{
	".go":   "go",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".py":   "python",
	".rb":   "ruby",
	".java": "java",
	".rs":   "rust",
}

// AST runs the configured ASTExtractor (an external, language-specific
// capability per spec §1/§4.3.6) over every file whose extension is
// recognized, and aggregates the results. A nil extractor or per-file parse
// failure is tolerated: that file is simply omitted from Files, never fatal.
func AST(ctx context.Context, c *Context) Result[snapshot.ASTResult] {
	return run(func() (snapshot.ASTResult, error) {
		res := snapshot.ASTResult{Summary: snapshot.ASTSummary{ByLanguage: make(map[string]int)}}
		if c.AST == nil {
			return res, nil
		}

		var targets []snapshot.FileEntry
		for _, f := range c.Files {
			if _, ok := extensionLanguage[f.Extension]; ok {
				targets = append(targets, f)
			}
		}
		paths := make([]string, len(targets))
		for i, f := range targets {
			paths[i] = f.AbsPath
		}
		contents := readBatched(ctx, c, paths)

		for _, f := range targets {
			content := contents[f.AbsPath]
			if content == nil {
				continue
			}
			parsed, ok := c.AST.Parse(ctx, f.RelPath, content)
			if !ok || parsed == nil {
				continue
			}
			res.Files = append(res.Files, *parsed)
			res.Summary.TotalFiles++
			res.Summary.TotalFunctions += len(parsed.Functions)
			res.Summary.TotalClasses += len(parsed.Classes)
			res.Summary.ByLanguage[parsed.Language]++
		}
		return res, nil
	})
}

// DefaultASTExtractor is a minimal, dependency-free regex extractor for Go,
// JavaScript/TypeScript, and Python signatures. It is a conservative
// fallback for the pluggable ASTExtractor capability the spec treats as an
// external collaborator (full grammar-aware parsing, e.g. via tree-sitter,
// is out of scope for the core and left to a real plug-in).
type DefaultASTExtractor struct{}

func (DefaultASTExtractor) Parse(ctx context.Context, path string, content []byte) (*snapshot.ParsedFile, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extensionLanguage[ext]
	if !ok {
		return nil, false
	}
	text := string(content)
	pf := &snapshot.ParsedFile{
		Path:      path,
		Language:  lang,
		LineCount: strings.Count(text, "\n") + 1,
	}

	switch lang {
	case "go":
		extractGo(text, pf)
	case "javascript", "typescript":
		extractJS(text, pf)
	case "python":
		extractPython(text, pf)
	}
	return pf, true
}
