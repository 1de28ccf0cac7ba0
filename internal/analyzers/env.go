package analyzers

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phrazzld/handover/internal/snapshot"
)

var envFileName = regexp.MustCompile(`^\.env(\..+)?$`)

// envReferencePatterns covers the common ways source languages read
// environment variables (spec §4.3.5).
var envReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bos\.(?:Getenv|LookupEnv)\(\s*"([A-Za-z_][A-Za-z0-9_]*)"\s*\)`),
	regexp.MustCompile(`\bprocess\.env\.([A-Za-z_][A-Za-z0-9_]*)\b`),
	regexp.MustCompile(`\bprocess\.env\[['"]([A-Za-z_][A-Za-z0-9_]*)['"]\]`),
	regexp.MustCompile(`\bos\.environ(?:\.get)?\[['"]([A-Za-z_][A-Za-z0-9_]*)['"]\]`),
	regexp.MustCompile(`\bos\.getenv\(\s*['"]([A-Za-z_][A-Za-z0-9_]*)['"]`),
	regexp.MustCompile(`\bENV\[['"]([A-Za-z_][A-Za-z0-9_]*)['"]\]`),
}

// Env discovers ".env*" files and extracts their declared variable names,
// and scans non-env source files for environment-variable read references
// across common language idioms. Unreadable env files produce a warning and
// are skipped rather than aborting the pass; lines without a NAME=value
// shape are ignored.
func Env(ctx context.Context, c *Context) Result[snapshot.EnvResult] {
	return run(func() (snapshot.EnvResult, error) {
		var envFiles, sourceFiles []snapshot.FileEntry
		for _, f := range c.Files {
			if envFileName.MatchString(filepath.Base(f.RelPath)) {
				envFiles = append(envFiles, f)
			} else {
				sourceFiles = append(sourceFiles, f)
			}
		}

		var allPaths []string
		for _, f := range envFiles {
			allPaths = append(allPaths, f.AbsPath)
		}
		for _, f := range sourceFiles {
			allPaths = append(allPaths, f.AbsPath)
		}
		contents := readBatched(ctx, c, allPaths)

		res := snapshot.EnvResult{}

		for _, f := range envFiles {
			content := contents[f.AbsPath]
			if content == nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unreadable", f.RelPath))
				continue
			}
			vars, err := parseEnvVars(content)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", f.RelPath, err))
				continue
			}
			res.Files = append(res.Files, snapshot.EnvFile{Path: f.RelPath, Variables: vars})
		}

		for _, f := range sourceFiles {
			content := contents[f.AbsPath]
			if content == nil {
				continue
			}
			for lineNo, line := range strings.Split(string(content), "\n") {
				for _, pat := range envReferencePatterns {
					for _, m := range pat.FindAllStringSubmatch(line, -1) {
						res.References = append(res.References, snapshot.EnvReference{
							File:     f.RelPath,
							Line:     lineNo + 1,
							Variable: m[1],
						})
					}
				}
			}
		}
		return res, nil
	})
}

func parseEnvVars(content []byte) ([]string, error) {
	var vars []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		name = strings.TrimPrefix(name, "export ")
		if name == "" {
			continue
		}
		vars = append(vars, name)
	}
	return vars, nil
}
