package analyzers

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phrazzld/handover/internal/snapshot"
)

// testFilePatterns recognizes test files by suffix/prefix convention across
// common ecosystems.
var testFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`_test\.go$`),
	regexp.MustCompile(`\.test\.[jt]sx?$`),
	regexp.MustCompile(`\.spec\.[jt]sx?$`),
	regexp.MustCompile(`^test_.*\.py$`),
	regexp.MustCompile(`_test\.py$`),
	regexp.MustCompile(`_spec\.rb$`),
}

// testConfigFiles maps a config basename to its associated framework.
var testConfigFiles = map[string]string{
	"jest.config.js":  "jest",
	"jest.config.ts":  "jest",
	"vitest.config.ts": "vitest",
	"vitest.config.js": "vitest",
	"pytest.ini":       "pytest",
	"tox.ini":          "pytest",
	"phpunit.xml":      "phpunit",
	".rspec":           "rspec",
}

var (
	goTestFunc  = regexp.MustCompile(`(?m)^func\s+Test[A-Za-z0-9_]*\s*\(`)
	jsTestCase  = regexp.MustCompile(`(?m)\b(?:it|test)\s*\(`)
	pyTestFunc  = regexp.MustCompile(`(?m)^\s*def\s+test_[A-Za-z0-9_]*\s*\(`)
)

// Tests detects test files by naming convention, counts test cases with a
// lightweight per-framework heuristic, and flags presence of test
// configuration files.
func Tests(ctx context.Context, c *Context) Result[snapshot.TestsResult] {
	return run(func() (snapshot.TestsResult, error) {
		res := snapshot.TestsResult{}
		frameworkSeen := make(map[string]bool)

		var targets []snapshot.FileEntry
		for _, f := range c.Files {
			base := filepath.Base(f.RelPath)
			if fw, ok := testConfigFiles[base]; ok {
				res.HasConfig = true
				res.ConfigFiles = append(res.ConfigFiles, f.RelPath)
				frameworkSeen[fw] = true
				continue
			}
			if isTestFile(f.RelPath) {
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
			framework, count := "", 0
			if content != nil {
				text := string(content)
				switch {
				case strings.HasSuffix(f.RelPath, "_test.go"):
					framework = "go test"
					count = len(goTestFunc.FindAllString(text, -1))
				case strings.HasSuffix(f.RelPath, "_test.py") || strings.HasPrefix(filepath.Base(f.RelPath), "test_"):
					framework = "pytest"
					count = len(pyTestFunc.FindAllString(text, -1))
				default:
					framework = "jest/mocha"
					count = len(jsTestCase.FindAllString(text, -1))
				}
				frameworkSeen[framework] = true
			}
			res.Files = append(res.Files, snapshot.TestFile{Path: f.RelPath, Framework: framework, TestCount: count})
			res.Summary.TotalTestFiles++
		}

		for fw := range frameworkSeen {
			res.Frameworks = append(res.Frameworks, fw)
		}
		res.Summary.Frameworks = res.Frameworks
		res.Summary.HasConfig = res.HasConfig
		return res, nil
	})
}

func isTestFile(relPath string) bool {
	for _, p := range testFilePatterns {
		if p.MatchString(relPath) {
			return true
		}
	}
	return false
}
