package analyzers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/phrazzld/handover/internal/snapshot"
)

var (
	goImport    = regexp.MustCompile(`(?m)^\s*"([^"]+)"\s*$`)
	goFunc      = regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)\s*([^{]*)\{`)
	jsImport    = regexp.MustCompile(`(?m)^\s*import\s+.*?from\s+['"]([^'"]+)['"]`)
	jsFunc      = regexp.MustCompile(`(?m)(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*\(([^)]*)\)`)
	jsClass     = regexp.MustCompile(`(?m)(?:export\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	jsExport    = regexp.MustCompile(`(?m)export\s+(?:const|function|class|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	pyImport    = regexp.MustCompile(`(?m)^\s*(?:from\s+(\S+)\s+import|import\s+(\S+))`)
	pyFunc      = regexp.MustCompile(`(?m)^(\s*)(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)
	pyClass     = regexp.MustCompile(`(?m)^class\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

func extractGo(text string, pf *snapshot.ParsedFile) {
	for _, m := range goImport.FindAllStringSubmatch(text, -1) {
		pf.Imports = append(pf.Imports, snapshot.Import{Source: m[1]})
	}
	for _, m := range goFunc.FindAllStringSubmatch(text, -1) {
		name := m[1]
		fn := snapshot.Function{
			Name:       name,
			Parameters: splitParams(m[2]),
			ReturnType: strings.TrimSpace(m[3]),
		}
		pf.Functions = append(pf.Functions, fn)
		if unicode.IsUpper(rune(name[0])) {
			pf.Exports = append(pf.Exports, snapshot.Export{Name: name})
		}
	}
}

func extractJS(text string, pf *snapshot.ParsedFile) {
	for _, m := range jsImport.FindAllStringSubmatch(text, -1) {
		pf.Imports = append(pf.Imports, snapshot.Import{Source: m[1]})
	}
	for _, m := range jsFunc.FindAllStringSubmatch(text, -1) {
		pf.Functions = append(pf.Functions, snapshot.Function{
			Name:       m[1],
			Parameters: splitParams(m[2]),
			IsAsync:    strings.Contains(m[0], "async"),
		})
	}
	for _, m := range jsClass.FindAllStringSubmatch(text, -1) {
		pf.Classes = append(pf.Classes, snapshot.Class{Name: m[1]})
	}
	for _, m := range jsExport.FindAllStringSubmatch(text, -1) {
		pf.Exports = append(pf.Exports, snapshot.Export{Name: m[1]})
	}
}

func extractPython(text string, pf *snapshot.ParsedFile) {
	for _, m := range pyImport.FindAllStringSubmatch(text, -1) {
		src := m[1]
		if src == "" {
			src = m[2]
		}
		pf.Imports = append(pf.Imports, snapshot.Import{Source: src})
	}
	for _, m := range pyFunc.FindAllStringSubmatch(text, -1) {
		indent := m[1]
		name := m[2]
		fn := snapshot.Function{Name: name, Parameters: splitParams(m[3])}
		if indent == "" {
			pf.Functions = append(pf.Functions, fn)
			if !strings.HasPrefix(name, "_") {
				pf.Exports = append(pf.Exports, snapshot.Export{Name: name})
			}
		}
	}
	for _, m := range pyClass.FindAllStringSubmatch(text, -1) {
		pf.Classes = append(pf.Classes, snapshot.Class{Name: m[1]})
	}
}

func splitParams(raw string) []snapshot.Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var params []snapshot.Parameter
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Fields(part)
		p := snapshot.Parameter{Name: fields[0]}
		if len(fields) > 1 {
			p.Type = strings.Join(fields[1:], " ")
		}
		params = append(params, p)
	}
	return params
}
