package analyzers

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/phrazzld/handover/internal/snapshot"
)

// manifestBasenames maps a manifest basename to its ecosystem tag.
var manifestBasenames = map[string]string{
	"package.json":    "npm",
	"Cargo.toml":      "cargo",
	"pyproject.toml":  "pep621",
	"requirements.txt": "pip",
	"go.mod":          "go",
}

// Dependencies detects package manifests by basename and parses each with
// the format appropriate to its ecosystem (spec §4.3.2). Uses go-toml/v2 for
// Cargo.toml / pyproject.toml (PEP 621), grounded on standardbeagle-lci's
// use of pelletier/go-toml for manifest-adjacent parsing.
func Dependencies(ctx context.Context, c *Context) Result[snapshot.DependenciesResult] {
	return run(func() (snapshot.DependenciesResult, error) {
		var res snapshot.DependenciesResult

		var targets []string
		for _, f := range c.Files {
			if _, ok := manifestBasenames[filepath.Base(f.RelPath)]; ok {
				targets = append(targets, f.AbsPath)
			}
		}
		contents := readBatched(ctx, c, targets)

		for _, f := range c.Files {
			base := filepath.Base(f.RelPath)
			ecosystem, ok := manifestBasenames[base]
			if !ok {
				continue
			}
			content := contents[f.AbsPath]
			if content == nil {
				continue
			}
			manifest, err := parseManifest(f.RelPath, ecosystem, content)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", f.RelPath, err))
				continue
			}
			res.Manifests = append(res.Manifests, manifest)
		}
		return res, nil
	})
}

func parseManifest(path, ecosystem string, content []byte) (snapshot.Manifest, error) {
	m := snapshot.Manifest{File: path, Ecosystem: ecosystem}
	switch ecosystem {
	case "npm":
		var pkg struct {
			Dependencies         map[string]string `json:"dependencies"`
			DevDependencies      map[string]string `json:"devDependencies"`
			PeerDependencies     map[string]string `json:"peerDependencies"`
			OptionalDependencies map[string]string `json:"optionalDependencies"`
		}
		if err := json.Unmarshal(content, &pkg); err != nil {
			return m, err
		}
		addDeps(&m, pkg.Dependencies, snapshot.DependencyProduction)
		addDeps(&m, pkg.DevDependencies, snapshot.DependencyDevelopment)
		addDeps(&m, pkg.PeerDependencies, snapshot.DependencyPeer)
		addDeps(&m, pkg.OptionalDependencies, snapshot.DependencyOptional)

	case "cargo":
		var manifest struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
		}
		if err := toml.Unmarshal(content, &manifest); err != nil {
			return m, err
		}
		addTomlDeps(&m, manifest.Dependencies, snapshot.DependencyProduction)
		addTomlDeps(&m, manifest.DevDependencies, snapshot.DependencyDevelopment)

	case "pep621":
		var manifest struct {
			Project struct {
				Dependencies []string `toml:"dependencies"`
			} `toml:"project"`
		}
		if err := toml.Unmarshal(content, &manifest); err != nil {
			return m, err
		}
		for _, spec := range manifest.Project.Dependencies {
			name, version := splitPEP508(spec)
			m.Dependencies = append(m.Dependencies, snapshot.Dependency{Name: name, Version: version, Kind: snapshot.DependencyProduction})
		}

	case "pip":
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			name, version := splitPEP508(line)
			m.Dependencies = append(m.Dependencies, snapshot.Dependency{Name: name, Version: version, Kind: snapshot.DependencyProduction})
		}

	case "go":
		reqBlock := regexp.MustCompile(`(?s)require\s*\((.*?)\)`)
		reqSingle := regexp.MustCompile(`require\s+(\S+)\s+(\S+)`)
		line := regexp.MustCompile(`(\S+)\s+(\S+)`)
		text := string(content)
		if matches := reqBlock.FindStringSubmatch(text); matches != nil {
			for _, l := range strings.Split(matches[1], "\n") {
				l = strings.TrimSpace(strings.Split(l, "//")[0])
				if l == "" {
					continue
				}
				if parts := line.FindStringSubmatch(l); parts != nil {
					m.Dependencies = append(m.Dependencies, snapshot.Dependency{Name: parts[1], Version: parts[2], Kind: snapshot.DependencyProduction})
				}
			}
		}
		for _, match := range reqSingle.FindAllStringSubmatch(text, -1) {
			m.Dependencies = append(m.Dependencies, snapshot.Dependency{Name: match[1], Version: match[2], Kind: snapshot.DependencyProduction})
		}
	}
	return m, nil
}

func addDeps(m *snapshot.Manifest, deps map[string]string, kind snapshot.DependencyKind) {
	for name, version := range deps {
		m.Dependencies = append(m.Dependencies, snapshot.Dependency{Name: name, Version: version, Kind: kind})
	}
}

func addTomlDeps(m *snapshot.Manifest, deps map[string]any, kind snapshot.DependencyKind) {
	for name, raw := range deps {
		version := ""
		switch v := raw.(type) {
		case string:
			version = v
		case map[string]any:
			if ver, ok := v["version"].(string); ok {
				version = ver
			}
		}
		m.Dependencies = append(m.Dependencies, snapshot.Dependency{Name: name, Version: version, Kind: kind})
	}
}

func splitPEP508(spec string) (name, version string) {
	for _, sep := range []string{"==", ">=", "<=", "~=", ">", "<", "!="} {
		if idx := strings.Index(spec, sep); idx != -1 {
			return strings.TrimSpace(spec[:idx]), strings.TrimSpace(spec[idx:])
		}
	}
	return strings.TrimSpace(spec), ""
}
