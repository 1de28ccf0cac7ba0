package analyzers

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phrazzld/handover/internal/discovery"
	"github.com/phrazzld/handover/internal/snapshot"
)

// FileTree computes totals, an extension breakdown, the top-20 largest
// files, and a depth-3 directory tree with the largest files inserted.
func FileTree(ctx context.Context, c *Context) Result[snapshot.FileTreeResult] {
	return run(func() (snapshot.FileTreeResult, error) {
		res := snapshot.FileTreeResult{
			ByExtension: make(map[string]int),
		}
		dirs := make(map[string]bool)
		paths := make([]string, len(c.Files))
		for i, f := range c.Files {
			paths[i] = f.AbsPath
		}
		contents := readBatched(ctx, c, paths)

		for _, f := range c.Files {
			res.Totals.Files++
			res.Totals.Bytes += f.Size
			ext := f.Extension
			if ext == "" {
				ext = "(none)"
			}
			res.ByExtension[ext]++

			dir := filepath.Dir(f.RelPath)
			for d := dir; d != "." && d != "/" && d != ""; d = filepath.Dir(d) {
				dirs[d] = true
			}

			if content := contents[f.AbsPath]; content != nil && !discovery.IsBinaryContent(content) {
				res.Totals.Lines += bytes.Count(content, []byte("\n")) + 1
			}
		}
		res.Totals.Dirs = len(dirs)

		sorted := append([]snapshot.FileEntry(nil), c.Files...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size > sorted[j].Size })
		n := 20
		if n > len(sorted) {
			n = len(sorted)
		}
		for _, f := range sorted[:n] {
			res.LargestFiles = append(res.LargestFiles, snapshot.LargeFile{Path: f.RelPath, Size: f.Size})
		}

		res.Tree = buildTree(c.Files, res.LargestFiles, 3)
		return res, nil
	})
}

// buildTree builds a depth-limited directory tree, truncating any path
// beyond maxDepth to its ancestor directory, then always inserting the
// largest-file leaves regardless of their own depth (spec §3 fileTree).
func buildTree(files []snapshot.FileEntry, largest []snapshot.LargeFile, maxDepth int) []snapshot.DirNode {
	isLarge := make(map[string]bool, len(largest))
	for _, l := range largest {
		isLarge[l.Path] = true
	}

	root := &dirBuilder{name: ""}
	for _, f := range files {
		parts := strings.Split(f.RelPath, "/")
		if len(parts) > maxDepth {
			root.insertDir(parts[:maxDepth])
			continue
		}
		root.insertFile(parts, f.Size)
	}
	for path := range isLarge {
		root.insertFile(strings.Split(path, "/"), 0)
	}
	return root.childNodes()
}

type dirBuilder struct {
	name     string
	isDir    bool
	size     int64
	children map[string]*dirBuilder
	order    []string
}

func (d *dirBuilder) child(name string, isDir bool) *dirBuilder {
	if d.children == nil {
		d.children = make(map[string]*dirBuilder)
	}
	c, ok := d.children[name]
	if !ok {
		c = &dirBuilder{name: name, isDir: isDir}
		d.children[name] = c
		d.order = append(d.order, name)
	}
	if isDir {
		c.isDir = true
	}
	return c
}

func (d *dirBuilder) insertDir(parts []string) {
	cur := d
	for _, p := range parts {
		cur = cur.child(p, true)
	}
}

func (d *dirBuilder) insertFile(parts []string, size int64) {
	cur := d
	for i, p := range parts {
		isLast := i == len(parts)-1
		cur = cur.child(p, !isLast)
	}
	cur.size = size
}

func (d *dirBuilder) childNodes() []snapshot.DirNode {
	names := append([]string(nil), d.order...)
	sort.Strings(names)
	nodes := make([]snapshot.DirNode, 0, len(names))
	for _, name := range names {
		c := d.children[name]
		node := snapshot.DirNode{Name: c.name, IsDir: c.isDir, Size: c.size}
		if c.isDir {
			node.Children = c.childNodes()
		}
		nodes = append(nodes, node)
	}
	return nodes
}
