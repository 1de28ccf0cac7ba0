package handover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/handover/internal/compressor"
	"github.com/phrazzld/handover/internal/config"
	"github.com/phrazzld/handover/internal/dag"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/packer"
	"github.com/phrazzld/handover/internal/render"
	"github.com/phrazzld/handover/internal/rounds"
	"github.com/phrazzld/handover/internal/scorer"
)

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "internal", "core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "internal", "core", "core.go"), []byte("package core\n"), 0o644))
	return root
}

func TestRun_StaticOnlyProducesDocumentsWithoutRounds(t *testing.T) {
	root := writeRepo(t)
	cfg := config.DefaultConfig()
	cfg.Provider = "anthropic"
	cfg.Output = filepath.Join(root, "handover-out")
	cfg.Analysis.StaticOnly = true

	res, err := Run(context.Background(), Options{
		RepoPath: root,
		Config:   cfg,
		Logger:   logutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, len(render.Registry), len(res.Documents))
	assert.Greater(t, res.Generated, 0)

	entries, err := os.ReadDir(cfg.Output)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestRun_OnlySelectorNarrowsOutput(t *testing.T) {
	root := writeRepo(t)
	cfg := config.DefaultConfig()
	cfg.Provider = "anthropic"
	cfg.Output = filepath.Join(root, "handover-out")
	cfg.Analysis.StaticOnly = true

	res, err := Run(context.Background(), Options{
		RepoPath: root,
		Config:   cfg,
		Only:     []string{"testing"},
		Logger:   logutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "09-testing", res.Documents[0].ID)
}

func TestRun_UnknownProviderErrors(t *testing.T) {
	root := writeRepo(t)
	cfg := config.DefaultConfig()
	cfg.Provider = "not-a-real-provider"
	cfg.Output = filepath.Join(root, "handover-out")

	_, err := Run(context.Background(), Options{RepoPath: root, Config: cfg, Logger: logutil.NewTestLogger(t)})
	require.Error(t, err)
}

func TestBundleFor(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 6} {
		_, ok := bundleFor(n)
		assert.True(t, ok, "round %d should have a bundle", n)
	}
	_, ok := bundleFor(5)
	assert.False(t, ok, "round 5 is fanned out per-module, not a single bundle")
}

func TestCarryoverFor_ConcatenatesDirectDependenciesOnly(t *testing.T) {
	results := map[int]rounds.Result{
		1: {Carryover: compressor.Carryover{RoundNumber: 1, Findings: []string{"round one finding"}}},
		2: {Carryover: compressor.Carryover{RoundNumber: 2, Findings: []string{"round two finding"}}},
	}
	out := carryoverFor(3, results)
	assert.Contains(t, out, "round one finding")
	assert.Contains(t, out, "round two finding")

	// Round 4 depends transitively on round 1 via round 2/3, but RoundDeps[4]
	// lists all three directly (dag.RoundDeps = {4: {1,2,3}}), so round 4's
	// carryover should include round 1 even without round 3 having run.
	assert.ElementsMatch(t, []int{1, 2, 3}, dag.RoundDeps[4])
}

func TestFilterByModule_PartitionsByTopLevelDirectory(t *testing.T) {
	packed := packer.PackedContext{Files: []packer.PackedFile{
		{Path: "main.go", Tier: packer.TierFull},
		{Path: "internal/core/core.go", Tier: packer.TierFull},
		{Path: "internal/core/other.go", Tier: packer.TierFull},
	}}

	root := filterByModule(packed, "(root)")
	require.Len(t, root.Files, 1)
	assert.Equal(t, "main.go", root.Files[0].Path)

	core := filterByModule(packed, "internal/core")
	require.Len(t, core.Files, 2)
}

func TestApplyPinAndBoost_PinWinsOverScore(t *testing.T) {
	priorities := []scorer.Priority{
		{Path: "a.go", Score: 50},
		{Path: "b.go", Score: 10},
	}
	out := applyPinAndBoost(priorities, []string{"b.go"}, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "b.go", out[0].Path)
	assert.Equal(t, 100, out[0].Score)
}

func TestApplyPinAndBoost_BoostCapsAtOneHundred(t *testing.T) {
	priorities := []scorer.Priority{{Path: "a.go", Score: 90}}
	out := applyPinAndBoost(priorities, nil, []string{"a.go"})
	require.Len(t, out, 1)
	assert.Equal(t, 100, out[0].Score)
}
