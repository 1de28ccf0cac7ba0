package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSelectedDocs_EmptyReturnsEverything(t *testing.T) {
	specs, err := ResolveSelectedDocs(nil)
	require.NoError(t, err)
	assert.Len(t, specs, len(Registry))
}

func TestResolveSelectedDocs_UnknownNameErrorsWithSuggestions(t *testing.T) {
	_, err := ResolveSelectedDocs([]string{"bad-alias"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad-alias")
	assert.Contains(t, err.Error(), "arch")
}

func TestResolveSelectedDocs_AliasResolvesToSingleDoc(t *testing.T) {
	specs, err := ResolveSelectedDocs([]string{"arch"})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "03-architecture", specs[0].ID)
}

func TestResolveSelectedDocs_GroupExpandsAndDedupes(t *testing.T) {
	specs, err := ResolveSelectedDocs([]string{"core", "arch"})
	require.NoError(t, err)
	assert.Len(t, specs, 4)
}

func TestResolveSelectedDocs_PreservesRegistryOrder(t *testing.T) {
	specs, err := ResolveSelectedDocs([]string{"13-deployment", "01-overview"})
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "01-overview", specs[0].ID)
	assert.Equal(t, "13-deployment", specs[1].ID)
}

func TestComputeRequiredRounds_ArchitectureExpandsTransitively(t *testing.T) {
	specs, err := ResolveSelectedDocs([]string{"arch"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, ComputeRequiredRounds(specs))
}

func TestComputeRequiredRounds_StaticOnlyDocsRequireNoRounds(t *testing.T) {
	specs, err := ResolveSelectedDocs([]string{"reference"})
	require.NoError(t, err)
	assert.Empty(t, ComputeRequiredRounds(specs))
}

func TestRegistry_EveryIDHasUniqueFilename(t *testing.T) {
	ids := map[string]bool{}
	filenames := map[string]bool{}
	for _, d := range Registry {
		assert.False(t, ids[d.ID], "duplicate id %q", d.ID)
		assert.False(t, filenames[d.Filename], "duplicate filename %q", d.Filename)
		ids[d.ID] = true
		filenames[d.Filename] = true
	}
	assert.Len(t, Registry, 14)
}
