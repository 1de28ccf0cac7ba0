package rounds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/handover/internal/ratelimit"
)

func TestRunModuleFanout_OneCallPerModule(t *testing.T) {
	provider := &fakeProvider{data: map[string]interface{}{"summary": "ok"}}
	r := testRunner(t, provider, nil)
	r.RetryConfig = ratelimit.RetryConfig{MaxAttempts: 1}

	modules := []string{"internal", "cmd", "(root)"}

	results := r.RunModuleFanout(context.Background(), modules, 2,
		func(module string) Spec { return Spec{RoundNumber: 5} },
		func(module string) []string { return []string{module + ":0"} },
		noopExtract, nil,
	)

	assert.Len(t, results, 3)
	seen := map[string]bool{}
	for _, res := range results {
		seen[res.Module] = true
		assert.Equal(t, StatusSuccess, res.Result.Status)
	}
	for _, m := range modules {
		assert.True(t, seen[m], "expected a result for module %q", m)
	}
	assert.Equal(t, 3, provider.calls)
}
