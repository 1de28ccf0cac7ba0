package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/handover/internal/packer"
)

func TestPrintEstimateTable_DoesNotPanicOnEmptyContext(t *testing.T) {
	packed := packer.PackedContext{Files: nil, Metadata: packer.Metadata{UsedTokens: 0}}
	assert.NotPanics(t, func() {
		printEstimateTable("anthropic", "claude-sonnet-4-5", packed, 0)
	})
}

func TestPrintEstimateTable_ModuleFanoutAddsToCallCount(t *testing.T) {
	packed := packer.PackedContext{Metadata: packer.Metadata{UsedTokens: 1000}}
	assert.NotPanics(t, func() {
		printEstimateTable("anthropic", "claude-sonnet-4-5", packed, 3)
	})
}
