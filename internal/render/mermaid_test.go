package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeNodeID(t *testing.T) {
	assert.Equal(t, "internal_auth", SanitizeNodeID("internal/auth"))
	assert.Equal(t, "n123", SanitizeNodeID("123"))
	assert.Equal(t, "node", SanitizeNodeID("***"))
	assert.Regexp(t, `^[A-Za-z0-9_]+$`, SanitizeNodeID("a-b.c (d)"))
}

func TestMermaidNode_QuotesLabel(t *testing.T) {
	n := MermaidNode("cmd/handover")
	assert.Contains(t, n, `"cmd/handover"`)
	assert.True(t, len(n) > 0)
}

func TestMermaidEdge_WithAndWithoutRelation(t *testing.T) {
	assert.Equal(t, "a --> b", MermaidEdge("a", "b", ""))
	assert.Equal(t, "a -->|imports| b", MermaidEdge("a", "b", "imports"))
}

func TestDiagramBlock_WrapsFencedMermaid(t *testing.T) {
	block := DiagramBlock("TD", []string{"a --> b"})
	assert.Contains(t, block, "## Diagrams")
	assert.Contains(t, block, "```mermaid")
	assert.Contains(t, block, "graph TD")
	assert.Contains(t, block, "a --> b")
}

func TestAnchor_LowercasesAndHyphenates(t *testing.T) {
	assert.Equal(t, "data-flows", Anchor("Data Flows"))
	assert.Equal(t, "api-v2-notes", Anchor("API v2!! Notes"))
}

func TestCrossRef_FormatsRelativeLink(t *testing.T) {
	link := CrossRef("Architecture", "03-ARCHITECTURE.md", "Components")
	assert.Equal(t, "[Architecture](03-ARCHITECTURE.md#components)", link)
}
