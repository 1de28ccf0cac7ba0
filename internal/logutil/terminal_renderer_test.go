package logutil

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRenderer(out *bytes.Buffer, interactive bool) *TerminalRenderer {
	return NewTerminalRenderer(TerminalRendererOptions{
		Out:            out,
		IsTerminalFunc: func() bool { return interactive },
		GetEnvFunc:     func(string) string { return "" },
	})
}

func TestTerminalRenderer_CIModeWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(TerminalRendererOptions{
		Out:            &buf,
		IsTerminalFunc: func() bool { return true },
		GetEnvFunc:     func(key string) string { if key == "CI" { return "true" }; return "" },
	})

	r.OnAnalyzerDone("fileTree", 10*time.Millisecond)
	r.OnRoundDone(1, 2*time.Second, 0.01)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "fileTree")
	assert.Contains(t, lines[1], "round 1")
}

func TestTerminalRenderer_CostSuppressedOmitsDollarAmount(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(TerminalRendererOptions{
		Out:            &buf,
		IsTerminalFunc: func() bool { return true },
		GetEnvFunc:     func(key string) string { if key == "CI" { return "true" }; return "" },
		SuppressCost:   true,
	})
	r.OnRoundDone(1, time.Second, 1.23)
	assert.NotContains(t, buf.String(), "$")
	assert.True(t, r.CostSuppressed())
}

func TestTerminalRenderer_TTYModeRepaintsBoundedRegion(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRenderer(&buf, true)

	r.OnRoundStart(1)
	r.OnComplete(5, 1, 6, time.Second)

	out := buf.String()
	assert.Contains(t, out, "\x1b[2K")
	assert.Contains(t, out, "documents generated")
}

func TestTerminalRenderer_NoColorForcesASCIISymbols(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(TerminalRendererOptions{
		Out:            &buf,
		IsTerminalFunc: func() bool { return true },
		GetEnvFunc:     func(key string) string { if key == "NO_COLOR" { return "1" }; return "" },
	})
	assert.Equal(t, ASCIISymbols, r.symbols)
}

func TestTerminalRenderer_RoundRetryAndDegradedLinesIncludeReason(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(TerminalRendererOptions{
		Out:            &buf,
		IsTerminalFunc: func() bool { return true },
		GetEnvFunc:     func(key string) string { if key == "CI" { return "true" }; return "" },
	})
	r.OnRoundRetry(2, 1, 30000, "429")
	r.OnRoundDegraded(2, "retry budget exhausted")

	out := buf.String()
	assert.Contains(t, out, "retry 1 in 30000ms (429)")
	assert.Contains(t, out, "degraded: retry budget exhausted")
}
