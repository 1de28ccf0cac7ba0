package logutil

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// repaintInterval bounds how often TerminalRenderer repaints its live
// region in TTY mode (spec §4.15: "throttled render loop (~60 ms)").
const repaintInterval = 60 * time.Millisecond

// TerminalRenderer is the TerminalRenderer (C16): an observer of DAG and
// round-runner events, never a participant in pipeline correctness (spec
// §4.15: "failures here must not affect analysis output" — every method
// on TerminalRenderer is side-effect-only and returns nothing to guard
// against that temptation).
//
// Built on this package's ColorScheme/SymbolProvider/interactive-detection
// machinery (colors.go, formatting.go), applied to "analyzer/round/
// document" pipeline events, with a bounded-region repaint loop and
// NO_COLOR handling on top.
type TerminalRenderer struct {
	mu sync.Mutex
	out io.Writer

	interactive  bool
	suppressCost bool
	colors       *ColorScheme
	symbols      SymbolSet

	lastRepaint time.Time
	lines       []string // the bounded live region, TTY mode only
	painted     int      // number of terminal lines currently occupied by lines
}

// TerminalRendererOptions configures a TerminalRenderer, with injectable
// environment detection for testing.
type TerminalRendererOptions struct {
	Out            io.Writer
	IsTerminalFunc func() bool
	GetEnvFunc     func(string) string
	SuppressCost   bool
}

// NewTerminalRenderer builds a TerminalRenderer with automatic environment
// detection: TTY vs CI mode via DetectInteractiveEnvironment, and
// NO_COLOR honored by forcing ASCII symbols and disabling color even in an
// otherwise-interactive terminal (spec §4.15).
func NewTerminalRenderer(opts TerminalRendererOptions) *TerminalRenderer {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	isTerminalFunc := opts.IsTerminalFunc
	if isTerminalFunc == nil {
		isTerminalFunc = defaultIsTerminal
	}
	getEnvFunc := opts.GetEnvFunc
	if getEnvFunc == nil {
		getEnvFunc = os.Getenv
	}

	interactive := DetectInteractiveEnvironment(isTerminalFunc, getEnvFunc)
	noColor := getEnvFunc("NO_COLOR") != ""

	colorModeInteractive := interactive && !noColor
	symbolProvider := NewSymbolProvider(interactive && !noColor)

	return &TerminalRenderer{
		out:          out,
		interactive:  interactive,
		suppressCost: opts.SuppressCost,
		colors:       NewColorScheme(colorModeInteractive),
		symbols:      symbolProvider.GetSymbols(),
	}
}

// CostSuppressed reports whether cost display is currently suppressed
// (spec §4.15: "suppressed entirely when the active provider is local or
// when the auth source is subscription").
func (r *TerminalRenderer) CostSuppressed() bool { return r.suppressCost }

// OnAnalyzerDone records one of the eight fixed analyzers completing.
func (r *TerminalRenderer) OnAnalyzerDone(name string, elapsed time.Duration) {
	r.emit(fmt.Sprintf("%s analyzer %s done (%s)", r.colors.ColorSuccess(r.symbols.Success), name, elapsed.Round(time.Millisecond)))
}

// OnAnalyzerFailed records one analyzer's captured failure (the analyzer
// coordinator degrades this to an empty sentinel, never aborting the run).
func (r *TerminalRenderer) OnAnalyzerFailed(name string, reason string) {
	r.emit(fmt.Sprintf("%s analyzer %s failed: %s", r.colors.ColorError(r.symbols.Error), name, reason))
}

// OnRoundStart records a round beginning execution.
func (r *TerminalRenderer) OnRoundStart(n int) {
	r.emit(fmt.Sprintf("%s round %d starting", r.colors.ColorInfo(r.symbols.Bullet), n))
}

// OnRoundDone records a round's successful completion, including its
// cost unless cost display is suppressed.
func (r *TerminalRenderer) OnRoundDone(n int, elapsed time.Duration, costUSD float64) {
	line := fmt.Sprintf("%s round %d done (%s)", r.colors.ColorSuccess(r.symbols.Success), n, elapsed.Round(time.Millisecond))
	if !r.suppressCost {
		line += fmt.Sprintf(" — $%.4f", costUSD)
	}
	r.emit(line)
}

// OnRoundCached records a round satisfied entirely from the round cache
// (spec §8 scenario 5: "the terminal records status cached").
func (r *TerminalRenderer) OnRoundCached(n int) {
	r.emit(fmt.Sprintf("%s round %d cached", r.colors.ColorInfo(r.symbols.Bullet), n))
}

// OnRoundDegraded records a round exhausting its retry budget.
func (r *TerminalRenderer) OnRoundDegraded(n int, reason string) {
	r.emit(fmt.Sprintf("%s round %d degraded: %s", r.colors.ColorWarning(r.symbols.Warning), n, reason))
}

// OnRoundRetry is the forwarding target for a RoundRunner's onRetry hook.
func (r *TerminalRenderer) OnRoundRetry(n int, attempt int, delayMs int64, reason string) {
	r.emit(fmt.Sprintf("%s round %d retry %d in %dms (%s)", r.colors.ColorWarning(r.symbols.Warning), n, attempt, delayMs, reason))
}

// OnDocumentSkipped records a render step skipped because its round
// dependency failed or was never selected.
func (r *TerminalRenderer) OnDocumentSkipped(filename string) {
	r.emit(fmt.Sprintf("%s %s skipped", r.colors.ColorWarning(r.symbols.Warning), filename))
}

// OnComplete records final totals and forces an immediate repaint,
// bypassing the throttle so the terminal's last state is always accurate.
func (r *TerminalRenderer) OnComplete(generated, skipped, total int, elapsed time.Duration) {
	r.mu.Lock()
	r.lastRepaint = time.Time{}
	r.mu.Unlock()
	r.emit(fmt.Sprintf("%s %d/%d documents generated (%d skipped) in %s", r.colors.ColorSuccess(r.symbols.Sparkles), generated, total, skipped, elapsed.Round(time.Millisecond)))
}

// emit routes one state-transition line to the CI or TTY rendering path.
// CI mode (spec §4.15: "one structured log line per meaningful state
// transition") always writes immediately; TTY mode appends to the bounded
// live region and repaints only when the throttle interval has elapsed.
func (r *TerminalRenderer) emit(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.interactive {
		fmt.Fprintln(r.out, line)
		return
	}

	r.lines = append(r.lines, line)
	const maxLines = 10
	if len(r.lines) > maxLines {
		r.lines = r.lines[len(r.lines)-maxLines:]
	}

	if time.Since(r.lastRepaint) < repaintInterval {
		return
	}
	r.repaintLocked()
}

// repaintLocked redraws the bounded live region in place using cursor
// hide/up/clear-to-end-of-line escape sequences. Callers must hold r.mu.
func (r *TerminalRenderer) repaintLocked() {
	if r.painted > 0 {
		fmt.Fprintf(r.out, "\x1b[%dA", r.painted) // cursor up N lines
	}
	for _, l := range r.lines {
		fmt.Fprint(r.out, "\x1b[2K") // clear line
		fmt.Fprintln(r.out, l)
	}
	r.painted = len(r.lines)
	r.lastRepaint = time.Now()
}
