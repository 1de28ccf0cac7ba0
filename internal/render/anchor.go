package render

import (
	"fmt"
	"regexp"
	"strings"
)

var nonAnchorRun = regexp.MustCompile(`[^a-z0-9]+`)

// Anchor derives a Markdown heading anchor from a section title:
// lower-case, then collapse every run of non-alphanumeric characters to a
// single hyphen, trimmed (spec §4.14).
func Anchor(title string) string {
	a := nonAnchorRun.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(a, "-")
}

// CrossRef formats a relative cross-document link "[text](NN-NAME.md#anchor)".
// Links to documents not generated in the current run are left as-is by
// design (spec §4.14): CrossRef never checks whether filename was actually
// produced.
func CrossRef(text, filename, sectionTitle string) string {
	return fmt.Sprintf("[%s](%s#%s)", text, filename, Anchor(sectionTitle))
}
