package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/handover/internal/dag"
)

// DocumentSpec is one entry in the registry: a filename, its directly
// required rounds (not transitively expanded — that is ComputeRequiredRounds's
// job), and the pure function that renders it.
type DocumentSpec struct {
	ID             string // e.g. "03-architecture", used by --only and aliases
	Filename       string // e.g. "03-ARCHITECTURE.md"
	Category       string
	Title          string
	RequiredRounds []int
	HasDiagrams    bool
	Render         func(RenderContext) (body string, status DocStatus)
}

// Registry is the full, ordered set of DocumentSpecs (spec §4.14). Order
// matches the filesystem contract in spec §6 and is also the rendering
// order, except that INDEX, despite being first alphabetically, is always
// rendered last (it aggregates every other document's status).
var Registry = []DocumentSpec{
	overviewSpec,
	conventionsSpec,
	architectureSpec,
	featuresSpec,
	modulesSpec,
	risksSpec,
	onboardingSpec,
	dependenciesSpec,
	testingSpec,
	gitHistorySpec,
	todosSpec,
	environmentSpec,
	deploymentSpec,
	indexSpec,
}

// aliases maps a short name to a single document id.
var aliases = map[string]string{
	"arch":        "03-architecture",
	"deps":        "08-dependencies",
	"modules":     "05-modules",
	"overview":    "01-overview",
	"conventions": "02-conventions",
	"features":    "04-features",
	"risks":       "06-risks",
	"onboarding":  "07-onboarding",
	"testing":     "09-testing",
	"git-history": "10-git-history",
	"todos":       "11-todos",
	"environment": "12-environment",
	"deployment":  "13-deployment",
	"index":       "00-index",
}

// groups maps a group name to the document ids it expands to. Membership
// is fixed by the document registry design (SPEC_FULL.md §6): spec §4.14
// names core/ops/onboard/quality as illustrative examples without
// defining membership, so this table is the authoritative definition.
var groups = map[string][]string{
	"core":    {"01-overview", "02-conventions", "03-architecture", "04-features"},
	"onboard": {"00-index", "01-overview", "07-onboarding"},
	"ops":     {"06-risks", "07-onboarding", "13-deployment"},
	"quality": {"09-testing", "11-todos"},
	"reference": {
		"08-dependencies", "09-testing", "10-git-history",
		"11-todos", "12-environment",
	},
	"all": allDocIDs(),
}

func allDocIDs() []string {
	ids := make([]string, 0, len(Registry))
	for _, d := range Registry {
		ids = append(ids, d.ID)
	}
	return ids
}

// ValidAliasNames lists every name resolveSelectedDocs accepts, for the
// error message when a caller passes an unknown one.
func ValidAliasNames() []string {
	names := make([]string, 0, len(aliases)+len(groups)+len(Registry))
	for a := range aliases {
		names = append(names, a)
	}
	for g := range groups {
		names = append(names, g)
	}
	for _, d := range Registry {
		names = append(names, d.ID)
	}
	sort.Strings(names)
	return names
}

func specByID(id string) (DocumentSpec, bool) {
	for _, d := range Registry {
		if d.ID == id {
			return d, true
		}
	}
	return DocumentSpec{}, false
}

// ResolveSelectedDocs expands a --only value (empty/nil selection, a
// single alias/group name, or a raw document id) into the DocumentSpecs
// to render. A nil or empty selection returns every DocumentSpec (spec
// §8). An unrecognized name raises an error naming it and listing every
// valid alias/group/id (spec §8).
func ResolveSelectedDocs(selection []string) ([]DocumentSpec, error) {
	if len(selection) == 0 {
		return append([]DocumentSpec(nil), Registry...), nil
	}

	seen := map[string]bool{}
	for _, name := range selection {
		expanded, err := resolveOne(name)
		if err != nil {
			return nil, err
		}
		for _, id := range expanded {
			seen[id] = true
		}
	}

	specs := make([]DocumentSpec, 0, len(seen))
	for _, d := range Registry {
		if seen[d.ID] {
			specs = append(specs, d)
		}
	}
	return specs, nil
}

func resolveOne(name string) ([]string, error) {
	if group, ok := groups[name]; ok {
		return group, nil
	}
	if id, ok := aliases[name]; ok {
		return []string{id}, nil
	}
	if _, ok := specByID(name); ok {
		return []string{name}, nil
	}
	return nil, fmt.Errorf(
		"handover: unknown document selector %q; valid selectors are: %s",
		name, strings.Join(ValidAliasNames(), ", "),
	)
}

// ComputeRequiredRounds expands the selected DocumentSpecs' direct
// RequiredRounds through dag.RoundDeps and unions the result, reproducing
// the exact scenario in spec §8: selecting only 03-architecture (direct
// requiredRounds [4]) must include rounds {1,2,3,4}.
func ComputeRequiredRounds(selected []DocumentSpec) []int {
	var direct []int
	for _, d := range selected {
		direct = append(direct, d.RequiredRounds...)
	}
	return dag.ExpandRounds(direct)
}
