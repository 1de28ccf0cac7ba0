package render

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the YAML-delimited header every rendered document opens
// with (spec §4.14's required-field list).
type FrontMatter struct {
	Title         string   `yaml:"title"`
	DocumentID    string   `yaml:"document_id"`
	Category      string   `yaml:"category"`
	Project       string   `yaml:"project"`
	GeneratedAt   string   `yaml:"generated_at"`
	Audience      Audience `yaml:"audience"`
	AIRoundsUsed  []int    `yaml:"ai_rounds_used"`
	Status        DocStatus `yaml:"status"`
}

// Render marshals fm as a "---"-delimited YAML block, matching the front
// matter convention in spec §4.14. A marshal failure here would indicate a
// bug in FrontMatter's shape, not bad input, so it panics rather than
// threading an error return through every renderer.
func (fm FrontMatter) Render() string {
	body, err := yaml.Marshal(fm)
	if err != nil {
		panic("render: front matter marshal failed: " + err.Error())
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(body)
	b.WriteString("---\n\n")
	return b.String()
}
