// Package render turns a specification document into the files handed to
// developers: Markdown, a JSON task list, an OpenAPI stub and a SQL schema stub.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/salwks/sdsmcp/internal/specdoc"
)

type frontMatter struct {
	Title      string   `yaml:"title"`
	Platform   string   `yaml:"platform,omitempty"`
	TechStack  string   `yaml:"tech_stack"`
	Modules    int      `yaml:"modules"`
	Functions  int      `yaml:"functions"`
	Degraded   []string `yaml:"degraded_modules,omitempty"`
	Generated  string   `yaml:"generated"`
	SessionRef string   `yaml:"session,omitempty"`
}

// Markdown renders the full document with a YAML front matter block.
func Markdown(spec *specdoc.Specification, sessionID string, generated time.Time) ([]byte, error) {
	meta, err := yaml.Marshal(frontMatter{
		Title:      spec.Title,
		Platform:   string(spec.Platform),
		TechStack:  spec.TechStack.Name,
		Modules:    len(spec.Modules),
		Functions:  spec.FunctionCount(),
		Degraded:   spec.DegradedModules,
		Generated:  generated.UTC().Format(time.RFC3339),
		SessionRef: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("render: encode front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(meta, "\n"))
	buf.WriteString("\n---\n\n")
	buf.WriteString(Summary(spec))
	return buf.Bytes(), nil
}

// Summary renders the document body as Markdown without front matter.
func Summary(spec *specdoc.Specification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", spec.Title)
	if spec.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", spec.Description)
	}

	b.WriteString("## Tech stack\n\n")
	writeStack(&b, spec.TechStack)

	if r := spec.Requirements; r != nil {
		b.WriteString("## Requirements\n\n")
		writeList(&b, "Functional", r.Functional)
		writeList(&b, "Non-functional", r.NonFunctional)
		writeList(&b, "System", r.System)
	}

	fmt.Fprintf(&b, "## Modules (%d)\n\n", len(spec.Modules))
	for i, m := range spec.Modules {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, m.Name)
		if m.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", m.Description)
		}
		if len(m.Functions) == 0 {
			b.WriteString("_No functions generated for this module._\n\n")
			continue
		}
		b.WriteString("| Function | Description | Parameters | Returns |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, f := range m.Functions {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n",
				f.Name, cell(f.Description), cell(strings.Join(f.Parameters, ", ")), cell(f.Returns))
		}
		b.WriteString("\n")
	}

	if len(spec.DegradedModules) > 0 {
		fmt.Fprintf(&b, "> Details could not be generated for: %s\n", strings.Join(spec.DegradedModules, ", "))
	}
	return b.String()
}

func writeStack(b *strings.Builder, s specdoc.TechStack) {
	fmt.Fprintf(b, "- **Name:** %s\n", s.Name)
	if s.Frontend != "" {
		fmt.Fprintf(b, "- **Frontend:** %s\n", s.Frontend)
	}
	if s.Backend != "" {
		fmt.Fprintf(b, "- **Backend:** %s\n", s.Backend)
	}
	if s.Database != "" {
		fmt.Fprintf(b, "- **Database:** %s\n", s.Database)
	}
	if len(s.Tools) > 0 {
		fmt.Fprintf(b, "- **Tools:** %s\n", strings.Join(s.Tools, ", "))
	}
	b.WriteString("\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
