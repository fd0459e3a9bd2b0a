package render

import (
	"fmt"
	"strings"

	"github.com/salwks/sdsmcp/internal/specdoc"
)

// Schema renders a SQL schema stub with one table per module.
func Schema(spec *specdoc.Specification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Schema stub for %s\n", spec.Title)
	if spec.TechStack.Database != "" {
		fmt.Fprintf(&b, "-- Target database: %s\n", spec.TechStack.Database)
	}
	b.WriteString("\n")

	for _, m := range spec.Modules {
		table := strings.ReplaceAll(Slug(m.Name), "-", "_")
		if m.Description != "" {
			fmt.Fprintf(&b, "-- %s\n", strings.ReplaceAll(m.Description, "\n", " "))
		}
		fmt.Fprintf(&b, "CREATE TABLE %s (\n", table)
		b.WriteString("    id BIGSERIAL PRIMARY KEY,\n")
		b.WriteString("    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,\n")
		b.WriteString("    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP\n")
		b.WriteString(");\n\n")
	}
	return []byte(b.String())
}
