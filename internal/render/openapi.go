package render

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salwks/sdsmcp/internal/specdoc"
)

type openAPIDoc struct {
	OpenAPI string                          `yaml:"openapi"`
	Info    openAPIInfo                     `yaml:"info"`
	Tags    []openAPITag                    `yaml:"tags,omitempty"`
	Paths   map[string]map[string]operation `yaml:"paths"`
}

type openAPIInfo struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version"`
}

type openAPITag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type operation struct {
	Tags        []string            `yaml:"tags"`
	Summary     string              `yaml:"summary"`
	OperationID string              `yaml:"operationId"`
	Responses   map[string]response `yaml:"responses"`
}

type response struct {
	Description string `yaml:"description"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases s and joins alphanumeric runs with dashes.
func Slug(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "item"
	}
	return slug
}

// OpenAPI renders a stub document with one POST operation per function.
func OpenAPI(spec *specdoc.Specification) ([]byte, error) {
	doc := openAPIDoc{
		OpenAPI: "3.0.3",
		Info:    openAPIInfo{Title: spec.Title, Description: spec.Description, Version: "0.1.0"},
		Paths:   map[string]map[string]operation{},
	}
	for _, m := range spec.Modules {
		doc.Tags = append(doc.Tags, openAPITag{Name: m.Name, Description: m.Description})
		for _, f := range m.Functions {
			path := "/" + Slug(m.Name) + "/" + Slug(f.Name)
			summary := f.Description
			if summary == "" {
				summary = f.Name
			}
			doc.Paths[path] = map[string]operation{
				"post": {
					Tags:        []string{m.Name},
					Summary:     summary,
					OperationID: Slug(m.Name) + "-" + Slug(f.Name),
					Responses: map[string]response{
						"200": {Description: firstNonEmpty(f.Returns, "OK")},
						"400": {Description: "Invalid input"},
					},
				},
			}
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render: encode openapi: %w", err)
	}
	return data, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
