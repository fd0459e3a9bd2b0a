// Package specdoc holds the generated project specification document and the
// static tech-stack catalog it draws from.
package specdoc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salwks/sdsmcp/internal/apperr"
)

// Platform is the delivery target of the described project.
type Platform string

const (
	PlatformAuto   Platform = "auto"
	PlatformWeb    Platform = "web"
	PlatformMobile Platform = "mobile"
)

// ParsePlatform accepts "", auto, web or mobile.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PlatformAuto:
		return PlatformAuto, nil
	case PlatformWeb, PlatformMobile:
		return p, nil
	default:
		return "", apperr.Configuration("parse platform", "unsupported platform %q (want auto, web or mobile)", s)
	}
}

// Complexity is the requested project size.
type Complexity string

const (
	ComplexityAuto    Complexity = "auto"
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// ParseComplexity accepts "", auto, simple, medium or complex.
func ParseComplexity(s string) (Complexity, error) {
	switch c := Complexity(strings.ToLower(strings.TrimSpace(s))); c {
	case "", ComplexityAuto:
		return ComplexityAuto, nil
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return c, nil
	default:
		return "", apperr.Configuration("parse complexity", "unsupported complexity %q (want auto, simple, medium or complex)", s)
	}
}

// Specification is the assembled project document.
type Specification struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Platform        Platform      `json:"platform,omitempty"`
	TechStack       TechStack     `json:"techStack"`
	Requirements    *Requirements `json:"requirements,omitempty"`
	Modules         []Module      `json:"modules"`
	DegradedModules []string      `json:"degradedModules,omitempty"`
}

// Requirements are optional free-form requirement lists.
type Requirements struct {
	Functional    []string `json:"functional,omitempty"`
	NonFunctional []string `json:"nonFunctional,omitempty"`
	System        []string `json:"system,omitempty"`
}

// Module groups related functions. A module without functions is a degraded
// result and is kept as is.
type Module struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Functions   []Function `json:"functions"`
}

// Function is a single unit of work inside a module. Only Name is guaranteed.
type Function struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Parameters  StringList `json:"parameters,omitempty"`
	Returns     string     `json:"returns,omitempty"`
	DesignSpec  string     `json:"designSpec,omitempty"`
	Definition  string     `json:"functionDefinition,omitempty"`
	Remarks     string     `json:"remarks,omitempty"`
	TestCases   StringList `json:"testCases,omitempty"`
}

// UnmarshalJSON accepts the field spellings models tend to produce. Text
// fields tolerate objects and arrays, which are flattened to text.
func (f *Function) UnmarshalJSON(data []byte) error {
	type plain Function
	var aux struct {
		plain
		Description any `json:"description"`
		Returns     any `json:"returns"`
		DesignSpec  any `json:"designSpec"`
		Definition  any `json:"functionDefinition"`
		Remarks     any `json:"remarks"`
		Purpose     any `json:"purpose"`
		ReturnValue any `json:"returnValue"`
		Return      any `json:"return"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = Function(aux.plain)
	f.Description = firstNonEmpty(looseText(aux.Description), looseText(aux.Purpose))
	f.Returns = firstNonEmpty(looseText(aux.Returns), looseText(aux.ReturnValue), looseText(aux.Return))
	f.DesignSpec = looseText(aux.DesignSpec)
	f.Definition = looseText(aux.Definition)
	f.Remarks = looseText(aux.Remarks)
	return nil
}

// looseText renders a best-effort field as text; list items are joined with "; ".
func looseText(v any) string {
	items, ok := v.([]any)
	if !ok {
		return stringify(v)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if s := stringify(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "; ")
}

// StringList decodes from either a JSON array or a single value.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = nil
	case []any:
		out := make(StringList, 0, len(v))
		for _, item := range v {
			if s := stringify(item); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	default:
		if s := stringify(v); s != "" {
			*l = StringList{s}
		} else {
			*l = nil
		}
	}
	return nil
}

// Clone returns a deep copy.
func (s *Specification) Clone() *Specification {
	if s == nil {
		return nil
	}
	out := *s
	out.TechStack = s.TechStack.clone()
	if s.Requirements != nil {
		r := Requirements{
			Functional:    cloneStrings(s.Requirements.Functional),
			NonFunctional: cloneStrings(s.Requirements.NonFunctional),
			System:        cloneStrings(s.Requirements.System),
		}
		out.Requirements = &r
	}
	out.Modules = make([]Module, len(s.Modules))
	for i, m := range s.Modules {
		out.Modules[i] = m.Clone()
	}
	out.DegradedModules = cloneStrings(s.DegradedModules)
	return &out
}

// Clone returns a deep copy of the module.
func (m Module) Clone() Module {
	out := m
	out.Functions = make([]Function, len(m.Functions))
	for i, f := range m.Functions {
		f.Parameters = StringList(cloneStrings(f.Parameters))
		f.TestCases = StringList(cloneStrings(f.TestCases))
		out.Functions[i] = f
	}
	return out
}

// ModuleNames lists module names in order.
func (s *Specification) ModuleNames() []string {
	names := make([]string, 0, len(s.Modules))
	for _, m := range s.Modules {
		names = append(names, m.Name)
	}
	return names
}

// FunctionCount totals functions across modules.
func (s *Specification) FunctionCount() int {
	n := 0
	for _, m := range s.Modules {
		n += len(m.Functions)
	}
	return n
}

// StubModule is the placeholder used when a module could not be detailed.
func StubModule(name string) Module {
	return Module{
		Name:        name,
		Description: fmt.Sprintf("%s module (details could not be generated)", name),
		Functions:   []Function{},
	}
}

// NameKey normalises a module name for matching.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		name, _ := t["name"].(string)
		typ, _ := t["type"].(string)
		if name != "" && typ != "" {
			return name + ": " + typ
		}
		if name != "" {
			return name
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
