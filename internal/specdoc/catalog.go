package specdoc

import (
	"strings"

	"github.com/salwks/sdsmcp/internal/apperr"
)

// TechStack is one entry of the static catalog.
type TechStack struct {
	Name     string   `json:"name"`
	Platform Platform `json:"platform"`
	Frontend string   `json:"frontend,omitempty"`
	Backend  string   `json:"backend,omitempty"`
	Database string   `json:"database,omitempty"`
	Tools    []string `json:"tools,omitempty"`
}

func (t TechStack) clone() TechStack {
	t.Tools = cloneStrings(t.Tools)
	return t
}

// Summary renders the stack on one line.
func (t TechStack) Summary() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{t.Frontend, t.Backend, t.Database} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(t.Tools) > 0 {
		parts = append(parts, strings.Join(t.Tools, ", "))
	}
	if len(parts) == 0 {
		return t.Name
	}
	return t.Name + " (" + strings.Join(parts, " / ") + ")"
}

var catalog = map[Platform][]TechStack{
	PlatformWeb: {
		{Name: "react-node", Platform: PlatformWeb, Frontend: "React + TypeScript", Backend: "Node.js (Express)", Database: "PostgreSQL", Tools: []string{"Vite", "Jest"}},
		{Name: "nextjs-fullstack", Platform: PlatformWeb, Frontend: "Next.js", Backend: "Next.js API routes", Database: "PostgreSQL (Prisma)", Tools: []string{"Vercel"}},
		{Name: "vue-django", Platform: PlatformWeb, Frontend: "Vue 3", Backend: "Django REST framework", Database: "PostgreSQL", Tools: []string{"Celery"}},
		{Name: "go-htmx", Platform: PlatformWeb, Frontend: "htmx", Backend: "Go (net/http)", Database: "PostgreSQL"},
	},
	PlatformMobile: {
		{Name: "react-native-firebase", Platform: PlatformMobile, Frontend: "React Native (Expo)", Backend: "Firebase Functions", Database: "Cloud Firestore"},
		{Name: "flutter-supabase", Platform: PlatformMobile, Frontend: "Flutter", Backend: "Supabase", Database: "PostgreSQL"},
		{Name: "native", Platform: PlatformMobile, Frontend: "Swift (iOS) / Kotlin (Android)", Backend: "Node.js (NestJS)", Database: "PostgreSQL"},
	},
}

// Stacks lists the catalog entries for platform in registration order.
func Stacks(p Platform) []TechStack {
	src := catalog[p]
	out := make([]TechStack, len(src))
	for i, s := range src {
		out[i] = s.clone()
	}
	return out
}

// DefaultStack returns the first entry registered for p.
func DefaultStack(p Platform) (TechStack, error) {
	stacks := catalog[p]
	if len(stacks) == 0 {
		return TechStack{}, apperr.Configuration("select tech stack", "no tech stack registered for platform %q", p)
	}
	return stacks[0].clone(), nil
}

// LookupStack finds a stack for p by name, case-insensitively.
func LookupStack(p Platform, name string) (TechStack, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, s := range catalog[p] {
		if s.Name == key {
			return s.clone(), nil
		}
	}
	names := make([]string, 0, len(catalog[p]))
	for _, s := range catalog[p] {
		names = append(names, s.Name)
	}
	return TechStack{}, apperr.Validation("select tech stack", "stack_name",
		"unknown stack %q for platform %s (available: %s)", name, p, strings.Join(names, ", "))
}
