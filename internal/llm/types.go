package llm

import "context"

// TaskType labels the purpose of a single invocation and weights provider selection.
type TaskType string

const (
	TaskModuleGeneration TaskType = "module-generation"
	TaskSpecification    TaskType = "specification"
	TaskGeneral          TaskType = "general"
)

// Provider is an upstream text-generation endpoint.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Scores rate a provider on a 0-10 scale. A higher Cost means more expensive.
type Scores struct {
	Performance int
	Cost        int
	Reliability int
}

// Descriptor is the static identity and rating of a supported provider.
type Descriptor struct {
	Name          string
	Label         string
	DefaultModel  string
	DefaultURL    string
	CredentialEnv string
	Scores        Scores
}

// Descriptors lists every supported provider; order breaks selection ties.
var Descriptors = []Descriptor{
	{
		Name:          "anthropic",
		Label:         "Anthropic Claude",
		DefaultModel:  "claude-3-5-sonnet-20241022",
		DefaultURL:    "https://api.anthropic.com",
		CredentialEnv: "ANTHROPIC_API_KEY",
		Scores:        Scores{Performance: 9, Cost: 6, Reliability: 9},
	},
	{
		Name:          "openai",
		Label:         "OpenAI GPT",
		DefaultModel:  "gpt-4o",
		DefaultURL:    "https://api.openai.com",
		CredentialEnv: "OPENAI_API_KEY",
		Scores:        Scores{Performance: 9, Cost: 7, Reliability: 9},
	},
	{
		Name:          "gemini",
		Label:         "Google Gemini",
		DefaultModel:  "gemini-2.0-flash",
		CredentialEnv: "GEMINI_API_KEY",
		Scores:        Scores{Performance: 8, Cost: 3, Reliability: 8},
	},
	{
		Name:          "ollama",
		Label:         "Ollama (local)",
		DefaultModel:  "llama3.1",
		DefaultURL:    "http://127.0.0.1:11434",
		CredentialEnv: "OLLAMA_HOST",
		Scores:        Scores{Performance: 5, Cost: 0, Reliability: 6},
	},
}

// LookupDescriptor finds a descriptor by name.
func LookupDescriptor(name string) (Descriptor, bool) {
	for _, d := range Descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
