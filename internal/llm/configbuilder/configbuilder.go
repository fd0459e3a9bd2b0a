package configbuilder

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/config"
	"github.com/salwks/sdsmcp/internal/llm"
	llmanthropic "github.com/salwks/sdsmcp/internal/llm/providers/anthropic"
	llmgemini "github.com/salwks/sdsmcp/internal/llm/providers/gemini"
	llmollama "github.com/salwks/sdsmcp/internal/llm/providers/ollama"
	llmopenai "github.com/salwks/sdsmcp/internal/llm/providers/openai"
)

// BuildRegistry registers every known provider in descriptor order. Providers
// without a credential are registered too and simply report unavailable.
func BuildRegistry(cfg *config.Config, logger *zap.Logger) *llm.Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{}
	reg := llm.NewRegistry()

	for _, desc := range llm.Descriptors {
		pCfg := cfg.Provider(desc.Name)
		credential := pCfg.APIKey
		p := buildProvider(desc, pCfg, client)
		if desc.Name == "ollama" && credential == "" {
			credential = pCfg.BaseURL
		}
		reg.Register(desc, credential, p)

		logger.Debug("provider registered",
			zap.String("provider", desc.Name),
			zap.Bool("available", credential != ""))
	}

	reg.SetPreferred(cfg.Pipeline.PreferredProvider)
	return reg
}

func buildProvider(desc llm.Descriptor, cfg config.ProviderConfig, client *http.Client) llm.Provider {
	model := cfg.Model
	if model == "" {
		model = desc.DefaultModel
	}
	switch desc.Name {
	case "anthropic":
		return llmanthropic.NewProvider(cfg.BaseURL, model, cfg.APIKey, client)
	case "openai":
		return llmopenai.NewProvider(cfg.BaseURL, model, cfg.APIKey, client)
	case "gemini":
		return llmgemini.NewProvider(cfg.BaseURL, model, cfg.APIKey, client)
	default:
		host := cfg.APIKey
		if host == "" {
			host = cfg.BaseURL
		}
		return llmollama.NewProvider(host, model, client)
	}
}
