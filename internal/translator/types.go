package translator

import (
	"context"
	"fmt"

	"github.com/valpere/rpgtl/internal"
)

// ServiceConfig is the per-request provider configuration. It is built once
// per request and never mutated.
type ServiceConfig struct {
	APIKey       string  `mapstructure:"api_key" json:"api_key"`
	Credentials  string  `mapstructure:"credentials" json:"credentials"`
	Model        string  `mapstructure:"model" json:"model"`
	FolderID     string  `mapstructure:"folder_id" json:"folder_id"`
	BaseURL      string  `mapstructure:"base_url" json:"base_url"`
	SystemPrompt string  `mapstructure:"system_prompt" json:"system_prompt"`
	Temperature  float64 `mapstructure:"temperature" json:"temperature"`
	Thinking     bool    `mapstructure:"thinking" json:"thinking"`
}

// Adapter is one provider family. Validate runs before any network call;
// TranslateBatch returns a response with the same file/block nesting as
// req.Files.
type Adapter interface {
	Backend() Backend
	Validate(cfg ServiceConfig) error
	TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error)
	ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error)
}

// NewAdapter returns the adapter for b with production endpoints.
func NewAdapter(b Backend) (Adapter, error) {
	switch b {
	case Google:
		return NewGoogleService(), nil
	case Yandex:
		return NewYandexService(""), nil
	case DeepL:
		return NewDeepLService(""), nil
	case OpenAI:
		return NewOpenAIService(), nil
	case DeepSeek:
		return NewDeepSeekService(), nil
	case OpenRouter:
		return NewOpenRouterService(), nil
	case Anthropic:
		return NewAnthropicService(""), nil
	case Gemini:
		return NewGeminiService(""), nil
	case Ollama:
		return NewOllamaService(""), nil
	}
	return nil, fmt.Errorf("unknown backend %s", b)
}

// Adapters returns one adapter per backend.
func Adapters() map[Backend]Adapter {
	out := make(map[Backend]Adapter, len(backendNames))
	for _, b := range Backends() {
		a, _ := NewAdapter(b)
		out[b] = a
	}
	return out
}
