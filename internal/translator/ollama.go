package translator

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/valpere/rpgtl/internal"
)

const (
	defaultOllamaBaseURL = "https://ollama.com"
	defaultOllamaModel   = "gpt-oss:20b"
)

// OllamaService targets the Ollama chat API. The default endpoint is Ollama
// Cloud, which requires a bearer key; BaseURL may point at a local server.
type OllamaService struct {
	baseURL string
	client  *http.Client
}

func NewOllamaService(baseURL string) *OllamaService {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaService{baseURL: baseURL, client: newHTTPClient()}
}

func (s *OllamaService) Backend() Backend { return Ollama }

func (s *OllamaService) Validate(cfg ServiceConfig) error {
	return requireKey(Ollama, cfg)
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format"`
	Options  ollamaOptions   `json:"options"`
	Think    bool            `json:"think"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (s *OllamaService) headers(cfg ServiceConfig) map[string]string {
	return map[string]string{"Authorization": "Bearer " + cfg.APIKey}
}

func (s *OllamaService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error) {
	if err := s.Validate(cfg); err != nil {
		return internal.TranslationResponse{}, err
	}

	system, user, err := buildChatPrompt(cfg, req)
	if err != nil {
		return internal.TranslationResponse{}, err
	}

	body := ollamaChatRequest{
		Model: modelOrDefault(cfg, defaultOllamaModel),
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Format:  "json",
		Options: ollamaOptions{Temperature: cfg.Temperature},
		Think:   cfg.Thinking,
	}

	var out ollamaChatResponse
	url := resolveBaseURL(cfg, s.baseURL) + "/api/chat"
	if err := doJSON(ctx, s.client, http.MethodPost, url, s.headers(cfg), body, &out); err != nil {
		return internal.TranslationResponse{}, err
	}
	if out.Message.Content == "" {
		return internal.TranslationResponse{}, fmt.Errorf("%w: empty message", ErrMalformedResponse)
	}

	return parseChatReply(out.Message.Content)
}

func (s *OllamaService) ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error) {
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}

	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	url := resolveBaseURL(cfg, s.baseURL) + "/api/tags"
	if err := doJSON(ctx, s.client, http.MethodGet, url, s.headers(cfg), nil, &out); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		models = append(models, m.Name)
	}
	sort.Strings(models)
	return models, nil
}
