package translator

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/valpere/rpgtl/internal"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-sonnet-4-5"
	anthropicVersion        = "2023-06-01"
	anthropicMaxTokens      = 16000
	anthropicThinkingBudget = 8000
)

// AnthropicService calls the Messages API directly.
type AnthropicService struct {
	baseURL string
	client  *http.Client
}

func NewAnthropicService(baseURL string) *AnthropicService {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	return &AnthropicService{baseURL: baseURL, client: newHTTPClient()}
}

func (s *AnthropicService) Backend() Backend { return Anthropic }

func (s *AnthropicService) Validate(cfg ServiceConfig) error {
	return requireKey(Anthropic, cfg)
}

func (s *AnthropicService) headers(cfg ServiceConfig) map[string]string {
	return map[string]string{
		"x-api-key":         cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	Thinking    *anthropicThinking `json:"thinking,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (s *AnthropicService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error) {
	if err := s.Validate(cfg); err != nil {
		return internal.TranslationResponse{}, err
	}

	system, user, err := buildChatPrompt(cfg, req)
	if err != nil {
		return internal.TranslationResponse{}, err
	}

	body := anthropicRequest{
		Model:     modelOrDefault(cfg, defaultAnthropicModel),
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	}
	// Extended thinking requires the default temperature.
	if cfg.Thinking {
		body.Thinking = &anthropicThinking{Type: "enabled", BudgetTokens: anthropicThinkingBudget}
	} else {
		temp := cfg.Temperature
		body.Temperature = &temp
	}

	var out anthropicResponse
	url := resolveBaseURL(cfg, s.baseURL) + "/v1/messages"
	if err := doJSON(ctx, s.client, http.MethodPost, url, s.headers(cfg), body, &out); err != nil {
		return internal.TranslationResponse{}, err
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return internal.TranslationResponse{}, fmt.Errorf("%w: no text content (stop reason %q)", ErrMalformedResponse, out.StopReason)
	}

	return parseChatReply(text.String())
}

func (s *AnthropicService) ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error) {
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	url := resolveBaseURL(cfg, s.baseURL) + "/v1/models?limit=1000"
	if err := doJSON(ctx, s.client, http.MethodGet, url, s.headers(cfg), nil, &out); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		models = append(models, m.ID)
	}
	sort.Strings(models)
	return models, nil
}
