package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/valpere/rpgtl/internal"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// GeminiService calls the Generative Language REST API.
type GeminiService struct {
	baseURL string
	client  *http.Client
}

func NewGeminiService(baseURL string) *GeminiService {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &GeminiService{baseURL: baseURL, client: newHTTPClient()}
}

func (s *GeminiService) Backend() Backend { return Gemini }

func (s *GeminiService) Validate(cfg ServiceConfig) error {
	return requireKey(Gemini, cfg)
}

type geminiPart struct {
	Text    string `json:"text"`
	Thought bool   `json:"thought,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiGenerationConfig struct {
	Temperature      float64              `json:"temperature"`
	ResponseMimeType string               `json:"responseMimeType"`
	ThinkingConfig   geminiThinkingConfig `json:"thinkingConfig"`
}

type geminiRequest struct {
	SystemInstruction geminiContent          `json:"systemInstruction"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (s *GeminiService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error) {
	if err := s.Validate(cfg); err != nil {
		return internal.TranslationResponse{}, err
	}

	system, user, err := buildChatPrompt(cfg, req)
	if err != nil {
		return internal.TranslationResponse{}, err
	}

	// -1 lets the model pick its own thinking budget; 0 disables thinking.
	budget := 0
	if cfg.Thinking {
		budget = -1
	}
	body := geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      cfg.Temperature,
			ResponseMimeType: "application/json",
			ThinkingConfig:   geminiThinkingConfig{ThinkingBudget: budget},
		},
	}

	model := url.PathEscape(modelOrDefault(cfg, defaultGeminiModel))
	endpoint := resolveBaseURL(cfg, s.baseURL) + "/v1beta/models/" + model + ":generateContent"

	var out geminiResponse
	if err := doJSON(ctx, s.client, http.MethodPost, endpoint, map[string]string{"x-goog-api-key": cfg.APIKey}, body, &out); err != nil {
		return internal.TranslationResponse{}, err
	}
	if out.PromptFeedback.BlockReason != "" {
		return internal.TranslationResponse{}, fmt.Errorf("%w: prompt blocked: %s", ErrMalformedResponse, out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) == 0 {
		return internal.TranslationResponse{}, fmt.Errorf("%w: no candidates returned", ErrMalformedResponse)
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		if part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	return parseChatReply(text.String())
}

func (s *GeminiService) ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error) {
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}

	var out struct {
		Models []struct {
			Name                       string   `json:"name"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}
	endpoint := resolveBaseURL(cfg, s.baseURL) + "/v1beta/models?pageSize=1000"
	if err := doJSON(ctx, s.client, http.MethodGet, endpoint, map[string]string{"x-goog-api-key": cfg.APIKey}, nil, &out); err != nil {
		return nil, err
	}

	models := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		if !slices.Contains(m.SupportedGenerationMethods, "generateContent") {
			continue
		}
		models = append(models, strings.TrimPrefix(m.Name, "models/"))
	}
	sort.Strings(models)
	return models, nil
}
