package translator

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/valpere/rpgtl/internal"
)

const (
	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultDeepSeekBaseURL   = "https://api.deepseek.com/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenRouterModel = "openai/gpt-4o-mini"
	deepSeekChatModel      = "deepseek-chat"
	deepSeekReasonerModel  = "deepseek-reasoner"
)

var reasoningModelPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

// acceptsReasoningEffort reports whether model belongs to the OpenAI reasoning
// families. OpenRouter names such as "openai/o3-mini" are matched on the part
// after the vendor prefix.
func acceptsReasoningEffort(model string) bool {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	for _, p := range reasoningModelPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// OpenAIService talks to any OpenAI-compatible chat completions API. The same
// type serves OpenAI, DeepSeek and OpenRouter; they differ in base URL and
// default model.
type OpenAIService struct {
	backend Backend
	baseURL string
	client  *http.Client
	model   func(cfg ServiceConfig) string
}

func NewOpenAIService() *OpenAIService {
	return &OpenAIService{
		backend: OpenAI,
		baseURL: defaultOpenAIBaseURL,
		client:  newHTTPClient(),
		model: func(cfg ServiceConfig) string {
			return modelOrDefault(cfg, defaultOpenAIModel)
		},
	}
}

// NewDeepSeekService picks deepseek-reasoner when thinking is requested and
// no model is configured.
func NewDeepSeekService() *OpenAIService {
	return &OpenAIService{
		backend: DeepSeek,
		baseURL: defaultDeepSeekBaseURL,
		client:  newHTTPClient(),
		model: func(cfg ServiceConfig) string {
			if cfg.Thinking {
				return modelOrDefault(cfg, deepSeekReasonerModel)
			}
			return modelOrDefault(cfg, deepSeekChatModel)
		},
	}
}

func NewOpenRouterService() *OpenAIService {
	return &OpenAIService{
		backend: OpenRouter,
		baseURL: defaultOpenRouterBaseURL,
		client:  newHTTPClient(),
		model: func(cfg ServiceConfig) string {
			return modelOrDefault(cfg, defaultOpenRouterModel)
		},
	}
}

func (s *OpenAIService) Backend() Backend { return s.backend }

func (s *OpenAIService) Validate(cfg ServiceConfig) error {
	return requireKey(s.backend, cfg)
}

func (s *OpenAIService) newClient(cfg ServiceConfig) *openai.Client {
	conf := openai.DefaultConfig(cfg.APIKey)
	conf.BaseURL = resolveBaseURL(cfg, s.baseURL)
	conf.HTTPClient = s.client
	return openai.NewClientWithConfig(conf)
}

func (s *OpenAIService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error) {
	if err := s.Validate(cfg); err != nil {
		return internal.TranslationResponse{}, err
	}

	system, user, err := buildChatPrompt(cfg, req)
	if err != nil {
		return internal.TranslationResponse{}, err
	}

	model := s.model(cfg)
	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: float32(cfg.Temperature),
	}
	// deepseek-reasoner rejects response_format.
	if model != deepSeekReasonerModel {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// Models without reasoning reject reasoning_effort; thinking is then a no-op.
	if cfg.Thinking && acceptsReasoningEffort(model) {
		chatReq.ReasoningEffort = "medium"
		chatReq.Temperature = 0
	}

	resp, err := s.newClient(cfg).CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return internal.TranslationResponse{}, classifyClientError(err)
	}
	if len(resp.Choices) == 0 {
		return internal.TranslationResponse{}, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	return parseChatReply(resp.Choices[0].Message.Content)
}

func (s *OpenAIService) ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error) {
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}

	list, err := s.newClient(cfg).ListModels(ctx)
	if err != nil {
		return nil, classifyClientError(err)
	}

	models := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, m.ID)
	}
	sort.Strings(models)
	return models, nil
}
