package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/valpere/rpgtl/internal"
)

// googleClient is the subset of *translate.Client the service uses.
type googleClient interface {
	Translate(ctx context.Context, inputs []string, target language.Tag, opts *translate.Options) ([]translate.Translation, error)
	Close() error
}

// GoogleService is the basic machine translation backend. An API key is
// optional; without one the client falls back to application default
// credentials or cfg.Credentials.
type GoogleService struct {
	newClient func(ctx context.Context, opts ...option.ClientOption) (googleClient, error)
	limiter   *rate.Limiter
}

func NewGoogleService() *GoogleService {
	return &GoogleService{
		newClient: func(ctx context.Context, opts ...option.ClientOption) (googleClient, error) {
			return translate.NewClient(ctx, opts...)
		},
		limiter: newMTLimiter(),
	}
}

func (s *GoogleService) Backend() Backend { return Google }

func (s *GoogleService) Validate(cfg ServiceConfig) error { return nil }

func (s *GoogleService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error) {
	target, err := language.Parse(req.TranslationLanguage)
	if err != nil {
		return internal.TranslationResponse{}, fmt.Errorf("invalid target language %q: %w", req.TranslationLanguage, err)
	}

	opts := &translate.Options{Format: translate.Text}
	if src := req.SourceLanguage; src != "" && src != "auto" {
		tag, err := language.Parse(src)
		if err != nil {
			return internal.TranslationResponse{}, fmt.Errorf("invalid source language %q: %w", src, err)
		}
		opts.Source = tag
	}

	var clientOpts []option.ClientOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	} else if cfg.Credentials != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.Credentials))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := s.newClient(ctx, clientOpts...)
	if err != nil {
		return internal.TranslationResponse{}, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	return translateEach(ctx, s.limiter, req.Files, func(ctx context.Context, text string) (string, error) {
		translations, err := client.Translate(ctx, []string{text}, target, opts)
		if err != nil {
			return "", classifyClientError(err)
		}
		if len(translations) == 0 {
			return "", fmt.Errorf("%w: no translation returned", ErrMalformedResponse)
		}
		return translations[0].Text, nil
	})
}

func (s *GoogleService) ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error) {
	return []string{}, nil
}
