package translator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/valpere/rpgtl/internal"
)

const defaultYandexBaseURL = "https://translate.api.cloud.yandex.net"

// YandexService is the regional machine translation backend. Every request
// needs an API key and the cloud folder id it is billed to.
type YandexService struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewYandexService(baseURL string) *YandexService {
	if baseURL == "" {
		baseURL = defaultYandexBaseURL
	}
	return &YandexService{baseURL: baseURL, client: newHTTPClient(), limiter: newMTLimiter()}
}

func (s *YandexService) Backend() Backend { return Yandex }

func (s *YandexService) Validate(cfg ServiceConfig) error {
	if err := requireKey(Yandex, cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.FolderID) == "" {
		return fmt.Errorf("%s: %w", Yandex, ErrMissingRegion)
	}
	return nil
}

type yandexRequest struct {
	FolderID           string   `json:"folderId"`
	Texts              []string `json:"texts"`
	SourceLanguageCode string   `json:"sourceLanguageCode,omitempty"`
	TargetLanguageCode string   `json:"targetLanguageCode"`
	Format             string   `json:"format"`
}

type yandexResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (s *YandexService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error) {
	if err := s.Validate(cfg); err != nil {
		return internal.TranslationResponse{}, err
	}

	url := resolveBaseURL(cfg, s.baseURL) + "/translate/v2/translate"
	headers := map[string]string{"Authorization": "Api-Key " + cfg.APIKey}
	source := req.SourceLanguage
	if source == "auto" {
		source = ""
	}

	return translateEach(ctx, s.limiter, req.Files, func(ctx context.Context, text string) (string, error) {
		body := yandexRequest{
			FolderID:           cfg.FolderID,
			Texts:              []string{text},
			SourceLanguageCode: source,
			TargetLanguageCode: req.TranslationLanguage,
			Format:             "PLAIN_TEXT",
		}
		var out yandexResponse
		if err := doJSON(ctx, s.client, http.MethodPost, url, headers, body, &out); err != nil {
			return "", err
		}
		if len(out.Translations) == 0 {
			return "", fmt.Errorf("%w: no translation returned", ErrMalformedResponse)
		}
		return out.Translations[0].Text, nil
	})
}

func (s *YandexService) ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error) {
	return []string{}, nil
}
