package translator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/valpere/rpgtl/internal"
)

const (
	deeplFreeURL = "https://api-free.deepl.com"
	deeplProURL  = "https://api.deepl.com"
)

// DeepLService is the glossary-aware machine translation backend. When the
// request carries glossary entries and a source language, a glossary is
// registered once before the first string and deleted afterwards.
type DeepLService struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewDeepLService returns a DeepL adapter. An empty baseURL picks the free or
// pro endpoint from the key (free keys end in ":fx").
func NewDeepLService(baseURL string) *DeepLService {
	return &DeepLService{baseURL: baseURL, client: newHTTPClient(), limiter: newMTLimiter()}
}

func (s *DeepLService) Backend() Backend { return DeepL }

func (s *DeepLService) Validate(cfg ServiceConfig) error {
	return requireKey(DeepL, cfg)
}

func (s *DeepLService) endpoint(cfg ServiceConfig) string {
	switch {
	case cfg.BaseURL != "":
		return strings.TrimSuffix(cfg.BaseURL, "/")
	case s.baseURL != "":
		return strings.TrimSuffix(s.baseURL, "/")
	case strings.HasSuffix(cfg.APIKey, ":fx"):
		return deeplFreeURL
	}
	return deeplProURL
}

type deeplTranslateRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
	GlossaryID string   `json:"glossary_id,omitempty"`
}

type deeplTranslateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

type deeplGlossaryRequest struct {
	Name          string `json:"name"`
	SourceLang    string `json:"source_lang"`
	TargetLang    string `json:"target_lang"`
	Entries       string `json:"entries"`
	EntriesFormat string `json:"entries_format"`
}

type deeplGlossaryResponse struct {
	GlossaryID string `json:"glossary_id"`
}

func (s *DeepLService) TranslateBatch(ctx context.Context, cfg ServiceConfig, req internal.TranslationRequest) (internal.TranslationResponse, error) {
	if err := s.Validate(cfg); err != nil {
		return internal.TranslationResponse{}, err
	}

	base := s.endpoint(cfg)
	headers := map[string]string{"Authorization": "DeepL-Auth-Key " + cfg.APIKey}

	source := req.SourceLanguage
	if source == "auto" {
		source = ""
	}

	glossaryID, err := s.registerGlossary(ctx, base, headers, source, req.TranslationLanguage, req.Glossary)
	if err != nil {
		return internal.TranslationResponse{}, fmt.Errorf("glossary registration failed: %w", err)
	}
	if glossaryID != "" {
		defer s.deleteGlossary(context.WithoutCancel(ctx), base, headers, glossaryID)
	}

	url := base + "/v2/translate"
	return translateEach(ctx, s.limiter, req.Files, func(ctx context.Context, text string) (string, error) {
		body := deeplTranslateRequest{
			Text:       []string{text},
			SourceLang: strings.ToUpper(baseLanguage(source)),
			TargetLang: strings.ToUpper(req.TranslationLanguage),
			GlossaryID: glossaryID,
		}
		var out deeplTranslateResponse
		if err := doJSON(ctx, s.client, http.MethodPost, url, headers, body, &out); err != nil {
			return "", err
		}
		if len(out.Translations) == 0 {
			return "", fmt.Errorf("%w: no translation returned", ErrMalformedResponse)
		}
		return out.Translations[0].Text, nil
	})
}

// registerGlossary creates a glossary for the request. It returns "" without
// a call when there is nothing to register or the source language is unknown,
// since DeepL glossaries need an explicit language pair.
func (s *DeepLService) registerGlossary(ctx context.Context, base string, headers map[string]string, source, target string, entries []internal.GlossaryEntry) (string, error) {
	tsv := glossaryTSV(entries)
	if tsv == "" || source == "" {
		return "", nil
	}

	body := deeplGlossaryRequest{
		Name:          "rpgtl-" + uuid.NewString(),
		SourceLang:    baseLanguage(source),
		TargetLang:    baseLanguage(target),
		Entries:       tsv,
		EntriesFormat: "tsv",
	}
	var out deeplGlossaryResponse
	if err := doJSON(ctx, s.client, http.MethodPost, base+"/v2/glossaries", headers, body, &out); err != nil {
		return "", err
	}
	if out.GlossaryID == "" {
		return "", fmt.Errorf("%w: no glossary id returned", ErrMalformedResponse)
	}
	return out.GlossaryID, nil
}

func (s *DeepLService) deleteGlossary(ctx context.Context, base string, headers map[string]string, id string) {
	_ = doJSON(ctx, s.client, http.MethodDelete, base+"/v2/glossaries/"+id, headers, nil, nil)
}

// glossaryTSV renders entries as DeepL TSV. Tabs and line breaks inside terms
// are flattened; entries with an empty side are skipped.
func glossaryTSV(entries []internal.GlossaryEntry) string {
	flatten := strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")
	var b strings.Builder
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		term := strings.TrimSpace(flatten.Replace(e.Term))
		translation := strings.TrimSpace(flatten.Replace(e.Translation))
		if term == "" || translation == "" || seen[term] {
			continue
		}
		seen[term] = true
		b.WriteString(term)
		b.WriteByte('\t')
		b.WriteString(translation)
		b.WriteByte('\n')
	}
	return b.String()
}

// baseLanguage reduces a tag such as "en-US" to "en".
func baseLanguage(tag string) string {
	if tag == "" {
		return ""
	}
	t, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, _ := t.Base()
	return base.String()
}

func (s *DeepLService) ListModels(ctx context.Context, cfg ServiceConfig) ([]string, error) {
	return []string{}, nil
}
