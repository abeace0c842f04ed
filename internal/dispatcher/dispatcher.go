// Package dispatcher runs one translation request against a backend: it
// validates the configuration, plans batches for chat backends, issues the
// provider calls in order, merges the replies and normalizes line breaks.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/valpere/rpgtl/internal"
	"github.com/valpere/rpgtl/internal/batcher"
	"github.com/valpere/rpgtl/internal/translator"
)

// State is a step of the per-request state machine.
type State int

const (
	Validating State = iota
	Dispatching
	Merging
	Normalizing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case Dispatching:
		return "dispatching"
	case Merging:
		return "merging"
	case Normalizing:
		return "normalizing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Request carries every input of a translation. It is built once by the
// caller and not modified by the dispatcher.
type Request struct {
	Backend translator.Backend
	Model   string

	ProjectContext string
	LocalContext   string

	Bundle   internal.TextBundle
	Glossary []internal.GlossaryEntry

	SourceLanguage      string
	TranslationLanguage string

	APIKey       string
	Credentials  string
	BaseURL      string
	SystemPrompt string
	FolderID     string

	// TokenLimit is the per-batch ceiling for chat backends; zero sends the
	// whole bundle in one call.
	TokenLimit  int
	Temperature float64
	Thinking    bool
	Normalize   bool
}

// ServiceConfig extracts the provider configuration from r.
func (r Request) ServiceConfig() translator.ServiceConfig {
	return translator.ServiceConfig{
		APIKey:       r.APIKey,
		Credentials:  r.Credentials,
		Model:        r.Model,
		FolderID:     r.FolderID,
		BaseURL:      r.BaseURL,
		SystemPrompt: r.SystemPrompt,
		Temperature:  r.Temperature,
		Thinking:     r.Thinking,
	}
}

func (r Request) translationRequest(files internal.TextBundle) internal.TranslationRequest {
	return internal.TranslationRequest{
		SourceLanguage:      r.SourceLanguage,
		TranslationLanguage: r.TranslationLanguage,
		ProjectContext:      r.ProjectContext,
		LocalContext:        r.LocalContext,
		Glossary:            r.Glossary,
		Files:               files,
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for state transitions. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTokenCounter replaces the token estimate used for batch planning.
func WithTokenCounter(c batcher.TokenCounter) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.countTokens = c
		}
	}
}

// Dispatcher selects an adapter per request. It holds no per-request state
// and may be shared.
type Dispatcher struct {
	adapters    map[translator.Backend]translator.Adapter
	countTokens batcher.TokenCounter
	logger      *slog.Logger
}

// New returns a dispatcher over adapters. A nil map uses the production
// adapter of every backend.
func New(adapters map[translator.Backend]translator.Adapter, opts ...Option) *Dispatcher {
	if adapters == nil {
		adapters = translator.Adapters()
	}
	d := &Dispatcher{
		adapters:    adapters,
		countTokens: batcher.EstimateTokens,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) adapter(b translator.Backend) (translator.Adapter, error) {
	a, ok := d.adapters[b]
	if !ok || a == nil {
		return nil, fmt.Errorf("no adapter registered for backend %s", b)
	}
	return a, nil
}

// Translate runs req to completion or to the first failure. Partial results
// are never returned. Failures carry the backend in a *translator.ProviderError;
// use translator.KindOf to classify them.
func (d *Dispatcher) Translate(ctx context.Context, req Request) (*internal.TranslationResponse, error) {
	log := d.logger.With("request", uuid.NewString(), "backend", req.Backend.String())
	state := Validating
	enter := func(s State) {
		state = s
		log.Debug("translation state", "state", s)
	}
	fail := func(err error) (*internal.TranslationResponse, error) {
		log.Debug("translation state", "state", Failed, "from", state, "kind", translator.KindOf(err), "error", err)
		return nil, err
	}

	enter(Validating)
	adapter, err := d.adapter(req.Backend)
	if err != nil {
		return fail(err)
	}
	cfg := req.ServiceConfig()
	if err := adapter.Validate(cfg); err != nil {
		return fail(&translator.ProviderError{Backend: req.Backend, Err: err})
	}

	enter(Dispatching)
	batches := []internal.TextBundle{req.Bundle}
	if req.Backend.IsChat() {
		batches = batcher.Plan(req.Bundle, d.countTokens, req.TokenLimit)
	}
	if len(req.Bundle.Files) == 0 {
		batches = nil
	}

	results := make([]internal.TranslationResponse, 0, len(batches))
	for i, batch := range batches {
		log.Debug("dispatching batch", "batch", i+1, "of", len(batches), "files", len(batch.Files), "strings", batch.StringCount())
		resp, err := adapter.TranslateBatch(ctx, cfg, req.translationRequest(batch))
		if err != nil {
			return fail(&translator.ProviderError{
				Backend: req.Backend,
				Err:     fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err),
			})
		}
		results = append(results, resp)
	}

	enter(Merging)
	var merged internal.TranslationResponse
	for _, r := range results {
		merged.Merge(r)
	}
	aligned, err := internal.CheckAlignment(req.Bundle, merged)
	if err != nil {
		return fail(&translator.ProviderError{
			Backend: req.Backend,
			Err:     fmt.Errorf("%w: %v", translator.ErrMalformedResponse, err),
		})
	}

	enter(Normalizing)
	if req.Normalize {
		aligned.Normalize()
	}

	enter(Done)
	return &aligned, nil
}

// ListModels returns the models the backend offers. MT backends return an
// empty list.
func (d *Dispatcher) ListModels(ctx context.Context, b translator.Backend, cfg translator.ServiceConfig) ([]string, error) {
	adapter, err := d.adapter(b)
	if err != nil {
		return nil, err
	}
	models, err := adapter.ListModels(ctx, cfg)
	if err != nil {
		return nil, &translator.ProviderError{Backend: b, Err: err}
	}
	return models, nil
}
