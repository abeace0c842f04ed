package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"

	"github.com/valpere/rpgtl/internal/tokenizer"
)

// Precondition and response-shape failures.
var (
	ErrMissingCredential = errors.New("missing API key")
	ErrMissingRegion     = errors.New("missing folder id")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Provider HTTP failures. Adapters map status codes to these with
// fmt.Errorf("%s: %w", msg, sentinel).
var (
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrBadRequest    = errors.New("bad request")
	ErrServer        = errors.New("provider server error")
)

// ProviderError tags a failure with the backend that produced it.
type ProviderError struct {
	Backend Backend
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Kind is the caller-facing failure category.
type Kind int

const (
	KindUnknown Kind = iota
	KindMissingCredential
	KindMissingRegion
	KindTokenizeFailure
	KindProvider
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindMissingCredential:
		return "MissingCredential"
	case KindMissingRegion:
		return "MissingRegion"
	case KindTokenizeFailure:
		return "TokenizeFailure"
	case KindProvider:
		return "ProviderError"
	case KindMalformedResponse:
		return "MalformedProviderResponse"
	}
	return "Unknown"
}

// KindOf classifies err. A malformed response is reported as such even when
// wrapped in a ProviderError.
func KindOf(err error) Kind {
	var tokErr *tokenizer.TokenizeError
	var provErr *ProviderError
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrMissingRegion):
		return KindMissingRegion
	case errors.As(err, &tokErr):
		return KindTokenizeFailure
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.As(err, &provErr):
		return KindProvider
	}
	return KindUnknown
}

// BackendOf returns the backend recorded in err, if any.
func BackendOf(err error) (Backend, bool) {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Backend, true
	}
	return 0, false
}

// classifyStatus maps an HTTP status to a sentinel error.
func classifyStatus(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusTooManyRequests:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "billing") || strings.Contains(lower, "credit") {
			return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
		}
		return fmt.Errorf("%s: %w", msg, ErrRateLimit)
	case status == http.StatusPaymentRequired || status == 456: // 456: DeepL quota
		return fmt.Errorf("%s: %w", msg, ErrQuotaExceeded)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, ErrAuthFailed)
	case status >= 500:
		return fmt.Errorf("HTTP %d: %s: %w", status, msg, ErrServer)
	case status >= 400:
		return fmt.Errorf("HTTP %d: %s: %w", status, msg, ErrBadRequest)
	}
	return fmt.Errorf("HTTP %d: %s", status, msg)
}

// apiMessage pulls a human readable message out of a provider error body.
func apiMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var plain string
		if json.Unmarshal(payload.Error, &plain) == nil && plain != "" {
			return plain
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}

// classifyClientError maps go-openai and Google API client errors to sentinels.
func classifyClientError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return classifyStatus(reqErr.HTTPStatusCode, msg)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return classifyStatus(gErr.Code, gErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
