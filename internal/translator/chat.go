package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valpere/rpgtl/internal"
	"github.com/valpere/rpgtl/internal/placeholder"
	"github.com/valpere/rpgtl/internal/postprocess"
)

// DefaultSystemPrompt is used when the request carries no system prompt.
const DefaultSystemPrompt = `You are a professional video game localizer working on an RPG Maker game.

You receive a JSON object with source_language, translation_language, optional project_context and local_context, an optional glossary, and files. Each file maps block ids to blocks; each block has a name, the strings to translate, and optional before_strings and after_strings.

Rules:
- Translate every entry of every "strings" array from source_language to translation_language.
- Use the block name, the file id and the neighbouring before_strings/after_strings as context only; never translate or return them.
- Glossary terms are mandatory. Respect their notes.
- Follow project_context and local_context for tone, register and lore.
- Lines such as <!-- EVENT NAME --> mark a new map event. Keep them unchanged and use them as context.
- Keep the number and order of strings in each block exactly as received.
- Do not add explanations or comments.

Reply with a single JSON object of the form {"<file id>": {"<block id>": {"strings": [...]}}} containing every file and block you received and nothing else.`

// buildChatPrompt returns the system and user messages for a chat backend.
func buildChatPrompt(cfg ServiceConfig, req internal.TranslationRequest) (system, user string, err error) {
	system = strings.TrimSpace(cfg.SystemPrompt)
	if system == "" {
		system = DefaultSystemPrompt
	}
	system += "\n\n" + placeholder.InstructionHint()

	data, err := json.Marshal(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal request: %w", err)
	}
	return system, string(data), nil
}

// parseChatReply decodes a model reply into a TranslationResponse, tolerating
// reasoning blocks, prose and code fences around the JSON object.
func parseChatReply(raw string) (internal.TranslationResponse, error) {
	text := postprocess.ExtractJSON(raw)
	if !strings.HasPrefix(text, "{") {
		return internal.TranslationResponse{}, fmt.Errorf("%w: reply contains no JSON object", ErrMalformedResponse)
	}

	var resp internal.TranslationResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return internal.TranslationResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return resp, nil
}

func requireKey(b Backend, cfg ServiceConfig) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%s: %w", b, ErrMissingCredential)
	}
	return nil
}

func modelOrDefault(cfg ServiceConfig, fallback string) string {
	if m := strings.TrimSpace(cfg.Model); m != "" {
		return m
	}
	return fallback
}
