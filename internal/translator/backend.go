package translator

import (
	"fmt"
	"strings"
)

// Backend identifies one translation provider.
type Backend int

const (
	Google Backend = iota
	Yandex
	DeepL
	OpenAI
	Anthropic
	DeepSeek
	Gemini
	OpenRouter
	Ollama
)

var backendNames = []string{
	Google:     "google",
	Yandex:     "yandex",
	DeepL:      "deepl",
	OpenAI:     "openai",
	Anthropic:  "anthropic",
	DeepSeek:   "deepseek",
	Gemini:     "gemini",
	OpenRouter: "openrouter",
	Ollama:     "ollama",
}

func (b Backend) String() string {
	if b >= 0 && int(b) < len(backendNames) {
		return backendNames[b]
	}
	return fmt.Sprintf("backend(%d)", int(b))
}

// IsChat reports whether b is a chat-completion backend that receives whole
// batches instead of single strings.
func (b Backend) IsChat() bool {
	switch b {
	case Google, Yandex, DeepL:
		return false
	}
	return b >= 0 && int(b) < len(backendNames)
}

// ParseBackend resolves a backend name such as "deepl" or "anthropic".
func ParseBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range backendNames {
		if n == name {
			return Backend(i), nil
		}
	}
	return 0, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(backendNames, ", "))
}

// Backends lists every backend in declaration order.
func Backends() []Backend {
	out := make([]Backend, len(backendNames))
	for i := range backendNames {
		out[i] = Backend(i)
	}
	return out
}
