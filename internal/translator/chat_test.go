package translator

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/valpere/rpgtl/internal"
)

func TestParseChatReply(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: `{"Map001":{"ev1":{"strings":["Bonjour"]}}}`, want: "Bonjour"},
		{name: "fenced", raw: "```json\n{\"Map001\":{\"ev1\":{\"strings\":[\"Bonjour\"]}}}\n```", want: "Bonjour"},
		{name: "with thinking", raw: `<think>the player greets</think>{"Map001":{"ev1":{"strings":["Bonjour"]}}}`, want: "Bonjour"},
		{name: "prose around", raw: `Here is the translation: {"Map001":{"ev1":{"strings":["Bonjour"]}}} Enjoy!`, want: "Bonjour"},
		{name: "no json", raw: "Sorry, I cannot help.", wantErr: true},
		{name: "broken json", raw: `{"Map001":{"ev1":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseChatReply(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			blk, ok := resp.Lookup("Map001", "ev1")
			if !ok || len(blk.Strings) != 1 || blk.Strings[0] != tt.want {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestBuildChatPrompt(t *testing.T) {
	req := sampleRequest()
	req.Glossary = []internal.GlossaryEntry{{Term: "Harold", Translation: "Гарольд"}}

	system, user, err := buildChatPrompt(ServiceConfig{}, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(system, DefaultSystemPrompt) {
		t.Error("empty system prompt should fall back to the default")
	}
	if !strings.Contains(system, `\C[2]`) {
		t.Error("system prompt should mention control codes")
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(user), &decoded); err != nil {
		t.Fatalf("user message is not JSON: %v", err)
	}
	for _, key := range []string{"source_language", "translation_language", "glossary", "files"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("user message missing %q", key)
		}
	}

	system, _, err = buildChatPrompt(ServiceConfig{SystemPrompt: "Translate tersely."}, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(system, "Translate tersely.") {
		t.Errorf("custom system prompt ignored: %q", system)
	}
}
