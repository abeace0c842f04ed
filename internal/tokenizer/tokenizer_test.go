package tokenizer

import (
	"errors"
	"testing"
)

func keys(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Key
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTokenize_Word(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		caseSensitive bool
		want          []string
	}{
		{name: "empty", text: "", want: []string{}},
		{name: "punctuation only", text: "...!?", want: []string{}},
		{name: "simple", text: "Hello, World!", want: []string{"hello", "world"}},
		{name: "case sensitive", text: "Hello, World!", caseSensitive: true, want: []string{"Hello", "World"}},
		{name: "apostrophe inside word", text: "don't stop", want: []string{"don't", "stop"}},
		{name: "trailing apostrophe", text: "heroes' sword", want: []string{"heroes", "sword"}},
		{name: "cyrillic", text: "Привет, мир", want: []string{"привет", "мир"}},
		{name: "digits", text: "Level 10 boss", want: []string{"level", "10", "boss"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.text, Word, tt.caseSensitive)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equal(keys(got), tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, keys(got), tt.want)
			}
		})
	}
}

func TestTokenize_Offsets(t *testing.T) {
	got, err := Tokenize("Ä sword", Word, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(got))
	}
	if got[1].Start != 2 || got[1].End != 7 || got[1].Text != "sword" {
		t.Errorf("unexpected second token: %+v", got[1])
	}
}

func TestTokenize_Character(t *testing.T) {
	got, err := Tokenize("勇者 の剣", Character, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"勇", "者", "の", "剣"}
	if !equal(keys(got), want) {
		t.Errorf("got %v, want %v", keys(got), want)
	}
}

func TestTokenize_CharacterKeepsPunctuation(t *testing.T) {
	got, err := Tokenize("勇者、 剣!", Character, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"勇", "者", "、", "剣", "!"}
	if !equal(keys(got), want) {
		t.Errorf("got %v, want %v", keys(got), want)
	}
	if got[3].Start != 4 || got[3].End != 5 {
		t.Errorf("剣 span = [%d,%d), want [4,5)", got[3].Start, got[3].End)
	}
}

func TestTokenize_Ngrams(t *testing.T) {
	got, err := Tokenize("Sword a", Bigram, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"sw", "wo", "or", "rd", "a"}
	if !equal(keys(got), want) {
		t.Errorf("bigram got %v, want %v", keys(got), want)
	}

	got, err = Tokenize("abcd", Trigram, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equal(keys(got), []string{"abc", "bcd"}) {
		t.Errorf("trigram got %v", keys(got))
	}
}

func TestTokenize_Stemming(t *testing.T) {
	got, err := Tokenize("The swords", English, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	single, err := Tokenize("sword", English, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[1].Key != single[0].Key {
		t.Errorf("expected plural and singular to share a stem, got %q and %q", got[1].Key, single[0].Key)
	}
	if got[1].Text != "swords" {
		t.Errorf("surface text should be kept, got %q", got[1].Text)
	}
}

func TestTokenize_StemmingCaseSensitive(t *testing.T) {
	upper, err := Tokenize("Sword", English, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lower, err := Tokenize("sword", English, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upper[0].Key == lower[0].Key {
		t.Errorf("case-sensitive stems should differ, both %q", upper[0].Key)
	}

	upper, _ = Tokenize("Sword", English, false)
	if upper[0].Key != lower[0].Key {
		t.Errorf("case-insensitive stems should match: %q vs %q", upper[0].Key, lower[0].Key)
	}
}

func TestTokenize_InvalidUTF8(t *testing.T) {
	_, err := Tokenize("bad \xff text", Word, false)
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
	var tokErr *TokenizeError
	if !errors.As(err, &tokErr) {
		t.Fatalf("expected *TokenizeError, got %T", err)
	}
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestTokenize_UnknownAlgorithm(t *testing.T) {
	_, err := Tokenize("text", Algorithm(99), false)
	if !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	a, _ := Tokenize("The quick brown fox", Word, false)
	b, _ := Tokenize("The quick brown fox", Word, false)
	if !equal(keys(a), keys(b)) {
		t.Error("tokenization should be deterministic")
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range Algorithms() {
		got, err := ParseAlgorithm(a.String())
		if err != nil {
			t.Errorf("ParseAlgorithm(%q) error: %v", a.String(), err)
		}
		if got != a {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", a.String(), got, a)
		}
	}

	if _, err := ParseAlgorithm("klingon"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}
