// Package tokenizer turns a string into comparable tokens under a selectable
// algorithm. It is a pure function of its input.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Algorithm selects how text is segmented into tokens.
type Algorithm int

const (
	Word Algorithm = iota
	Character
	Bigram
	Trigram
	English
	French
	Spanish
	Russian
	Swedish
	Norwegian
	Hungarian
)

var algorithmNames = map[Algorithm]string{
	Word:      "word",
	Character: "character",
	Bigram:    "bigram",
	Trigram:   "trigram",
	English:   "english",
	French:    "french",
	Spanish:   "spanish",
	Russian:   "russian",
	Swedish:   "swedish",
	Norwegian: "norwegian",
	Hungarian: "hungarian",
}

var (
	ErrInvalidUTF8      = errors.New("input is not valid UTF-8")
	ErrUnknownAlgorithm = errors.New("unknown tokenizer algorithm")
)

// TokenizeError reports that text could not be segmented.
type TokenizeError struct {
	Algorithm Algorithm
	Err       error
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("tokenize (%s): %v", e.Algorithm, e.Err)
}

func (e *TokenizeError) Unwrap() error { return e.Err }

func (a Algorithm) String() string {
	if name, ok := algorithmNames[a]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", int(a))
}

// ParseAlgorithm resolves a name such as "word" or "english".
func ParseAlgorithm(name string) (Algorithm, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range algorithmNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Algorithms lists every algorithm in declaration order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(algorithmNames))
	for a := Word; a <= Hungarian; a++ {
		out = append(out, a)
	}
	return out
}

func (a Algorithm) stemmer() (string, bool) {
	switch a {
	case English, French, Spanish, Russian, Swedish, Norwegian, Hungarian:
		return algorithmNames[a], true
	}
	return "", false
}

// Token is one comparable unit. Start and End are rune offsets into the
// tokenized text; Key is what matching compares.
type Token struct {
	Text  string
	Key   string
	Start int
	End   int
}

// Tokenize segments text under alg. Case-insensitive keys are case folded.
func Tokenize(text string, alg Algorithm, caseSensitive bool) ([]Token, error) {
	if !utf8.ValidString(text) {
		return nil, &TokenizeError{Algorithm: alg, Err: ErrInvalidUTF8}
	}
	if _, ok := algorithmNames[alg]; !ok {
		return nil, &TokenizeError{Algorithm: alg, Err: ErrUnknownAlgorithm}
	}

	keyOf := plainKey(caseSensitive)

	switch alg {
	case Word:
		words := splitWords(text)
		for i := range words {
			words[i].Key = keyOf(words[i].Text)
		}
		return words, nil

	case Character:
		return splitRunes(text, keyOf), nil

	case Bigram:
		return ngrams(splitWords(text), 2, keyOf), nil

	case Trigram:
		return ngrams(splitWords(text), 3, keyOf), nil
	}

	lang, _ := alg.stemmer()
	words := splitWords(text)
	for i := range words {
		lower := strings.ToLower(norm.NFC.String(words[i].Text))
		stem, err := snowball.Stem(lower, lang, true)
		if err != nil {
			return nil, &TokenizeError{Algorithm: alg, Err: err}
		}
		if stem == "" {
			stem = lower
		}
		if caseSensitive {
			if r, _ := utf8.DecodeRuneInString(words[i].Text); unicode.IsUpper(r) {
				stem = "^" + stem
			}
		}
		words[i].Key = stem
	}
	return words, nil
}

func plainKey(caseSensitive bool) func(string) string {
	if caseSensitive {
		return norm.NFC.String
	}
	folder := cases.Fold()
	return func(s string) string {
		return norm.NFC.String(folder.String(s))
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.M, r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

// splitWords returns runs of letters, digits and marks. An apostrophe between
// two word runes stays inside the word.
func splitWords(text string) []Token {
	runes := []rune(text)
	var tokens []Token
	start := -1
	for i, r := range runes {
		inner := isApostrophe(r) && start >= 0 && i+1 < len(runes) && isWordRune(runes[i+1])
		if isWordRune(r) || inner {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{Text: string(runes[start:i]), Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: string(runes[start:]), Start: start, End: len(runes)})
	}
	return tokens
}

// splitRunes emits one token per non-space rune, punctuation included.
func splitRunes(text string, keyOf func(string) string) []Token {
	var tokens []Token
	for i, r := range []rune(text) {
		if unicode.IsSpace(r) {
			continue
		}
		s := string(r)
		tokens = append(tokens, Token{Text: s, Key: keyOf(s), Start: i, End: i + 1})
	}
	return tokens
}

// ngrams produces character n-grams inside each word. Words shorter than n
// yield a single token.
func ngrams(words []Token, n int, keyOf func(string) string) []Token {
	var tokens []Token
	for _, w := range words {
		runes := []rune(w.Text)
		if len(runes) <= n {
			tokens = append(tokens, Token{Text: w.Text, Key: keyOf(w.Text), Start: w.Start, End: w.End})
			continue
		}
		for i := 0; i+n <= len(runes); i++ {
			s := string(runes[i : i+n])
			tokens = append(tokens, Token{Text: s, Key: keyOf(s), Start: w.Start + i, End: w.Start + i + n})
		}
	}
	return tokens
}
