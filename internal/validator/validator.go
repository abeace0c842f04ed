// Package validator inspects a finished translation for strings that came
// back empty, strings written in the wrong language and glossary terms the
// backend did not carry over.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/rpgtl/internal"
	"github.com/valpere/rpgtl/internal/detector"
	"github.com/valpere/rpgtl/internal/match"
	"github.com/valpere/rpgtl/internal/tokenizer"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// IssueKind classifies a finding.
type IssueKind int

const (
	EmptyTranslation IssueKind = iota
	WrongLanguage
	MissingTerm
)

func (k IssueKind) String() string {
	switch k {
	case EmptyTranslation:
		return "empty"
	case WrongLanguage:
		return "language"
	case MissingTerm:
		return "glossary"
	}
	return "unknown"
}

// Issue locates one finding in a response.
type Issue struct {
	File   string
	Block  string
	Index  int
	Kind   IssueKind
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s/%s[%d] %s: %s", i.File, i.Block, i.Index, i.Kind, i.Detail)
}

// Validator checks translations against a target language and a glossary.
// The lingua-backed identifier is expensive to build; reuse the instance.
type Validator struct {
	id     detector.Identifier
	engine *match.Engine

	sourceAlg      tokenizer.Algorithm
	translationAlg tokenizer.Algorithm
}

// Option configures a Validator.
type Option func(*Validator)

// WithAlgorithms sets the tokenizers used to find glossary terms on each
// side. Both default to word tokenization.
func WithAlgorithms(source, translation tokenizer.Algorithm) Option {
	return func(v *Validator) {
		v.sourceAlg = source
		v.translationAlg = translation
	}
}

// New returns a Validator that identifies languages with id.
func New(id detector.Identifier, opts ...Option) *Validator {
	v := &Validator{
		id:             id,
		engine:         match.NewEngine(),
		sourceAlg:      tokenizer.Word,
		translationAlg: tokenizer.Word,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsValid returns true when translatedText appears to be written in targetLang.
//
// Short texts (fewer than minValidationLength runes) and texts whose language
// cannot be determined pass without error. When the detected language differs
// from targetLang the returned error names both codes.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(internal.RestoreNewlines(translatedText))
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, _, ok := v.id.Identify(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, baseTag(targetLang)) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}

// baseTag reduces "pt-BR" or "zh_Hans" to the primary subtag the identifier reports.
func baseTag(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// Check walks bundle and its aligned response. A glossary term is reported
// missing when it occurs in a source string but its translation does not
// occur in the translated string. Tokenizer failures abort the check.
func (v *Validator) Check(bundle internal.TextBundle, resp internal.TranslationResponse, targetLang string, glossary []internal.GlossaryEntry) ([]Issue, error) {
	var issues []Issue
	for _, f := range bundle.Files {
		for _, blk := range f.Blocks {
			tb, ok := resp.Lookup(f.ID, blk.ID)
			if !ok || len(tb.Strings) != len(blk.Strings) {
				return nil, fmt.Errorf("response not aligned at %s/%s", f.ID, blk.ID)
			}
			for i, src := range blk.Strings {
				if strings.TrimSpace(src) == "" {
					continue
				}
				at := Issue{File: f.ID, Block: blk.ID, Index: i}
				out := tb.Strings[i]

				if valid, err := v.IsValid(out, targetLang); !valid {
					if strings.TrimSpace(out) == "" {
						at.Kind = EmptyTranslation
						at.Detail = "translation is empty"
						issues = append(issues, at)
						continue
					}
					at.Kind = WrongLanguage
					at.Detail = err.Error()
					issues = append(issues, at)
				}

				missing, err := v.missingTerms(src, out, glossary)
				if err != nil {
					return nil, fmt.Errorf("%s/%s[%d]: %w", f.ID, blk.ID, i, err)
				}
				for _, e := range missing {
					at.Kind = MissingTerm
					at.Detail = fmt.Sprintf("%q should be rendered as %q", e.Term, e.Translation)
					issues = append(issues, at)
				}
			}
		}
	}
	return issues, nil
}

func (v *Validator) missingTerms(src, out string, glossary []internal.GlossaryEntry) ([]internal.GlossaryEntry, error) {
	opts := match.Options{Mode: match.Exact, Permissive: true}
	var missing []internal.GlossaryEntry
	for _, e := range glossary {
		if strings.TrimSpace(e.Term) == "" || strings.TrimSpace(e.Translation) == "" {
			continue
		}
		found, ok, err := v.engine.MatchAllStrings(
			match.Side{Haystack: src, Needle: e.Term, Algorithm: v.sourceAlg}, opts,
			match.Side{Haystack: internal.RestoreNewlines(out), Needle: e.Translation, Algorithm: v.translationAlg}, opts,
		)
		if err != nil {
			return nil, err
		}
		if ok && len(found.Translation) == 0 {
			missing = append(missing, e)
		}
	}
	return missing, nil
}
