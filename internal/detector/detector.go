package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Identifier guesses the language of a text. ok is false when there is no
// confident guess.
type Identifier interface {
	Identify(text string) (tag string, confidence float64, ok bool)
}

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// Identify returns the lower-case ISO 639-1 tag and lingua's confidence for it.
func (d *Detector) Identify(text string) (string, float64, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", 0, false
	}
	confidence := d.detector.ComputeLanguageConfidence(text, lang)
	if confidence <= 0 {
		return "", 0, false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), confidence, true
}
