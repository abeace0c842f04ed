/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valpere/rpgtl/internal/match"
	"github.com/valpere/rpgtl/internal/tokenizer"
)

var (
	matchSourceText      string
	matchSourceTerm      string
	matchTranslationText string
	matchTranslationTerm string
	matchMode            string
	matchAlgorithm       string
	matchTrAlgorithm     string
	matchThreshold       float64
	matchCaseSensitive   bool
	matchPermissive      bool
	matchTrCaseSensitive bool
	matchTrPermissive    bool
	matchAll             bool
)

type matchOutput struct {
	Matched     bool        `json:"matched"`
	Source      []matchSpan `json:"source,omitempty"`
	Translation []matchSpan `json:"translation,omitempty"`
}

type matchSpan struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
	Mode  string  `json:"mode"`
	Text  string  `json:"text"`
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Check that a glossary term and its translation both occur",
	Long: `Find a term in a source string and its translation in the translated
string. The translation side is searched only when the source side matched.

Modes: exact, subsequence, fuzzy. Algorithms: word, character, bigram,
trigram, or a stemmer (english, french, spanish, russian, swedish, norwegian,
hungarian). --permissive accepts inflected forms that start with the term.

Example:
  rpgtl match --source-text "Harold draws the swords" --source-term sword \
    --translation-text "Гарольд виймає мечі" --translation-term меч \
    --algorithm english --translation-permissive --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := match.ParseMode(matchMode)
		if err != nil {
			return err
		}
		srcAlg, err := tokenizer.ParseAlgorithm(matchAlgorithm)
		if err != nil {
			return err
		}
		trAlg := srcAlg
		if matchTrAlgorithm != "" {
			if trAlg, err = tokenizer.ParseAlgorithm(matchTrAlgorithm); err != nil {
				return err
			}
		}

		src := match.Side{Haystack: matchSourceText, Needle: matchSourceTerm, Algorithm: srcAlg}
		tr := match.Side{Haystack: matchTranslationText, Needle: matchTranslationTerm, Algorithm: trAlg}
		srcOpts := match.Options{Mode: mode, Threshold: matchThreshold, CaseSensitive: matchCaseSensitive, Permissive: matchPermissive}
		trOpts := match.Options{Mode: mode, Threshold: matchThreshold, CaseSensitive: matchTrCaseSensitive, Permissive: matchTrPermissive}

		engine := match.NewEngine()
		out := matchOutput{}

		if matchAll {
			all, ok, err := engine.MatchAllStrings(src, srcOpts, tr, trOpts)
			if err != nil {
				return err
			}
			out.Matched = ok && len(all.Translation) > 0
			if out.Source, err = spans(src, srcOpts, all.Source); err != nil {
				return err
			}
			if out.Translation, err = spans(tr, trOpts, all.Translation); err != nil {
				return err
			}
		} else {
			// FindMatch shares one option set; the translation flags are ignored.
			pair, ok, err := engine.MatchStrings(src, tr, srcOpts)
			if err != nil {
				return err
			}
			out.Matched = ok
			if ok {
				if out.Source, err = spans(src, srcOpts, []match.Result{pair.Source}); err != nil {
					return err
				}
				if out.Translation, err = spans(tr, srcOpts, []match.Result{pair.Translation}); err != nil {
					return err
				}
			}
		}

		return writeJSON("-", out)
	},
}

// spans attaches the matched surface text to each result.
func spans(side match.Side, opts match.Options, results []match.Result) ([]matchSpan, error) {
	if len(results) == 0 {
		return nil, nil
	}
	tokens, err := tokenizer.Tokenize(side.Haystack, side.Algorithm, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}
	runes := []rune(side.Haystack)

	out := make([]matchSpan, 0, len(results))
	for _, r := range results {
		if r.Start < 0 || r.End > len(tokens) || r.Start >= r.End {
			return nil, fmt.Errorf("match span [%d,%d) out of range", r.Start, r.End)
		}
		from, to := tokens[r.Start].Start, tokens[r.End-1].End
		out = append(out, matchSpan{
			Start: r.Start,
			End:   r.End,
			Score: r.Score,
			Mode:  r.Mode.String(),
			Text:  string(runes[from:to]),
		})
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(matchCmd)

	f := matchCmd.Flags()
	f.StringVar(&matchSourceText, "source-text", "", "Source string (required)")
	f.StringVar(&matchSourceTerm, "source-term", "", "Term to find in the source (required)")
	f.StringVar(&matchTranslationText, "translation-text", "", "Translated string (required)")
	f.StringVar(&matchTranslationTerm, "translation-term", "", "Term to find in the translation (required)")
	f.StringVar(&matchMode, "mode", "exact", "Match mode: exact, subsequence, fuzzy")
	f.StringVar(&matchAlgorithm, "algorithm", "word", "Tokenizer for the source side")
	f.StringVar(&matchTrAlgorithm, "translation-algorithm", "", "Tokenizer for the translation side (default: same as source)")
	f.Float64Var(&matchThreshold, "threshold", match.DefaultThreshold, "Fuzzy score threshold (0-1)")
	f.BoolVar(&matchCaseSensitive, "case-sensitive", false, "Compare source tokens case-sensitively")
	f.BoolVar(&matchPermissive, "permissive", false, "Accept source tokens that start with the term")
	f.BoolVar(&matchTrCaseSensitive, "translation-case-sensitive", false, "Compare translation tokens case-sensitively (--all only)")
	f.BoolVar(&matchTrPermissive, "translation-permissive", false, "Accept translation tokens that start with the term (--all only)")
	f.BoolVar(&matchAll, "all", false, "Report every non-overlapping match with per-side options")

	for _, name := range []string{"source-text", "source-term", "translation-text", "translation-term"} {
		matchCmd.MarkFlagRequired(name)
	}
}
