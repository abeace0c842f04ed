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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/rpgtl/internal"
	"github.com/valpere/rpgtl/internal/detector"
	"github.com/valpere/rpgtl/internal/dispatcher"
	"github.com/valpere/rpgtl/internal/store"
	"github.com/valpere/rpgtl/internal/translator"
	"github.com/valpere/rpgtl/internal/validator"
)

var (
	inputFile    string
	outputFile   string
	sourceLang   string
	targetLang   string
	glossaryPath string
	noGlossaryDB bool
	noCache      bool
	verify       bool
	timeout      time.Duration
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a text bundle with one backend",
	Long: `Translate a JSON text bundle of the form

  {"Map001.json": {"ev1": {"name": "Harold", "strings": ["Hello"]}}}

and write the response {"Map001.json": {"ev1": {"strings": ["..."]}}}.

Machine translation backends (google, yandex, deepl) translate string by
string; RPG Maker control codes such as \C[2] and \N[1] are kept intact.
Chat backends receive the bundle in batches of at most --token-limit tokens
together with the glossary and the project/local context.

Blocks already present in translation memory are not sent again unless
--no-cache is set. Glossary terms come from --glossary (YAML) and from the
database glossary for the language pair. With --verify the output is checked
for empty strings, strings in the wrong language and glossary terms that were
not applied; findings are printed as warnings.

Examples:
  rpgtl translate -i bundle.json -o out.json -t uk -b deepl
  rpgtl translate -i bundle.json -t fr -b anthropic --thinking --normalize`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		ctx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		backend, err := selectedBackend()
		if err != nil {
			return err
		}

		bundle, err := readBundle(inputFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Loaded %d files, %d strings\n", len(bundle.Files), bundle.StringCount())

		var det *detector.Detector
		if sourceLang == "auto" || verify {
			det = detector.New()
		}

		// Auto-detect source language when not specified
		if sourceLang == "auto" {
			agg := detector.NewAggregator(det)
			if err := agg.RecordAll(ctx, bundleStrings(bundle)); err != nil {
				return fmt.Errorf("language detection failed: %w", err)
			}
			if detected, ok := agg.ConsumeBest(); ok {
				sourceLang = detected
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
			}
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		glossary, err := collectGlossary(ctx, db)
		if err != nil {
			return err
		}

		cached := internal.TranslationResponse{}
		pending := bundle
		if !noCache {
			cached, pending, err = db.SplitCached(ctx, bundle, sourceLang, targetLang)
			if err != nil {
				return fmt.Errorf("translation memory lookup failed: %w", err)
			}
			if n := len(cached.Files); n > 0 {
				fmt.Fprintf(os.Stderr, "Translation memory answered blocks in %d files\n", n)
			}
		}

		cfg := serviceConfig(backend)
		req := dispatcher.Request{
			Backend:             backend,
			Model:               cfg.Model,
			ProjectContext:      viper.GetString("project_context"),
			LocalContext:        viper.GetString("local_context"),
			Bundle:              pending,
			Glossary:            glossary,
			SourceLanguage:      sourceLang,
			TranslationLanguage: targetLang,
			APIKey:              cfg.APIKey,
			Credentials:         cfg.Credentials,
			BaseURL:             cfg.BaseURL,
			SystemPrompt:        cfg.SystemPrompt,
			FolderID:            cfg.FolderID,
			TokenLimit:          viper.GetInt("token_limit"),
			Temperature:         cfg.Temperature,
			Thinking:            cfg.Thinking,
			Normalize:           viper.GetBool("normalize"),
		}

		if len(pending.Files) == 0 {
			result, err := assemble(bundle, cached, internal.TranslationResponse{}, req.Normalize)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Every block was found in translation memory\n")
			if verify {
				report(validator.New(det), bundle, result, glossary)
			}
			return writeJSON(outputFile, result)
		}

		jobID, err := db.StartJob(ctx, backend.String(), cfg.Model, sourceLang, targetLang, len(pending.Files), pending.StringCount())
		if err != nil {
			return fmt.Errorf("failed to record job: %w", err)
		}

		resp, err := newDispatcher().Translate(ctx, req)
		if finishErr := db.FinishJob(context.WithoutCancel(ctx), jobID, err); finishErr != nil {
			fmt.Fprintf(os.Stderr, "Failed to record job result: %v\n", finishErr)
		}
		if err != nil {
			return err
		}

		if !noCache {
			if n, err := db.SaveResponse(ctx, pending, *resp, sourceLang, targetLang, backend.String()); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to update translation memory: %v\n", err)
			} else if n > 0 {
				fmt.Fprintf(os.Stderr, "Stored %d strings in translation memory\n", n)
			}
		}

		result, err := assemble(bundle, cached, *resp, req.Normalize)
		if err != nil {
			return err
		}
		if verify {
			report(validator.New(det), bundle, result, glossary)
		}
		if err := writeJSON(outputFile, result); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Translated %s → %s with %s (job %s)\n", sourceLang, targetLang, backend, jobID)
		return nil
	},
}

// collectGlossary merges the --glossary file with the database glossary for
// the language pair. File entries come first; duplicate terms keep the first.
func collectGlossary(ctx context.Context, db *store.Store) ([]internal.GlossaryEntry, error) {
	var entries []internal.GlossaryEntry
	if glossaryPath != "" {
		gf, err := readGlossaryFile(glossaryPath)
		if err != nil {
			return nil, err
		}
		entries = append(entries, gf.Entries...)
	}
	if !noGlossaryDB {
		stored, err := db.Glossary(ctx, sourceLang, targetLang)
		if err != nil {
			return nil, fmt.Errorf("failed to load glossary: %w", err)
		}
		entries = append(entries, stored...)
	}

	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if seen[e.Term] {
			continue
		}
		seen[e.Term] = true
		out = append(out, e)
	}
	return out, nil
}

// report prints validation findings as warnings. A failed check is reported
// but does not fail the command.
func report(v *validator.Validator, bundle internal.TextBundle, result internal.TranslationResponse, glossary []internal.GlossaryEntry) {
	issues, err := v.Check(bundle, result, targetLang, glossary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification failed: %v\n", err)
		return
	}
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", issue)
	}
	if len(issues) > 0 {
		fmt.Fprintf(os.Stderr, "%d verification warnings\n", len(issues))
	}
}

// assemble combines memory hits with fresh translations in bundle order.
func assemble(bundle internal.TextBundle, cached, fresh internal.TranslationResponse, normalize bool) (internal.TranslationResponse, error) {
	merged := internal.TranslationResponse{}
	merged.Merge(cached)
	merged.Merge(fresh)
	out, err := internal.CheckAlignment(bundle, merged)
	if err != nil {
		return internal.TranslationResponse{}, fmt.Errorf("%w: %v", translator.ErrMalformedResponse, err)
	}
	if normalize {
		out.Normalize()
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	f := translateCmd.Flags()
	f.StringVarP(&inputFile, "input", "i", "", "Input bundle JSON (required)")
	f.StringVarP(&outputFile, "output", "o", "-", "Output file for the response (- for stdout)")
	f.StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	f.StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	f.StringVarP(&glossaryPath, "glossary", "g", "", "Glossary YAML file")
	f.BoolVar(&noGlossaryDB, "no-db-glossary", false, "Do not add the database glossary")
	f.BoolVar(&noCache, "no-cache", false, "Disable translation memory")
	f.BoolVar(&verify, "verify", false, "Check the output language and glossary usage")
	f.DurationVar(&timeout, "timeout", 0, "Abort the whole request after this long (0 = no limit)")

	f.String("project-context", "", "Free-text project description for chat backends")
	f.String("local-context", "", "Free-text context for this bundle")
	f.String("system-prompt", "", "System prompt override for chat backends")
	f.Int("token-limit", 4000, "Per-batch token ceiling for chat backends (0 = one batch)")
	f.Float64("temperature", 0.3, "Sampling temperature for chat backends")
	f.Bool("thinking", false, "Enable model reasoning where supported")
	f.Bool("normalize", false, `Rewrite line breaks in the output to \#`)

	for _, name := range []string{"project-context", "local-context", "system-prompt", "token-limit", "temperature", "thinking", "normalize"} {
		_ = viper.BindPFlag(configKey(name), f.Lookup(name))
	}

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("target")
}
