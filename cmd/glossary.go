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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/rpgtl/internal"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, list, delete, import and export glossary entries.

Glossary entries are sent with every translation for their language pair:
chat backends receive them in the request, DeepL registers them as a
glossary. Use them for character names, places and game terms.`,
}

var (
	glossarySource string
	glossaryTarget string
	glossaryNote   string
)

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		// Pass empty strings to list everything; flags narrow the filter.
		entries, err := db.ListGlossaryTerms(cmd.Context(), glossarySource, glossaryTarget)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE LANG\tTARGET LANG\tSOURCE TERM\tTARGET TERM\tNOTE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.SourceLang, e.TargetLang, e.SourceTerm, e.TargetTerm, e.Note)
		}
		return w.Flush()
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or update a glossary entry",
	Long: `Add a glossary entry mapping a source-language term to a target-language term.
Adding an existing term updates its translation and note.

Example:
  rpgtl glossary add "Harold" "Гарольд" --source en --target uk --note "main hero"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePair(); err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.AddGlossaryTerm(cmd.Context(), glossarySource, glossaryTarget, args[0], args[1], glossaryNote); err != nil {
			return fmt.Errorf("failed to add glossary entry: %w", err)
		}
		fmt.Printf("Added: [%s→%s] %q → %q\n", glossarySource, glossaryTarget, args[0], args[1])
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a glossary entry by ID",
	Long:  `Delete a glossary entry by its ID (shown in "rpgtl glossary list").`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.DeleteGlossaryTerm(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		if !deleted {
			return fmt.Errorf("glossary entry not found: %s", args[0])
		}
		fmt.Printf("Deleted glossary entry: %s\n", args[0])
		return nil
	},
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import glossary entries from YAML",
	Long: `Import entries from a YAML file:

  source_language: en
  target_language: uk
  entries:
    - term: Harold
      translation: Гарольд
      note: main hero

--source/--target override the languages named in the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gf, err := readGlossaryFile(args[0])
		if err != nil {
			return err
		}
		if glossarySource == "" {
			glossarySource = gf.SourceLanguage
		}
		if glossaryTarget == "" {
			glossaryTarget = gf.TargetLanguage
		}
		if err := requirePair(); err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ImportGlossary(cmd.Context(), glossarySource, glossaryTarget, gf.Entries)
		if err != nil {
			return fmt.Errorf("failed to import glossary: %w", err)
		}
		fmt.Printf("Imported %d entries [%s→%s]\n", n, glossarySource, glossaryTarget)
		return nil
	},
}

var glossaryExportCmd = &cobra.Command{
	Use:   "export [file.yaml]",
	Short: "Export the glossary of a language pair as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePair(); err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.Glossary(cmd.Context(), glossarySource, glossaryTarget)
		if err != nil {
			return fmt.Errorf("failed to load glossary: %w", err)
		}
		if entries == nil {
			entries = []internal.GlossaryEntry{}
		}

		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		return writeGlossaryFile(path, glossaryFile{
			SourceLanguage: glossarySource,
			TargetLanguage: glossaryTarget,
			Entries:        entries,
		})
	},
}

func requirePair() error {
	if glossarySource == "" {
		return fmt.Errorf("--source language flag is required")
	}
	if glossaryTarget == "" {
		return fmt.Errorf("--target language flag is required")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.PersistentFlags().StringVarP(&glossarySource, "source", "s", "", "Source language code (e.g. en)")
	glossaryCmd.PersistentFlags().StringVarP(&glossaryTarget, "target", "t", "", "Target language code (e.g. uk)")
	glossaryAddCmd.Flags().StringVar(&glossaryNote, "note", "", "Usage note passed to chat backends")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
	glossaryCmd.AddCommand(glossaryImportCmd)
	glossaryCmd.AddCommand(glossaryExportCmd)
}
