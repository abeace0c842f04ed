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
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage the translation memory",
	Long:  `List, inspect, look up, edit and clear the SQLite translation memory.`,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListMemory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSOURCE\tTARGET\tBACKEND\tUSED\tLAST USED\tINVALID\tTEXT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%v\t%s\n",
				e.ID, e.SourceLang, e.TargetLang, e.Backend,
				e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
				e.Invalidated, snippet(e.SourceText, 40))
		}
		return w.Flush()
	},
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Invalid entries: %d\n", stats.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		return nil
	},
}

var (
	lookupSource    string
	lookupTarget    string
	lookupThreshold float64
)

var memoryLookupCmd = &cobra.Command{
	Use:   "lookup <text>",
	Short: "Look up a string in translation memory",
	Long: `Print the stored translation of a string. With --threshold, fall back to
the most similar stored string when there is no exact entry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if lookupSource == "" || lookupTarget == "" {
			return fmt.Errorf("--source and --target are required")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		text, found, err := db.GetCachedTranslation(cmd.Context(), args[0], lookupSource, lookupTarget)
		if err != nil {
			return fmt.Errorf("lookup failed: %w", err)
		}
		if found {
			fmt.Println(text)
			return nil
		}

		text, score, found, err := db.FuzzyGetCachedTranslation(cmd.Context(), args[0], lookupSource, lookupTarget, lookupThreshold)
		if err != nil {
			return fmt.Errorf("fuzzy lookup failed: %w", err)
		}
		if !found {
			return fmt.Errorf("no translation memory entry for %q", args[0])
		}
		fmt.Fprintf(os.Stderr, "Fuzzy match (similarity %.2f)\n", score)
		fmt.Println(text)
		return nil
	},
}

var memoryAddCmd = &cobra.Command{
	Use:   "add <source text> <translation>",
	Short: "Store a translation in memory by hand",
	Long: `Store or replace the translation of one string. Use it to record a
corrected translation after invalidating a bad entry; later translate runs
serve it like any other memory hit.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if lookupSource == "" || lookupTarget == "" {
			return fmt.Errorf("--source and --target are required")
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.SaveToMemory(cmd.Context(), args[0], lookupSource, lookupTarget, args[1], "manual"); err != nil {
			return fmt.Errorf("failed to store entry: %w", err)
		}
		fmt.Printf("Stored translation for %q (%s → %s)\n", snippet(args[0], 40), lookupSource, lookupTarget)
		return nil
	},
}

var memoryInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Mark a translation memory entry as invalid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InvalidateMemory(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		fmt.Printf("Invalidated entry: %s\n", args[0])
		return nil
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteMemory(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted entry: %s\n", args[0])
		return nil
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearMemory(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear memory: %w", err)
		}
		fmt.Printf("Cleared %d entries from translation memory.\n", n)
		return nil
	},
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(memoryCmd)

	memoryLookupCmd.Flags().StringVarP(&lookupSource, "source", "s", "", "Source language code")
	memoryLookupCmd.Flags().StringVarP(&lookupTarget, "target", "t", "", "Target language code")
	memoryLookupCmd.Flags().Float64Var(&lookupThreshold, "threshold", 0, "Fuzzy similarity threshold (0 disables)")

	memoryAddCmd.Flags().StringVarP(&lookupSource, "source", "s", "", "Source language code")
	memoryAddCmd.Flags().StringVarP(&lookupTarget, "target", "t", "", "Target language code")

	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryAddCmd)
	memoryCmd.AddCommand(memoryStatsCmd)
	memoryCmd.AddCommand(memoryLookupCmd)
	memoryCmd.AddCommand(memoryInvalidateCmd)
	memoryCmd.AddCommand(memoryDeleteCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}
