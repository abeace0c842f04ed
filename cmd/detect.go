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
	"sort"

	"github.com/spf13/cobra"

	"github.com/valpere/rpgtl/internal/detector"
)

var (
	detectInput   string
	detectWorkers int
)

var detectCmd = &cobra.Command{
	Use:   "detect [text...]",
	Short: "Detect the dominant language of texts or a bundle",
	Long: `Accumulate confidence-weighted language guesses over every argument, or
over every string of --input, and print the winning ISO 639-1 code followed
by the accumulated confidence per language.

Example:
  rpgtl detect -i bundle.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		texts := args
		if detectInput != "" {
			bundle, err := readBundle(detectInput)
			if err != nil {
				return err
			}
			texts = append(texts, bundleStrings(bundle)...)
		}
		if len(texts) == 0 {
			return fmt.Errorf("nothing to detect: pass texts or --input")
		}

		agg := detector.NewAggregator(detector.New())
		agg.SetWorkers(detectWorkers)
		if err := agg.RecordAll(cmd.Context(), texts); err != nil {
			return err
		}

		totals := agg.Snapshot()
		best, ok := agg.ConsumeBest()
		if !ok {
			return fmt.Errorf("no language could be identified")
		}
		fmt.Println(best)

		tags := make([]string, 0, len(totals))
		for tag := range totals {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool { return totals[tags[i]] > totals[tags[j]] })
		for _, tag := range tags {
			fmt.Printf("  %s\t%.3f\n", tag, totals[tag])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&detectInput, "input", "i", "", "Bundle JSON whose strings are sampled")
	detectCmd.Flags().IntVar(&detectWorkers, "workers", 4, "Concurrent detection workers")
}
