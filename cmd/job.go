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
)

var jobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Show the outcome of a translate run",
	Long: `Every translate run that reaches a backend is recorded with its backend,
language pair, size and outcome. The job id is printed when the run ends.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		job, err := db.GetJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Job:       %s\n", job.ID)
		fmt.Printf("Status:    %s\n", job.Status)
		fmt.Printf("Backend:   %s\n", job.Backend)
		if job.Model != "" {
			fmt.Printf("Model:     %s\n", job.Model)
		}
		fmt.Printf("Languages: %s → %s\n", job.SourceLang, job.TargetLang)
		fmt.Printf("Files:     %d\n", job.FileCount)
		fmt.Printf("Strings:   %d\n", job.StringCount)
		fmt.Printf("Started:   %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
		if job.Error != "" {
			fmt.Printf("Error:     %s\n", job.Error)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobCmd)
}
