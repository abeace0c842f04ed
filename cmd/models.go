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

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models a backend offers",
	Long: `List the models available to the selected backend and key.

Machine translation backends (google, yandex, deepl) have no model catalog
and print nothing.

Example:
  rpgtl models -b openrouter`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := selectedBackend()
		if err != nil {
			return err
		}

		models, err := newDispatcher().ListModels(cmd.Context(), backend, serviceConfig(backend))
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Println(m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
