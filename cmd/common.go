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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valpere/rpgtl/internal"
	"github.com/valpere/rpgtl/internal/dispatcher"
	"github.com/valpere/rpgtl/internal/store"
	"github.com/valpere/rpgtl/internal/translator"
)

// openStore opens the SQLite database named by --db, creating its directory.
func openStore() (*store.Store, error) {
	path := viper.GetString("db")
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func selectedBackend() (translator.Backend, error) {
	return translator.ParseBackend(viper.GetString("backend"))
}

// apiKey resolves the key for b: --api-key / RPGTL_API_KEY first, then
// keys.<backend> from the config file or the provider's own variable.
func apiKey(b translator.Backend) string {
	if key := strings.TrimSpace(viper.GetString("api_key")); key != "" {
		return key
	}
	return strings.TrimSpace(viper.GetString("keys." + b.String()))
}

// serviceConfig builds the provider configuration for b from flags, env and
// config file.
func serviceConfig(b translator.Backend) translator.ServiceConfig {
	return translator.ServiceConfig{
		APIKey:       apiKey(b),
		Credentials:  viper.GetString("credentials"),
		Model:        viper.GetString("model"),
		FolderID:     viper.GetString("folder_id"),
		BaseURL:      viper.GetString("base_url"),
		SystemPrompt: viper.GetString("system_prompt"),
		Temperature:  viper.GetFloat64("temperature"),
		Thinking:     viper.GetBool("thinking"),
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newDispatcher() *dispatcher.Dispatcher {
	return dispatcher.New(nil, dispatcher.WithLogger(newLogger()))
}

func readBundle(path string) (internal.TextBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return internal.TextBundle{}, fmt.Errorf("failed to read input file: %w", err)
	}
	var bundle internal.TextBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return internal.TextBundle{}, fmt.Errorf("failed to parse bundle %s: %w", path, err)
	}
	return bundle, nil
}

// writeJSON writes v indented to path, or to stdout when path is "" or "-".
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// glossaryFile is the YAML layout used by glossary import/export and
// translate --glossary.
type glossaryFile struct {
	SourceLanguage string                   `yaml:"source_language,omitempty"`
	TargetLanguage string                   `yaml:"target_language,omitempty"`
	Entries        []internal.GlossaryEntry `yaml:"entries"`
}

func readGlossaryFile(path string) (glossaryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return glossaryFile{}, fmt.Errorf("failed to read glossary: %w", err)
	}
	var gf glossaryFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return glossaryFile{}, fmt.Errorf("failed to parse glossary %s: %w", path, err)
	}
	return gf, nil
}

func writeGlossaryFile(path string, gf glossaryFile) error {
	data, err := yaml.Marshal(gf)
	if err != nil {
		return fmt.Errorf("failed to encode glossary: %w", err)
	}
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// bundleStrings flattens every string of bundle in order.
func bundleStrings(bundle internal.TextBundle) []string {
	var out []string
	for _, f := range bundle.Files {
		for _, blk := range f.Blocks {
			out = append(out, blk.Strings...)
		}
	}
	return out
}
