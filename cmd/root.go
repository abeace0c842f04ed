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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/rpgtl/internal/translator"
)

var version = "0.3.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rpgtl",
	Short: "Game text translation toolkit",
	Long: `A CLI for localizing extracted RPG Maker text.

Bundles of file → block → strings are sent to one of nine backends:
  machine translation  google, yandex, deepl
  chat models          openai, anthropic, deepseek, gemini, openrouter, ollama

Chat backends receive token-budgeted batches; files are never split.

Settings are read from flags, RPGTL_* environment variables and an optional
config file ($HOME/.rpgtl.yaml). Use "rpgtl translate --help" for details.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// errorHint turns a classified failure into an actionable message.
func errorHint(err error) string {
	switch translator.KindOf(err) {
	case translator.KindMissingCredential:
		return "set --api-key, RPGTL_API_KEY, or the backend's key in the config file"
	case translator.KindMissingRegion:
		return "yandex needs the cloud folder id: set --folder-id or RPGTL_FOLDER_ID"
	case translator.KindTokenizeFailure:
		return "input is not valid UTF-8 or the algorithm is unknown"
	case translator.KindMalformedResponse:
		return "the model reply did not match the request; try another model or a smaller --token-limit"
	}
	switch {
	case errors.Is(err, translator.ErrRateLimit):
		return "rate limited by the provider; wait and retry"
	case errors.Is(err, translator.ErrQuotaExceeded):
		return "provider quota exhausted; check billing"
	case errors.Is(err, translator.ErrAuthFailed):
		return "the API key was rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out; raise --timeout"
	}
	return ""
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $HOME/.rpgtl.yaml)")
	pf.String("db", "./data/rpgtl.db", "Database path for glossary and translation memory")
	pf.Bool("verbose", false, "Log dispatcher state transitions to stderr")

	pf.StringP("backend", "b", "google", "Backend: "+strings.Join(backendNames(), ", "))
	pf.String("api-key", "", "API key for the selected backend")
	pf.String("model", "", "Model name (chat backends)")
	pf.String("base-url", "", "Override the backend endpoint")
	pf.String("folder-id", "", "Yandex Cloud folder id")
	pf.String("credentials", "", "Path to Google Cloud credentials (google backend)")

	for _, name := range []string{"db", "verbose", "backend", "api-key", "model", "base-url", "folder-id", "credentials"} {
		_ = viper.BindPFlag(configKey(name), pf.Lookup(name))
	}
}

// configKey maps a flag name to its viper key (api-key → api_key).
func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// providerEnv lists the conventional key variables read when no key is set.
var providerEnv = map[translator.Backend]string{
	translator.Google:     "GOOGLE_API_KEY",
	translator.Yandex:     "YANDEX_API_KEY",
	translator.DeepL:      "DEEPL_AUTH_KEY",
	translator.OpenAI:     "OPENAI_API_KEY",
	translator.Anthropic:  "ANTHROPIC_API_KEY",
	translator.DeepSeek:   "DEEPSEEK_API_KEY",
	translator.Gemini:     "GEMINI_API_KEY",
	translator.OpenRouter: "OPENROUTER_API_KEY",
	translator.Ollama:     "OLLAMA_API_KEY",
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rpgtl")
	}

	viper.SetEnvPrefix("RPGTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	for b, env := range providerEnv {
		_ = viper.BindEnv("keys."+b.String(), "RPGTL_KEYS_"+strings.ToUpper(b.String()), env)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Failed to read config %s: %v\n", cfgFile, err)
	}
}

func backendNames() []string {
	var names []string
	for _, b := range translator.Backends() {
		names = append(names, b.String())
	}
	return names
}
