package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dossierlab/dossier/llmclient"
)

var rootCmd = &cobra.Command{
	Use:   "dossier",
	Short: "Mine unstructured evidence into structured developer dossiers",
	Long: `dossier runs a fleet of tool-calling LLM explorers over evidence sources
(local files, scraped archives) and merges their findings into one report.

Configuration comes from flags, DOSSIER_* environment variables, or an
optional config file. API keys are read from the provider's usual
environment variable (e.g. OPENAI_API_KEY).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(viper.GetString("log-level"))
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("model", "gpt-5.2-mini", "model to drive the agent loop")
	flags.String("provider", "", "provider override (openai, anthropic, ollama)")
	flags.String("api-key", "", "API key override for this invocation")
	flags.Int("max-turns", 30, "turn budget per agent run")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")

	_ = viper.BindPFlags(flags)
	viper.SetEnvPrefix("DOSSIER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func newClient() *llmclient.Client {
	return llmclient.NewClientFromEnv()
}
