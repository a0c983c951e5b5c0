package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dossierlab/dossier/agentcore"
)

var chatCmd = &cobra.Command{
	Use:   "chat <prompt>",
	Short: "Run one streamed agent turn and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("system", "You are a concise assistant.", "system prompt")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	system, _ := cmd.Flags().GetString("system")

	engine := agentcore.NewEngine(agentcore.Config{
		Client:       newClient(),
		Model:        viper.GetString("model"),
		Provider:     viper.GetString("provider"),
		APIKey:       viper.GetString("api-key"),
		SystemPrompt: system,
		UserPrompt:   strings.Join(args, " "),
		MaxTurns:     viper.GetInt("max-turns"),
	})

	for ev := range engine.RunStream(cmd.Context()) {
		switch ev.Kind {
		case agentcore.EventChunk:
			fmt.Print(ev.Payload)
		case agentcore.EventToolCall:
			log.Info().Str("tool", ev.Tool).Msg("tool call")
		case agentcore.EventToolResult:
			log.Debug().Str("tool", ev.Tool).Str("result", ev.Payload).Msg("tool result")
		case agentcore.EventDone:
			fmt.Fprintln(os.Stdout)
		case agentcore.EventError:
			return errors.New(ev.Payload)
		}
	}
	return nil
}
