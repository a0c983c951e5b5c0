package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dossierlab/dossier/explorer"
	"github.com/dossierlab/dossier/report"
)

var exploreCmd = &cobra.Command{
	Use:   "explore <evidence-dir> [<evidence-dir>...]",
	Short: "Run one explorer per evidence directory and merge the reports",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExplore,
}

func init() {
	exploreCmd.Flags().Int("concurrency", 4, "maximum explorers running at once")
	exploreCmd.Flags().StringP("output", "o", "", "write the merged dossier to a file instead of stdout")
	_ = viper.BindPFlag("concurrency", exploreCmd.Flags().Lookup("concurrency"))
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	sources := make([]explorer.Source, 0, len(args))
	for _, dir := range args {
		info, err := os.Stat(dir)
		if err != nil {
			return errors.Wrapf(err, "evidence dir %s", dir)
		}
		if !info.IsDir() {
			return errors.Errorf("%s is not a directory", dir)
		}
		sources = append(sources, explorer.NewFileSource(filepath.Base(dir), dir))
	}

	runner := explorer.NewRunner(explorer.Config{
		Client:   newClient(),
		Model:    viper.GetString("model"),
		Provider: viper.GetString("provider"),
		APIKey:   viper.GetString("api-key"),
		MaxTurns: viper.GetInt("max-turns"),
	})

	log.Info().Int("sources", len(sources)).Msg("starting explorer fleet")
	reports := explorer.NewFleet(runner, viper.GetInt("concurrency")).Explore(cmd.Context(), sources)
	dossier := report.Assemble(reports)

	out, err := json.MarshalIndent(dossier, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding dossier")
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return errors.Wrap(err, "writing dossier")
		}
		log.Info().Str("path", path).Msg("dossier written")
		return nil
	}
	fmt.Println(string(out))
	return nil
}
