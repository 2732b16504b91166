package main

import (
	"encoding/json"
	"os"

	"med-reminder/internal/adapters/storage"
	"med-reminder/internal/platform/config"
	"med-reminder/internal/platform/logger"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single missed-dose sweep cycle and print the report",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewFromEnv()

	store, closeStore, err := storage.Open(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	sweeper, err := newSweeper(cfg, store, log)
	if err != nil {
		return err
	}

	report, err := sweeper.RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
