package main

import (
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/hecopilot/copilot-backend/config"
	"github.com/hecopilot/copilot-backend/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Copilot maintenance jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCMD(), sweepCMD(), scheduleCMD())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("worker failed")
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.App.Environment, cfg.App.LogLevel)
	return cfg, nil
}
