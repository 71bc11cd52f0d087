package main

import (
	"os"

	"stablebricks-backend/internal/config"
	"stablebricks-backend/internal/logger"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "stablebricks",
		Short:         "StableBricks investment API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newMigrateCmd(), newSeedCmd())
	return root
}

// loadConfig reads the environment and sets up logging for a command run.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	closer := logger.Setup(cfg.LogLevel, cfg.LogFile, cfg.IsProduction())
	return cfg, func() { _ = closer.Close() }, nil
}
