package main

import (
	"os"

	"github.com/spf13/cobra"

	"laundry-coordinator/config"
	"laundry-coordinator/internal/log"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logger := log.WithComponent("cli")
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:           "laundryd",
		Short:         "Shared laundry machine coordinator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to the YAML config file")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		level := cfg.Log.Level
		if debug {
			level = "debug"
		}
		log.Configure(log.Config{Level: level, Service: "laundryd"})
		return cfg, nil
	}

	cmd.AddCommand(serveCmd(load), migrateCmd(load))
	return cmd
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config/config.yaml"
}
