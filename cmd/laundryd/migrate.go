package main

import (
	"github.com/spf13/cobra"

	"laundry-coordinator/config"
	"laundry-coordinator/internal/db"
	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/store"
)

func migrateCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed the machine inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			logger := log.WithComponent("migrate")

			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return err
			}
			machines, err := db.Inventory(cfg.Inventory)
			if err != nil {
				return err
			}
			if err := store.NewGormStore(gormDB).UpsertInventory(cmd.Context(), machines); err != nil {
				return err
			}
			logger.Info().Int("machines", len(machines)).Msg("schema migrated and inventory seeded")
			return nil
		},
	}
}
