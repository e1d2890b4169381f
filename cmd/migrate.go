package main

import (
	"github.com/Vovarama1992/nexcast/internal/config"
	"github.com/Vovarama1992/nexcast/internal/infra"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database if missing and apply migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.ValidateDatabase(); err != nil {
			return err
		}
		zcore, zl, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer zcore.Sync()

		return infra.MigrateUp(cfg.DatabaseURL(), zl)
	},
}
