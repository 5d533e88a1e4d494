package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feralforge/matchpractice/internal/config"
	"github.com/feralforge/matchpractice/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long:  "Creates the rounds and cycles tables in the configured sqlite file, or brings an existing database up to the current schema. Safe to run multiple times.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func runMigrate(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gdb, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", cfg.Database.Path)
	return nil
}
