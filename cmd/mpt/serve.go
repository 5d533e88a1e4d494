package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/feralforge/matchpractice/internal/dashboard"
	"github.com/feralforge/matchpractice/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		Long:  "Serves the JSON API for rounds, cycles, statistics and CSV export, plus the scheduled backup job when enabled in the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gdb, err := openFromConfig(configPath)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Backup.Enabled {
		stop, err := dashboard.StartBackup(dashboard.BackupOpts{
			Store: store.New(gdb),
			Spec:  cfg.Backup.Cron,
			Dir:   cfg.Backup.Dir,
			Loc:   loc,
			Log:   log,
		})
		if err != nil {
			return err
		}
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Backups scheduled (%s) into %s\n", cfg.Backup.Cron, cfg.Backup.Dir)
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:   gdb,
		Port: port,
		Loc:  loc,
		Log:  log,
		Out:  cmd.OutOrStdout(),
	})
}
