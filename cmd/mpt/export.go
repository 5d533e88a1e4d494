package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/feralforge/matchpractice/internal/export"
	"github.com/feralforge/matchpractice/internal/store"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		outPath    string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export rounds and cycles to CSV",
		Long:  "Writes every round with its cycles as semicolon-separated CSV, one row per cycle. Defaults to a dated file in the current directory; use --out - for stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath, outPath, date)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default ftc_cycles_<date>.csv, - for stdout)")
	cmd.Flags().StringVar(&date, "date", "", "only rounds on this day (YYYY-MM-DD)")
	return cmd
}

func runExport(cmd *cobra.Command, configPath, outPath, date string) error {
	_, st, loc, err := storeFromConfig(configPath)
	if err != nil {
		return err
	}

	var filter store.RoundFilter
	if date != "" {
		day, err := parseDayFlag(date, loc)
		if err != nil {
			return err
		}
		filter.StartDate = day
		filter.EndDate = day
	}

	rounds, err := st.ListRounds(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if outPath == "-" {
		return export.Write(cmd.OutOrStdout(), rounds, loc)
	}

	if outPath == "" {
		outPath = export.Filename(time.Now().In(loc))
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	if err := export.Write(f, rounds, loc); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rounds to %s\n", len(rounds), outPath)
	return nil
}
