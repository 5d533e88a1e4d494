package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/feralforge/matchpractice/internal/stats"
	"github.com/feralforge/matchpractice/internal/store"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics over completed rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, configPath, from, to)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&from, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day to include (YYYY-MM-DD)")
	return cmd
}

func runStats(cmd *cobra.Command, configPath, from, to string) error {
	_, st, loc, err := storeFromConfig(configPath)
	if err != nil {
		return err
	}

	fromT, err := parseDayFlag(from, loc)
	if err != nil {
		return err
	}
	toT, err := parseDayFlag(to, loc)
	if err != nil {
		return err
	}

	rounds, err := st.ListRounds(cmd.Context(), store.RoundFilter{})
	if err != nil {
		return err
	}
	rounds = stats.FilterByDate(rounds, fromT, toT, loc)

	report := stats.Compute(rounds, loc)
	printReport(cmd, report)
	return nil
}

func parseDayFlag(value string, loc *time.Location) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return &t, nil
}

func printReport(cmd *cobra.Command, report stats.Report) {
	out := cmd.OutOrStdout()
	g := report.General.Rounded()

	if g.TotalRounds == 0 {
		fmt.Fprintln(out, "No completed rounds yet.")
		return
	}

	fmt.Fprintln(out, "General")
	fmt.Fprintf(out, "  Rounds:           %d\n", g.TotalRounds)
	fmt.Fprintf(out, "  Cycles:           %d (%.1f per round)\n", g.TotalCycles, g.AvgCyclesPerRound)
	if g.TotalCycles > 0 {
		fmt.Fprintf(out, "  Cycle time:       avg %.2fs, best %.2fs, worst %.2fs\n",
			g.AvgCycleTime/1000, float64(g.MinCycleTime)/1000, float64(g.MaxCycleTime)/1000)
	}
	fmt.Fprintf(out, "  Scoring:          %d hits, %d misses (%.1f%%)\n", g.TotalHits, g.TotalMisses, g.HitRate)
	fmt.Fprintf(out, "  Personal best:    %d hits in a round\n", g.PersonalBest)

	if len(report.ByInterval) > 0 {
		fmt.Fprintln(out, "\nBy teleop interval")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  INTERVAL\tCYCLES\tAVG TIME\tHITS\tMISSES")
		for _, iv := range report.ByInterval {
			fmt.Fprintf(w, "  %s\t%d\t%.2fs\t%d\t%d\n",
				iv.Interval, iv.Count, iv.AvgTime/1000, iv.Hits, iv.Misses)
		}
		w.Flush()
	}

	if len(report.Daily) > 0 {
		fmt.Fprintln(out, "\nBy day")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  DATE\tROUNDS\tCYCLES\tAVG TIME\tHITS\tMISSES")
		for _, d := range report.Daily {
			fmt.Fprintf(w, "  %s\t%d\t%d\t%.2fs\t%d\t%d\n",
				d.Date, d.Rounds, d.TotalCycles, d.AvgCycleTime/1000, d.TotalHits, d.TotalMisses)
		}
		w.Flush()
	}

	if len(report.Evolution) > 0 {
		fmt.Fprintln(out, "\nEvolution")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ROUND\tDATE\tCYCLES\tAVG TIME\tHITS\tMISSES")
		for _, p := range report.Evolution {
			fmt.Fprintf(w, "  #%d\t%s\t%d\t%.2fs\t%d\t%d\n",
				p.RoundNumber, p.Date, p.CycleCount, p.AvgTime/1000, p.Hits, p.Misses)
		}
		w.Flush()
	}
}
