package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/feralforge/matchpractice/internal/models"
	"github.com/feralforge/matchpractice/internal/store"
)

func newRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "List, inspect and delete recorded rounds",
	}

	cmd.AddCommand(newRoundsListCmd())
	cmd.AddCommand(newRoundsShowCmd())
	cmd.AddCommand(newRoundsDeleteCmd())
	return cmd
}

func newRoundsListCmd() *cobra.Command {
	var (
		configPath string
		date       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rounds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundsList(cmd, configPath, date)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&date, "date", "", "only rounds on this day (YYYY-MM-DD)")
	return cmd
}

func runRoundsList(cmd *cobra.Command, configPath, date string) error {
	_, st, loc, err := storeFromConfig(configPath)
	if err != nil {
		return err
	}

	var filter store.RoundFilter
	if date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", date)
		}
		filter.StartDate = &day
		filter.EndDate = &day
	}

	rounds, err := st.ListRounds(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rounds) == 0 {
		fmt.Fprintln(out, "No rounds found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART\tTYPE\tDURATION\tCYCLES\tHITS\tMISSES\tSTRATEGY")
	for _, r := range rounds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.ID),
			r.StartTime.In(loc).Format("2006-01-02 15:04"),
			r.RoundType,
			formatDuration(r.TotalDuration),
			len(r.Cycles), r.TotalHits(), r.TotalMisses(),
			formatStrategy(r.Strategy))
	}
	w.Flush()
	return nil
}

func newRoundsShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <round-id>",
		Short: "Show a round and its cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundsShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func runRoundsShow(cmd *cobra.Command, configPath, id string) error {
	_, st, loc, err := storeFromConfig(configPath)
	if err != nil {
		return err
	}

	round, err := resolveRound(cmd, st, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Round %s\n", round.ID)
	fmt.Fprintf(out, "  Start:    %s\n", round.StartTime.In(loc).Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Type:     %s\n", round.RoundType)
	fmt.Fprintf(out, "  Duration: %s\n", formatDuration(round.TotalDuration))
	fmt.Fprintf(out, "  Strategy: %s\n", formatStrategy(round.Strategy))
	if round.BatteryName != nil {
		volts := ""
		if round.BatteryVolts != nil {
			volts = fmt.Sprintf(" (%.2fV)", *round.BatteryVolts)
		}
		fmt.Fprintf(out, "  Battery:  %s%s\n", *round.BatteryName, volts)
	}
	if round.Observations != "" {
		fmt.Fprintf(out, "  Notes:    %s\n", truncate(round.Observations, 70))
	}

	if len(round.Cycles) == 0 {
		fmt.Fprintln(out, "\nNo cycles recorded.")
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tTIME\tHITS\tMISSES\tAT\tINTERVAL\tZONE")
	for _, c := range round.Cycles {
		zone := "-"
		if c.Zone != nil {
			zone = string(*c.Zone)
		}
		fmt.Fprintf(w, "%d\t%.2fs\t%d\t%d\t%.1fs\t%s\t%s\n",
			c.CycleNumber, float64(c.Duration)/1000, c.Hits, c.Misses,
			float64(c.Timestamp)/1000, c.TimeInterval, zone)
	}
	w.Flush()
	return nil
}

func newRoundsDeleteCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "delete <round-id>",
		Short: "Delete a round and all its cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundsDelete(cmd, configPath, args[0], force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func runRoundsDelete(cmd *cobra.Command, configPath, id string, force bool) error {
	_, st, _, err := storeFromConfig(configPath)
	if err != nil {
		return err
	}

	round, err := resolveRound(cmd, st, id)
	if err != nil {
		return err
	}

	if !force && !confirmDelete(cmd, round.ID) {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	if err := st.DeleteRound(cmd.Context(), round.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Round %s deleted.\n", round.ID)
	return nil
}

// resolveRound accepts a full round id or a unique prefix of one, as printed
// by the list command.
func resolveRound(cmd *cobra.Command, st *store.Store, id string) (*models.Round, error) {
	round, err := st.GetRound(cmd.Context(), id)
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	rounds, listErr := st.ListRounds(cmd.Context(), store.RoundFilter{})
	if listErr != nil {
		return nil, listErr
	}
	var found *models.Round
	for i := range rounds {
		if strings.HasPrefix(rounds[i].ID, id) {
			if found != nil {
				return nil, fmt.Errorf("round id %q is ambiguous", id)
			}
			found = &rounds[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("no round with id %q", id)
	}
	return st.GetRound(cmd.Context(), found.ID)
}

func confirmDelete(cmd *cobra.Command, id string) bool {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "This deletes round %s and all its cycles.\n", id)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "in progress"
	}
	return fmt.Sprintf("%.1fs", float64(*ms)/1000)
}

func formatStrategy(s *models.Strategy) string {
	if s == nil {
		return "-"
	}
	return string(*s)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
