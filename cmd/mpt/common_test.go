package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
	"github.com/feralforge/matchpractice/internal/store"
)

// writeTestConfig drops a config file into a temp dir with its own sqlite
// database and returns the config path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "matchpractice.yaml")
	content := fmt.Sprintf("database:\n  path: %s\ntimezone: UTC\n",
		filepath.Join(dir, "practice.db"))
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

// openTestStore opens the store behind a test config so tests can seed data
// the way the commands will read it.
func openTestStore(t *testing.T, cfgPath string) *store.Store {
	t.Helper()
	_, st, _, err := storeFromConfig(cfgPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

// seedFinishedRound creates one completed round with two cycles and returns
// its id.
func seedFinishedRound(t *testing.T, st *store.Store, start time.Time) string {
	t.Helper()
	ctx := context.Background()

	round, err := st.CreateRound(ctx, store.CreateRoundParams{
		StartTime: start,
		RoundType: match.TeleopOnly,
	})
	if err != nil {
		t.Fatalf("create round: %v", err)
	}

	zone := models.ZoneNear
	cycles := []store.CreateCycleParams{
		{RoundID: round.ID, CycleNumber: 1, Duration: 8000, Hits: 3, Misses: 1,
			Timestamp: 8000, TimeInterval: match.Interval0to30, Zone: &zone},
		{RoundID: round.ID, CycleNumber: 2, Duration: 7000, Hits: 2, Misses: 0,
			Timestamp: 15000, TimeInterval: match.Interval0to30, Zone: &zone},
	}
	for _, c := range cycles {
		if _, err := st.CreateCycle(ctx, c); err != nil {
			t.Fatalf("create cycle: %v", err)
		}
	}

	end := start.Add(90 * time.Second)
	total := int64(90000)
	obs := "seeded"
	strategy := models.StrategyNear
	if _, err := st.PatchRound(ctx, round.ID, store.RoundPatch{
		EndTime:       &end,
		TotalDuration: &total,
		Observations:  &obs,
		Strategy:      &strategy,
	}); err != nil {
		t.Fatalf("finish round: %v", err)
	}
	return round.ID
}

// runCLI executes the root command with the given args and returns its
// combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
