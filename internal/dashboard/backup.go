package dashboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/feralforge/matchpractice/internal/export"
	"github.com/feralforge/matchpractice/internal/store"
)

// BackupOpts configures the scheduled CSV snapshots.
type BackupOpts struct {
	Store *store.Store
	// Spec is a standard 5-field cron expression.
	Spec string
	Dir  string
	Loc  *time.Location
	Log  *zap.Logger
}

// StartBackup schedules periodic CSV exports of every round into Dir. It
// returns a stop function; the first snapshot happens at the first cron
// fire, not immediately.
func StartBackup(opts BackupOpts) (stop func(), err error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: backup store is required")
	}
	if opts.Loc == nil {
		opts.Loc = time.Local
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("dashboard: backup dir %s: %w", opts.Dir, err)
	}

	c := cron.New(cron.WithLocation(opts.Loc))
	_, err = c.AddFunc(opts.Spec, func() {
		if err := writeBackup(opts); err != nil {
			opts.Log.Error("scheduled backup failed", zap.Error(err))
			return
		}
		opts.Log.Info("backup written", zap.String("dir", opts.Dir))
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: backup cron %q: %w", opts.Spec, err)
	}

	c.Start()
	return func() { c.Stop() }, nil
}

// writeBackup exports all rounds into a dated CSV file, overwriting any
// earlier snapshot from the same day.
func writeBackup(opts BackupOpts) error {
	rounds, err := opts.Store.ListRounds(context.Background(), store.RoundFilter{})
	if err != nil {
		return err
	}

	path := filepath.Join(opts.Dir, export.Filename(time.Now().In(opts.Loc)))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dashboard: create %s: %w", path, err)
	}
	defer f.Close()

	if err := export.Write(f, rounds, opts.Loc); err != nil {
		return err
	}
	return f.Close()
}
