package main

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/feralforge/matchpractice/internal/config"
	"github.com/feralforge/matchpractice/internal/db"
	"github.com/feralforge/matchpractice/internal/store"
)

const defaultConfigPath = "matchpractice.yaml"

// openFromConfig loads the config, opens the database and migrates it.
// Nearly every subcommand starts here.
func openFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gdb, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return nil, nil, err
	}
	return cfg, gdb, nil
}

// storeFromConfig is openFromConfig plus the repository wrapper and resolved
// timezone.
func storeFromConfig(configPath string) (*config.Config, *store.Store, *time.Location, error) {
	cfg, gdb, err := openFromConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, store.New(gdb), loc, nil
}
