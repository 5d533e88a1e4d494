// Package db opens and migrates the sqlite database holding rounds and
// cycles.
package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feralforge/matchpractice/internal/models"
)

// InMemory is the DSN for an in-memory database, used by tests and the
// migrate command's dry-run mode.
const InMemory = ":memory:"

// Open opens a GORM connection to the sqlite file at path, creating it if
// missing. Foreign keys are enabled so cycle rows cascade with their round.
func Open(path string) (*gorm.DB, error) {
	dsn := path
	if dsn != InMemory {
		dsn = fmt.Sprintf("%s?_foreign_keys=on", path)
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}
	return gdb, nil
}

// AllModels returns every GORM model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Round{},
		&models.Cycle{},
	}
}

// AutoMigrate creates or updates the rounds and cycles tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
