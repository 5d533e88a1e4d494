package models

import (
	"time"

	"github.com/feralforge/matchpractice/internal/match"
)

// Zone is where the robot scored from during a cycle.
type Zone string

const (
	ZoneNear Zone = "near"
	ZoneFar  Zone = "far"
)

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	return z == ZoneNear || z == ZoneFar
}

// Cycle is one scoring cycle within a round. Duration, Timestamp,
// CycleNumber, TimeInterval and IsAutonomous are computed at mark time and
// never change; Hits, Misses and Zone are operator-supplied and editable.
type Cycle struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	RoundID      string         `gorm:"size:36;not null;index" json:"roundId"`
	CycleNumber  int            `gorm:"not null" json:"cycleNumber"`
	Duration     int64          `gorm:"not null" json:"duration"`
	Hits         int            `gorm:"default:0" json:"hits"`
	Misses       int            `gorm:"default:0" json:"misses"`
	Timestamp    int64          `gorm:"not null" json:"timestamp"`
	TimeInterval match.Interval `gorm:"size:16;not null" json:"timeInterval"`
	Zone         *Zone          `gorm:"size:8" json:"zone"`
	IsAutonomous bool           `gorm:"default:false" json:"isAutonomous"`
	CreatedAt    time.Time      `json:"createdAt"`
}
