package models

import (
	"time"

	"github.com/feralforge/matchpractice/internal/match"
)

// Strategy is the zone strategy classified for a finished round.
type Strategy string

const (
	StrategyNear   Strategy = "near"
	StrategyFar    Strategy = "far"
	StrategyHybrid Strategy = "hybrid"
)

// Round is one practice round. EndTime is set exactly once, at finish; a
// round without it is in progress and excluded from completed-round
// aggregates.
type Round struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	StartTime     time.Time       `gorm:"not null;index" json:"startTime"`
	EndTime       *time.Time      `json:"endTime"`
	Observations  string          `gorm:"type:text" json:"observations"`
	TotalDuration *int64          `json:"totalDuration"`
	RoundType     match.RoundType `gorm:"size:16;default:teleop_only" json:"roundType"`
	BatteryName   *string         `gorm:"size:64" json:"batteryName"`
	BatteryVolts  *float64        `json:"batteryVolts"`
	Strategy      *Strategy       `gorm:"size:16" json:"strategy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	Cycles []Cycle `gorm:"foreignKey:RoundID;constraint:OnDelete:CASCADE" json:"cycles"`
}

// Completed reports whether the round has been finished.
func (r *Round) Completed() bool {
	return r.EndTime != nil
}

// TotalHits sums operator-confirmed hits across the round's cycles.
func (r *Round) TotalHits() int {
	total := 0
	for _, c := range r.Cycles {
		total += c.Hits
	}
	return total
}

// TotalMisses sums operator-confirmed misses across the round's cycles.
func (r *Round) TotalMisses() int {
	total := 0
	for _, c := range r.Cycles {
		total += c.Misses
	}
	return total
}
