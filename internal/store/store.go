// Package store is the relational repository for rounds and cycles, backed
// by GORM. It owns id assignment and the persistence-side validation rules;
// timing semantics live in the session and match packages.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
)

// ErrNotFound is returned when a round or cycle id does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrNoFields is returned by patch operations called with nothing to update.
var ErrNoFields = errors.New("store: no fields to update")

// Store persists rounds and cycles.
type Store struct {
	db *gorm.DB
}

// New wraps a GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// RoundFilter narrows ListRounds. Date fields compare against the calendar
// date of the round's start time, inclusive on both ends.
type RoundFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// CreateRoundParams are the fields fixed at round creation.
type CreateRoundParams struct {
	StartTime    time.Time
	RoundType    match.RoundType
	BatteryName  *string
	BatteryVolts *float64
}

// CreateRound inserts a new round with a server-assigned id.
func (s *Store) CreateRound(ctx context.Context, p CreateRoundParams) (*models.Round, error) {
	if !p.RoundType.Valid() {
		return nil, fmt.Errorf("store: invalid round type %q", p.RoundType)
	}
	round := models.Round{
		ID:           uuid.NewString(),
		StartTime:    p.StartTime,
		RoundType:    p.RoundType,
		BatteryName:  p.BatteryName,
		BatteryVolts: p.BatteryVolts,
		Cycles:       []models.Cycle{},
	}
	if err := s.db.WithContext(ctx).Create(&round).Error; err != nil {
		return nil, fmt.Errorf("store: create round: %w", err)
	}
	return &round, nil
}

// RoundPatch carries the finishable round fields. Nil fields are left
// untouched.
type RoundPatch struct {
	EndTime       *time.Time
	Observations  *string
	TotalDuration *int64
	Strategy      *models.Strategy
}

// PatchRound applies a partial update and returns the updated round with its
// cycles.
func (s *Store) PatchRound(ctx context.Context, id string, patch RoundPatch) (*models.Round, error) {
	updates := map[string]interface{}{}
	if patch.EndTime != nil {
		updates["end_time"] = *patch.EndTime
	}
	if patch.Observations != nil {
		updates["observations"] = *patch.Observations
	}
	if patch.TotalDuration != nil {
		updates["total_duration"] = *patch.TotalDuration
	}
	if patch.Strategy != nil {
		updates["strategy"] = *patch.Strategy
	}
	if len(updates) == 0 {
		return nil, ErrNoFields
	}
	updates["updated_at"] = time.Now()

	res := s.db.WithContext(ctx).Model(&models.Round{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("store: patch round %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("store: round %s: %w", id, ErrNotFound)
	}
	return s.GetRound(ctx, id)
}

// DeleteRound removes a round and, by foreign-key cascade, its cycles.
func (s *Store) DeleteRound(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Explicit cycle delete as well: older databases were created
		// without the cascade constraint.
		if err := tx.Where("round_id = ?", id).Delete(&models.Cycle{}).Error; err != nil {
			return fmt.Errorf("store: delete cycles of round %s: %w", id, err)
		}
		res := tx.Delete(&models.Round{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("store: delete round %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("store: round %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// GetRound fetches one round with its cycles ordered by cycle number.
func (s *Store) GetRound(ctx context.Context, id string) (*models.Round, error) {
	var round models.Round
	err := s.db.WithContext(ctx).
		Preload("Cycles", func(db *gorm.DB) *gorm.DB {
			return db.Order("cycle_number ASC")
		}).
		First(&round, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("store: round %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get round %s: %w", id, err)
	}
	return &round, nil
}

// ListRounds returns rounds newest-first, each with its cycles in cycle-number
// order.
func (s *Store) ListRounds(ctx context.Context, filter RoundFilter) ([]models.Round, error) {
	q := s.db.WithContext(ctx).
		Preload("Cycles", func(db *gorm.DB) *gorm.DB {
			return db.Order("cycle_number ASC")
		}).
		Order("start_time DESC")
	if filter.StartDate != nil {
		q = q.Where("start_time >= ?", startOfDay(*filter.StartDate))
	}
	if filter.EndDate != nil {
		q = q.Where("start_time < ?", startOfDay(*filter.EndDate).AddDate(0, 0, 1))
	}

	var rounds []models.Round
	if err := q.Find(&rounds).Error; err != nil {
		return nil, fmt.Errorf("store: list rounds: %w", err)
	}
	return rounds, nil
}

// CreateCycleParams are the fields fixed when a cycle is confirmed.
type CreateCycleParams struct {
	RoundID      string
	CycleNumber  int
	Duration     int64
	Hits         int
	Misses       int
	Timestamp    int64
	TimeInterval match.Interval
	Zone         *models.Zone
	IsAutonomous bool
}

// CreateCycle inserts a confirmed cycle. The round must exist.
func (s *Store) CreateCycle(ctx context.Context, p CreateCycleParams) (*models.Cycle, error) {
	if p.RoundID == "" {
		return nil, fmt.Errorf("store: create cycle: roundId is required")
	}
	if p.Hits < 0 || p.Misses < 0 {
		return nil, fmt.Errorf("store: create cycle: hits and misses must be non-negative")
	}
	if p.Zone != nil && !p.Zone.Valid() {
		return nil, fmt.Errorf("store: create cycle: invalid zone %q", *p.Zone)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Round{}).Where("id = ?", p.RoundID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("store: create cycle: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("store: round %s: %w", p.RoundID, ErrNotFound)
	}

	cycle := models.Cycle{
		ID:           uuid.NewString(),
		RoundID:      p.RoundID,
		CycleNumber:  p.CycleNumber,
		Duration:     p.Duration,
		Hits:         p.Hits,
		Misses:       p.Misses,
		Timestamp:    p.Timestamp,
		TimeInterval: p.TimeInterval,
		Zone:         p.Zone,
		IsAutonomous: p.IsAutonomous,
	}
	if err := s.db.WithContext(ctx).Create(&cycle).Error; err != nil {
		return nil, fmt.Errorf("store: create cycle: %w", err)
	}
	return &cycle, nil
}

// CyclePatch carries the operator-editable cycle fields. ClearZone unsets the
// zone; Zone and ClearZone are mutually exclusive.
type CyclePatch struct {
	Hits      *int
	Misses    *int
	Zone      *models.Zone
	ClearZone bool
}

// PatchCycle updates hits, misses and zone of an existing cycle. Timing
// fields are immutable.
func (s *Store) PatchCycle(ctx context.Context, id string, patch CyclePatch) (*models.Cycle, error) {
	updates := map[string]interface{}{}
	if patch.Hits != nil {
		if *patch.Hits < 0 {
			return nil, fmt.Errorf("store: patch cycle: hits must be non-negative")
		}
		updates["hits"] = *patch.Hits
	}
	if patch.Misses != nil {
		if *patch.Misses < 0 {
			return nil, fmt.Errorf("store: patch cycle: misses must be non-negative")
		}
		updates["misses"] = *patch.Misses
	}
	if patch.Zone != nil {
		if !patch.Zone.Valid() {
			return nil, fmt.Errorf("store: patch cycle: invalid zone %q", *patch.Zone)
		}
		updates["zone"] = *patch.Zone
	} else if patch.ClearZone {
		updates["zone"] = nil
	}
	if len(updates) == 0 {
		return nil, ErrNoFields
	}

	res := s.db.WithContext(ctx).Model(&models.Cycle{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("store: patch cycle %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("store: cycle %s: %w", id, ErrNotFound)
	}

	var cycle models.Cycle
	if err := s.db.WithContext(ctx).First(&cycle, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("store: get cycle %s: %w", id, err)
	}
	return &cycle, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
