// Package session owns the in-progress round: its lifecycle state machine,
// the pending-cycle confirmation flow, and optimistic persistence. The
// session keeps timing locally authoritative: a failed write is logged and
// the clock keeps running.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feralforge/matchpractice/internal/clock"
	"github.com/feralforge/matchpractice/internal/match"
	"github.com/feralforge/matchpractice/internal/models"
	"github.com/feralforge/matchpractice/internal/stats"
	"github.com/feralforge/matchpractice/internal/store"
)

// State is the session lifecycle state.
type State string

// Cancel returns straight to idle, so the only states are idle, running and
// finished; finished requires a Reset before the next round.
const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
)

var (
	// ErrInvalidTransition is returned when an operation is called outside
	// the state it is valid in.
	ErrInvalidTransition = errors.New("session: invalid state transition")
	// ErrPendingCycle is returned when a mark arrives while an earlier mark
	// is still awaiting confirmation.
	ErrPendingCycle = errors.New("session: a cycle is pending confirmation")
	// ErrNoPendingCycle is returned when a confirmation arrives with no
	// pending mark.
	ErrNoPendingCycle = errors.New("session: no cycle pending confirmation")
	// ErrMarkInTransition is returned for marks during the transition
	// window; no cycle may open there.
	ErrMarkInTransition = errors.New("session: cannot mark a cycle during transition")
	// ErrDesynced is returned once the persisted round has gone missing
	// under the session; only Reset recovers.
	ErrDesynced = errors.New("session: local state desynced from store, reset required")
)

// LocalCycle is a cycle as the session holds it: the record plus whether the
// store acknowledged it. An unpersisted cycle stays visible locally.
type LocalCycle struct {
	models.Cycle
	Persisted bool
}

// PendingCycle is a mark awaiting operator confirmation. Duration and
// timestamp are frozen at mark time; hits, misses and zone arrive with the
// confirmation.
type PendingCycle struct {
	Duration     int64
	Timestamp    int64
	TimeInterval match.Interval
	IsAutonomous bool
}

// Battery is the optional battery annotation captured at round start.
type Battery struct {
	Name  string
	Volts float64
}

// Session drives one round at a time. Not safe for concurrent use: the tick
// loop and the operator input are expected to run on the same goroutine, as
// the CLI does.
type Session struct {
	store *store.Store
	clock clock.Clock
	log   *zap.Logger

	state        State
	round        *models.Round
	roundType    match.RoundType
	startWall    time.Time
	stopWall     *time.Time
	elapsedMs    int64
	lastCycleEnd int64
	tracker      *match.Tracker
	cycles       []LocalCycle
	pending      *PendingCycle
	observations string
	desynced     bool
}

// New returns an idle session.
func New(st *store.Store, c clock.Clock, log *zap.Logger) *Session {
	if c == nil {
		c = clock.System{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{store: st, clock: c, log: log, state: StateIdle}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Round returns the in-progress (or just-finished) round, nil when idle.
func (s *Session) Round() *models.Round { return s.round }

// Cycles returns the locally held cycles in mark order.
func (s *Session) Cycles() []LocalCycle { return s.cycles }

// Pending returns the mark awaiting confirmation, if any.
func (s *Session) Pending() *PendingCycle { return s.pending }

// ElapsedMs returns the elapsed time as of the last tick.
func (s *Session) ElapsedMs() int64 { return s.elapsedMs }

// Phase returns the phase as of the last tick.
func (s *Session) Phase() match.Phase {
	if s.tracker == nil {
		return match.PhaseTeleop
	}
	return s.tracker.Phase()
}

// RoundType returns the active round's type.
func (s *Session) RoundType() match.RoundType { return s.roundType }

// SetObservations replaces the free-text notes attached at finish time.
func (s *Session) SetObservations(text string) { s.observations = text }

// Start creates a round and begins timing. Valid only from idle. Unlike the
// in-round writes, a create failure here is not absorbed: without a round id
// nothing later can persist, so the session stays idle and reports the error.
func (s *Session) Start(ctx context.Context, rt match.RoundType, battery *Battery) error {
	if s.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}
	if !rt.Valid() {
		return fmt.Errorf("session: invalid round type %q", rt)
	}

	now := s.clock.Now()
	params := store.CreateRoundParams{StartTime: now, RoundType: rt}
	if battery != nil {
		params.BatteryName = &battery.Name
		params.BatteryVolts = &battery.Volts
	}
	round, err := s.store.CreateRound(ctx, params)
	if err != nil {
		return fmt.Errorf("session: start round: %w", err)
	}

	s.round = round
	s.roundType = rt
	s.startWall = now
	s.elapsedMs = 0
	s.lastCycleEnd = 0
	s.tracker = match.NewTracker(rt)
	s.cycles = nil
	s.pending = nil
	s.observations = ""
	s.desynced = false
	s.state = StateRunning

	s.log.Info("round started",
		zap.String("round_id", round.ID),
		zap.String("round_type", string(rt)))
	return nil
}

// Tick advances the elapsed time from the wall clock and returns any phase
// events crossed since the last tick. Boundary events that reset the cycle
// reference are applied here, anchored at the schedule boundary rather than
// the observed tick time.
func (s *Session) Tick() []match.Event {
	if s.state != StateRunning || s.stopWall != nil {
		return nil
	}
	s.elapsedMs = s.clock.Now().Sub(s.startWall).Milliseconds()
	events := s.tracker.Advance(s.elapsedMs)
	for _, ev := range events {
		if ev.Kind == match.EventCycleReset {
			s.lastCycleEnd = ev.BoundaryMs
			s.log.Debug("cycle reference reset",
				zap.String("phase", string(ev.Phase)),
				zap.Int64("boundary_ms", ev.BoundaryMs))
		}
	}
	return events
}

// MarkCycle freezes a pending cycle at the current elapsed time. Rejected
// while not running, during the transition window, and while an earlier mark
// awaits confirmation (the double-press guard).
func (s *Session) MarkCycle() (*PendingCycle, error) {
	if s.state != StateRunning {
		return nil, fmt.Errorf("%w: mark from %s", ErrInvalidTransition, s.state)
	}
	if s.stopWall != nil {
		return nil, fmt.Errorf("%w: mark after stop", ErrInvalidTransition)
	}
	if s.pending != nil {
		return nil, ErrPendingCycle
	}

	s.Tick()
	if s.Phase() == match.PhaseTransition {
		return nil, ErrMarkInTransition
	}

	fullMatch := s.roundType == match.FullMatch
	s.pending = &PendingCycle{
		Duration:     s.elapsedMs - s.lastCycleEnd,
		Timestamp:    s.elapsedMs,
		TimeInterval: match.IntervalFor(s.elapsedMs, fullMatch),
		IsAutonomous: match.IsAutonomous(s.elapsedMs, fullMatch),
	}
	return s.pending, nil
}

// CancelPending discards the mark awaiting confirmation.
func (s *Session) CancelPending() {
	s.pending = nil
}

// ConfirmCycle turns the pending mark into a cycle with operator-supplied
// counts and persists it. The local append succeeds even when the write
// fails; the cycle is then held with Persisted=false. A not-found from the
// store means the round was deleted underneath us, which is fatal to the
// session.
func (s *Session) ConfirmCycle(ctx context.Context, hits, misses int, zone *models.Zone) (*LocalCycle, error) {
	if s.state != StateRunning {
		return nil, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, s.state)
	}
	if s.desynced {
		return nil, ErrDesynced
	}
	if s.pending == nil {
		return nil, ErrNoPendingCycle
	}
	if hits < 0 || misses < 0 {
		return nil, fmt.Errorf("session: hits and misses must be non-negative")
	}

	pending := s.pending
	local := LocalCycle{
		Cycle: models.Cycle{
			RoundID:      s.round.ID,
			CycleNumber:  len(s.cycles) + 1,
			Duration:     pending.Duration,
			Hits:         hits,
			Misses:       misses,
			Timestamp:    pending.Timestamp,
			TimeInterval: pending.TimeInterval,
			Zone:         zone,
			IsAutonomous: pending.IsAutonomous,
		},
	}

	saved, err := s.store.CreateCycle(ctx, store.CreateCycleParams{
		RoundID:      local.RoundID,
		CycleNumber:  local.CycleNumber,
		Duration:     local.Duration,
		Hits:         hits,
		Misses:       misses,
		Timestamp:    local.Timestamp,
		TimeInterval: local.TimeInterval,
		Zone:         zone,
		IsAutonomous: local.IsAutonomous,
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.desynced = true
		s.log.Error("round missing during cycle save", zap.String("round_id", s.round.ID))
		return nil, fmt.Errorf("session: %w", ErrDesynced)
	case err != nil:
		s.log.Warn("cycle save failed, keeping local copy",
			zap.String("round_id", s.round.ID),
			zap.Int("cycle_number", local.CycleNumber),
			zap.Error(err))
	default:
		local.ID = saved.ID
		local.Persisted = true
	}

	s.cycles = append(s.cycles, local)
	s.lastCycleEnd = pending.Timestamp
	s.pending = nil
	return &s.cycles[len(s.cycles)-1], nil
}

// EditCycle updates hits, misses or zone of an already confirmed cycle.
// Timing fields never change.
func (s *Session) EditCycle(ctx context.Context, cycleNumber int, patch store.CyclePatch) error {
	if s.desynced {
		return ErrDesynced
	}
	idx := cycleNumber - 1
	if idx < 0 || idx >= len(s.cycles) {
		return fmt.Errorf("session: no cycle #%d", cycleNumber)
	}
	local := &s.cycles[idx]

	if patch.Hits != nil {
		local.Hits = *patch.Hits
	}
	if patch.Misses != nil {
		local.Misses = *patch.Misses
	}
	if patch.Zone != nil {
		local.Zone = patch.Zone
	} else if patch.ClearZone {
		local.Zone = nil
	}

	if !local.Persisted {
		// Never reached the store; the local copy is all there is.
		return nil
	}
	if _, err := s.store.PatchCycle(ctx, local.ID, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.desynced = true
			return fmt.Errorf("session: %w", ErrDesynced)
		}
		s.log.Warn("cycle edit not persisted",
			zap.String("cycle_id", local.ID),
			zap.Error(err))
	}
	return nil
}

// Stop freezes the clock at the current instant without ending the round.
// Ticks stop advancing and no further cycles can be marked; Finish then uses
// the stop instant as the end time, so anything the operator does between
// stop and finish (typing observations, confirming the last cycle) does not
// count toward the round.
func (s *Session) Stop() error {
	if s.state != StateRunning {
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, s.state)
	}
	if s.stopWall == nil {
		now := s.clock.Now()
		s.stopWall = &now
		s.elapsedMs = now.Sub(s.startWall).Milliseconds()
	}
	return nil
}

// Finish stops the round: strategy is classified over the confirmed cycles
// and the end time, total duration and observations are persisted. The local
// transition to finished happens even when the write fails.
func (s *Session) Finish(ctx context.Context) (*models.Round, error) {
	if s.state != StateRunning {
		return nil, fmt.Errorf("%w: finish from %s", ErrInvalidTransition, s.state)
	}

	now := s.clock.Now()
	if s.stopWall != nil {
		now = *s.stopWall
	}
	s.elapsedMs = now.Sub(s.startWall).Milliseconds()

	confirmed := make([]models.Cycle, len(s.cycles))
	for i, c := range s.cycles {
		confirmed[i] = c.Cycle
	}
	strategy := stats.ClassifyStrategy(confirmed)

	total := s.elapsedMs
	obs := s.observations
	patch := store.RoundPatch{
		EndTime:       &now,
		Observations:  &obs,
		TotalDuration: &total,
		Strategy:      strategy,
	}

	updated, err := s.store.PatchRound(ctx, s.round.ID, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.desynced = true
		s.state = StateFinished
		return nil, fmt.Errorf("session: finish: %w", ErrDesynced)
	case err != nil:
		s.log.Warn("finish not persisted, local state finalized anyway",
			zap.String("round_id", s.round.ID),
			zap.Error(err))
		s.round.EndTime = &now
		s.round.TotalDuration = &total
		s.round.Observations = obs
		s.round.Strategy = strategy
	default:
		s.round = updated
	}

	s.state = StateFinished
	s.log.Info("round finished",
		zap.String("round_id", s.round.ID),
		zap.Int64("total_duration_ms", total),
		zap.Int("cycles", len(s.cycles)))
	return s.round, nil
}

// Cancel discards the round and its cycles. The operator-facing confirmation
// prompt is the caller's job; by the time Cancel runs the decision is final.
// Local state moves on even when the delete fails.
func (s *Session) Cancel(ctx context.Context) error {
	if s.state != StateRunning {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, s.state)
	}

	if err := s.store.DeleteRound(ctx, s.round.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Warn("round delete failed during cancel",
			zap.String("round_id", s.round.ID),
			zap.Error(err))
	}

	s.log.Info("round cancelled", zap.String("round_id", s.round.ID))
	s.clear()
	return nil
}

// Reset returns to idle after a finished round or a desync.
func (s *Session) Reset() error {
	if s.state != StateFinished && !s.desynced {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, s.state)
	}
	s.clear()
	return nil
}

// Desynced reports whether the persisted round has gone missing under the
// session.
func (s *Session) Desynced() bool { return s.desynced }

func (s *Session) clear() {
	s.state = StateIdle
	s.round = nil
	s.roundType = ""
	s.stopWall = nil
	s.elapsedMs = 0
	s.lastCycleEnd = 0
	s.tracker = nil
	s.cycles = nil
	s.pending = nil
	s.observations = ""
	s.desynced = false
}
