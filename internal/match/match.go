// Package match holds the pure timing rules for a practice round: phase
// derivation, countdown display, and time-interval classification. Everything
// here is arithmetic over elapsed milliseconds; nothing touches a clock or
// the database.
package match

import "fmt"

// Phase durations in milliseconds.
const (
	AutoDuration       int64 = 30000
	TransitionDuration int64 = 8000
	TeleopDuration     int64 = 120000
	FullMatchDuration        = AutoDuration + TransitionDuration + TeleopDuration
)

// RoundType selects the phase schedule for a round.
type RoundType string

const (
	TeleopOnly RoundType = "teleop_only"
	FullMatch  RoundType = "full_match"
)

// Valid reports whether rt is a known round type.
func (rt RoundType) Valid() bool {
	return rt == TeleopOnly || rt == FullMatch
}

// Duration returns the scheduled length of a round of this type in
// milliseconds.
func (rt RoundType) Duration() int64 {
	if rt == FullMatch {
		return FullMatchDuration
	}
	return TeleopDuration
}

// Phase is the current segment of a running round.
type Phase string

const (
	PhaseAuto       Phase = "auto"
	PhaseTransition Phase = "transition"
	PhaseTeleop     Phase = "teleop"
	PhaseOvertime   Phase = "overtime"
)

// PhaseAt derives the phase from elapsed time. It is monotonic: as elapsed
// grows the phase only ever moves forward through the schedule. Teleop-only
// rounds skip straight to teleop and go to overtime at TeleopDuration.
func PhaseAt(elapsedMs int64, rt RoundType) Phase {
	if rt != FullMatch {
		if elapsedMs >= TeleopDuration {
			return PhaseOvertime
		}
		return PhaseTeleop
	}
	switch {
	case elapsedMs < AutoDuration:
		return PhaseAuto
	case elapsedMs < AutoDuration+TransitionDuration:
		return PhaseTransition
	case elapsedMs < FullMatchDuration:
		return PhaseTeleop
	default:
		return PhaseOvertime
	}
}

// Interval is the coarse time bucket a cycle falls into, used by the
// per-interval statistics breakdown.
type Interval string

const (
	IntervalAuto       Interval = "auto"
	IntervalTransition Interval = "transition"
	Interval0to30      Interval = "0-30s"
	Interval30to60     Interval = "30-60s"
	Interval60to90     Interval = "60-90s"
	Interval90to120    Interval = "90-120s"
)

// TeleopIntervals lists the four canonical teleop buckets in order. Cycles
// tagged auto or transition do not appear in the interval breakdown.
var TeleopIntervals = []Interval{Interval0to30, Interval30to60, Interval60to90, Interval90to120}

// IntervalFor classifies a cycle timestamp. For full-match rounds the first
// 30s map to "auto" and the next 8s to "transition"; the teleop buckets are
// then measured from the teleop start. Boundary values belong to the higher
// bucket (30000 is transition, 38000 is 0-30s).
func IntervalFor(timestampMs int64, fullMatch bool) Interval {
	teleopTime := timestampMs
	if fullMatch {
		if timestampMs < AutoDuration {
			return IntervalAuto
		}
		if timestampMs < AutoDuration+TransitionDuration {
			return IntervalTransition
		}
		teleopTime = timestampMs - (AutoDuration + TransitionDuration)
	}
	switch {
	case teleopTime < 30000:
		return Interval0to30
	case teleopTime < 60000:
		return Interval30to60
	case teleopTime < 90000:
		return Interval60to90
	default:
		return Interval90to120
	}
}

// IsAutonomous reports whether a cycle marked at timestampMs belongs to the
// autonomous phase. Always false for teleop-only rounds.
func IsAutonomous(timestampMs int64, fullMatch bool) bool {
	return fullMatch && timestampMs < AutoDuration
}

// DisplayTime returns the operator-facing countdown value for the elapsed
// time, and whether the round is in overtime (rendered with a leading "+").
// During auto it counts down from AutoDuration, during transition it holds at
// TeleopDuration, during teleop it counts down the teleop window, and in
// overtime it counts up from zero.
func DisplayTime(elapsedMs int64, rt RoundType) (ms int64, overtime bool) {
	switch PhaseAt(elapsedMs, rt) {
	case PhaseAuto:
		return AutoDuration - elapsedMs, false
	case PhaseTransition:
		return TeleopDuration, false
	case PhaseTeleop:
		if rt == FullMatch {
			return TeleopDuration - (elapsedMs - AutoDuration - TransitionDuration), false
		}
		return TeleopDuration - elapsedMs, false
	default:
		return elapsedMs - rt.Duration(), true
	}
}

// FormatDisplay renders a countdown value as M:SS.cc, with a "+" prefix in
// overtime.
func FormatDisplay(ms int64, overtime bool) string {
	if ms < 0 {
		ms = 0
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	cents := (ms % 1000) / 10
	s := fmt.Sprintf("%d:%02d.%02d", mins, secs, cents)
	if overtime {
		return "+" + s
	}
	return s
}
