package match

// EventKind describes what a phase transition means for the session.
type EventKind string

const (
	// EventCycleReset marks boundaries that reset the cycle-duration
	// reference (entering transition, entering teleop from transition).
	EventCycleReset EventKind = "cycle_reset"
	// EventEndOfMatch marks entry into overtime. The clock keeps running;
	// the operator still has to finish explicitly.
	EventEndOfMatch EventKind = "end_of_match"
)

// Event is an edge-triggered phase transition.
type Event struct {
	Kind EventKind
	// Phase is the phase being entered.
	Phase Phase
	// BoundaryMs is the schedule offset of the boundary that was crossed,
	// not the elapsed time the tick observed it at. Cycle resets use this
	// so a late tick does not skew the reset point.
	BoundaryMs int64
}

// Tracker edge-detects phase transitions across ticks. It is not safe for
// concurrent use; the session owns one and drives it from its tick loop.
type Tracker struct {
	roundType RoundType
	prev      Phase
}

// NewTracker returns a tracker positioned at elapsed 0.
func NewTracker(rt RoundType) *Tracker {
	return &Tracker{roundType: rt, prev: PhaseAt(0, rt)}
}

// Phase returns the phase as of the last Advance call.
func (t *Tracker) Phase() Phase {
	return t.prev
}

// Advance recomputes the phase for the new elapsed time and returns one event
// per boundary crossed since the previous call, in schedule order. Ticks are
// cheap and frequent, so normally at most one boundary is crossed; a stalled
// tick that jumps several boundaries still reports each of them.
func (t *Tracker) Advance(elapsedMs int64) []Event {
	next := PhaseAt(elapsedMs, t.roundType)
	if next == t.prev {
		return nil
	}

	var events []Event
	for _, b := range t.boundaries() {
		if phaseRank(t.prev) < phaseRank(b.phase) && phaseRank(b.phase) <= phaseRank(next) {
			events = append(events, Event{Kind: b.kind, Phase: b.phase, BoundaryMs: b.at})
		}
	}
	t.prev = next
	return events
}

type boundary struct {
	phase Phase
	at    int64
	kind  EventKind
}

func (t *Tracker) boundaries() []boundary {
	if t.roundType == FullMatch {
		return []boundary{
			{PhaseTransition, AutoDuration, EventCycleReset},
			{PhaseTeleop, AutoDuration + TransitionDuration, EventCycleReset},
			{PhaseOvertime, FullMatchDuration, EventEndOfMatch},
		}
	}
	return []boundary{
		{PhaseOvertime, TeleopDuration, EventEndOfMatch},
	}
}

func phaseRank(p Phase) int {
	switch p {
	case PhaseAuto:
		return 0
	case PhaseTransition:
		return 1
	case PhaseTeleop:
		return 2
	default:
		return 3
	}
}
