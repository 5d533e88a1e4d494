package match

import "testing"

func TestTracker_FullMatchSequence(t *testing.T) {
	tr := NewTracker(FullMatch)

	if tr.Phase() != PhaseAuto {
		t.Fatalf("initial phase = %q, want auto", tr.Phase())
	}

	// Ticks inside auto produce nothing.
	for _, ms := range []int64{10, 15000, 29999} {
		if evs := tr.Advance(ms); len(evs) != 0 {
			t.Fatalf("Advance(%d) = %v, want no events", ms, evs)
		}
	}

	// Crossing into transition fires a single cycle reset at 30000.
	evs := tr.Advance(30004)
	if len(evs) != 1 {
		t.Fatalf("transition entry: got %d events, want 1", len(evs))
	}
	if evs[0].Kind != EventCycleReset || evs[0].Phase != PhaseTransition || evs[0].BoundaryMs != 30000 {
		t.Errorf("transition entry event = %+v", evs[0])
	}

	// Crossing into teleop fires another reset anchored at the boundary.
	evs = tr.Advance(38010)
	if len(evs) != 1 || evs[0].Kind != EventCycleReset || evs[0].Phase != PhaseTeleop || evs[0].BoundaryMs != 38000 {
		t.Fatalf("teleop entry events = %+v", evs)
	}

	// No re-fire on later ticks in the same phase.
	if evs := tr.Advance(100000); len(evs) != 0 {
		t.Fatalf("mid-teleop tick produced events: %v", evs)
	}

	// Overtime entry is the end-of-match signal.
	evs = tr.Advance(158000)
	if len(evs) != 1 || evs[0].Kind != EventEndOfMatch || evs[0].Phase != PhaseOvertime {
		t.Fatalf("overtime entry events = %+v", evs)
	}
	if evs := tr.Advance(170000); len(evs) != 0 {
		t.Fatalf("post-overtime tick produced events: %v", evs)
	}
}

func TestTracker_StalledTickReportsEachBoundary(t *testing.T) {
	tr := NewTracker(FullMatch)

	// A single late tick that jumps from auto straight to teleop must still
	// report both resets, in schedule order.
	evs := tr.Advance(40000)
	if len(evs) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(evs), evs)
	}
	if evs[0].Phase != PhaseTransition || evs[0].BoundaryMs != 30000 {
		t.Errorf("first event = %+v, want transition@30000", evs[0])
	}
	if evs[1].Phase != PhaseTeleop || evs[1].BoundaryMs != 38000 {
		t.Errorf("second event = %+v, want teleop@38000", evs[1])
	}
}

func TestTracker_TeleopOnly(t *testing.T) {
	tr := NewTracker(TeleopOnly)

	if tr.Phase() != PhaseTeleop {
		t.Fatalf("initial phase = %q, want teleop", tr.Phase())
	}
	if evs := tr.Advance(60000); len(evs) != 0 {
		t.Fatalf("mid-round tick produced events: %v", evs)
	}

	evs := tr.Advance(120010)
	if len(evs) != 1 || evs[0].Kind != EventEndOfMatch || evs[0].BoundaryMs != 120000 {
		t.Fatalf("overtime entry events = %+v", evs)
	}
	if tr.Phase() != PhaseOvertime {
		t.Errorf("phase after overtime = %q", tr.Phase())
	}
}
