package journey

import (
	"testing"
	"time"

	"github.com/moonpath/journey/internal/events"
)

func newTestPulses() (*PulseRegistry, *manualScheduler) {
	sched := newManualScheduler()
	return NewPulseRegistry(sched, 900*time.Millisecond), sched
}

func TestPulseClearsItself(t *testing.T) {
	events.Clear()
	p, sched := newTestPulses()

	p.Trigger("fitness")
	if !p.Active("fitness") {
		t.Fatal("expected pulse active after trigger")
	}

	sched.fireAll()
	if p.Active("fitness") {
		t.Error("expected pulse cleared after its window")
	}
}

func TestRetriggerRestartsWindow(t *testing.T) {
	events.Clear()
	p, sched := newTestPulses()

	p.Trigger("fitness")
	p.Trigger("fitness")

	// The first window's clear was canceled; only the second remains.
	if sched.pendingCount() != 1 {
		t.Fatalf("expected 1 pending clear, got %d", sched.pendingCount())
	}

	if !sched.fire() {
		t.Fatal("expected a pending clear")
	}
	if p.Active("fitness") {
		t.Error("expected pulse cleared after the restarted window")
	}
}

func TestStaleClearIsNoOp(t *testing.T) {
	events.Clear()
	sched := newLeakyScheduler()
	p := NewPulseRegistry(sched, 900*time.Millisecond)

	p.Trigger("fitness")
	p.Trigger("fitness")

	// On this scheduler the first clear could not be canceled. Firing it
	// must not clear the restarted pulse.
	if !sched.fire() {
		t.Fatal("expected the stale clear to be pending")
	}
	if !p.Active("fitness") {
		t.Error("stale clear dropped a restarted pulse")
	}

	if !sched.fire() {
		t.Fatal("expected the live clear to be pending")
	}
	if p.Active("fitness") {
		t.Error("expected pulse cleared by its own window")
	}
}

func TestPulsesAreIndependent(t *testing.T) {
	events.Clear()
	p, sched := newTestPulses()

	p.Trigger("fitness")
	p.Trigger("reading")

	snap := p.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 pulsing goals, got %d", len(snap))
	}
	if snap[0] != "fitness" || snap[1] != "reading" {
		t.Errorf("unexpected snapshot order: %v", snap)
	}

	// Clearing one leaves the other alone
	if !sched.fire() {
		t.Fatal("expected a pending clear")
	}
	if p.Active("fitness") {
		t.Error("expected fitness cleared first")
	}
	if !p.Active("reading") {
		t.Error("clearing fitness dropped reading")
	}
}
