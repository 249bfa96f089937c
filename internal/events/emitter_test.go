package events

import (
	"encoding/json"
	"testing"
)

func TestEmitValidatesEventName(t *testing.T) {
	if _, err := Emit("info", "made.up.event", "", nil); err == nil {
		t.Error("expected unknown event name to be rejected")
	}

	if _, err := Emit("info", "goal.updated", "", map[string]interface{}{"goal_id": "fitness"}); err != nil {
		t.Errorf("expected registered event to emit, got %v", err)
	}
}

func TestEmitReturnsMarshaledEvent(t *testing.T) {
	b, err := Emit("info", "cutscene.phase", "", map[string]interface{}{"phase": "announcing"})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}

	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("emit returned invalid JSON: %v", err)
	}
	if e.Name != "cutscene.phase" {
		t.Errorf("expected cutscene.phase, got %s", e.Name)
	}
	if e.Fields["phase"] != "announcing" {
		t.Errorf("expected phase field, got %v", e.Fields)
	}
}

func TestSnapshotAndTotalCount(t *testing.T) {
	Clear()
	before := TotalCount()

	for i := 0; i < 3; i++ {
		Emit("info", "pulse.cleared", "", map[string]interface{}{"goal_id": "fitness"})
	}

	if len(Snapshot()) != 3 {
		t.Errorf("expected 3 buffered events, got %d", len(Snapshot()))
	}
	if TotalCount() != before+3 {
		t.Errorf("expected total %d, got %d", before+3, TotalCount())
	}

	// Clear drops the buffer but not the lifetime counter
	Clear()
	if len(Snapshot()) != 0 {
		t.Error("expected empty buffer after clear")
	}
	if TotalCount() != before+3 {
		t.Errorf("expected total unchanged by clear, got %d", TotalCount())
	}
}

func TestRingBufferWrapsAround(t *testing.T) {
	rb := NewRingBuffer(4)
	for i := 0; i < 6; i++ {
		rb.Add(Event{Name: "goal.updated", Fields: map[string]interface{}{"i": i}})
	}

	snap := rb.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events after wrap, got %d", len(snap))
	}
	if snap[0].Fields["i"] != 2 {
		t.Errorf("expected oldest surviving event i=2, got %v", snap[0].Fields["i"])
	}
	if snap[3].Fields["i"] != 5 {
		t.Errorf("expected newest event i=5, got %v", snap[3].Fields["i"])
	}
	if rb.Total() != 6 {
		t.Errorf("expected total 6, got %d", rb.Total())
	}
}
