package mqtt

import (
	"sync"
	"testing"

	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/journey"
)

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

// fakeEngine records calls made by the input handlers.
type fakeEngine struct {
	mu         sync.Mutex
	triggered  []*journey.Accomplishment
	triggerErr error
	arrivals   []string
	scrolls    []float64
	closeAcks  int
}

func (f *fakeEngine) Trigger(batch *journey.Accomplishment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggered = append(f.triggered, batch)
	return nil
}

func (f *fakeEngine) ReportArrival(goalID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.arrivals = append(f.arrivals, goalID)
}

func (f *fakeEngine) HandleScroll(position float64, direction int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolls = append(f.scrolls, position)
}

func (f *fakeEngine) AcknowledgeClose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeAcks++
}

func newTestSubscriber(engine *fakeEngine) (*InputSubscriber, *Monitor) {
	registry := NewRendererRegistry()
	monitor := NewMonitor(registry, 2.0)
	// No client needed: handlers are driven directly.
	return NewInputSubscriber(nil, engine, monitor, "journey-main"), monitor
}

func hasEvent(name string) bool {
	for _, e := range events.Snapshot() {
		if e.Name == name {
			return true
		}
	}
	return false
}

func TestTopicNaming(t *testing.T) {
	s, _ := newTestSubscriber(&fakeEngine{})
	if got := s.Topic("arrival"); got != "journey/journey-main/arrival" {
		t.Errorf("unexpected topic: %s", got)
	}
}

func TestHandleAccomplishment(t *testing.T) {
	events.Clear()
	engine := &fakeEngine{}
	s, _ := newTestSubscriber(engine)

	s.handleAccomplishment(nil, &mockMessage{
		topic: s.Topic("accomplishment"),
		payload: []byte(`{
			"id": "b1",
			"title": "5k run",
			"contributions": [{"goal_id": "fitness", "magnitude": 8}]
		}`),
	})

	if len(engine.triggered) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(engine.triggered))
	}
	if engine.triggered[0].Title != "5k run" {
		t.Errorf("unexpected batch: %+v", engine.triggered[0])
	}
}

func TestHandleAccomplishmentWhileBusy(t *testing.T) {
	events.Clear()
	engine := &fakeEngine{triggerErr: journey.ErrBusy}
	s, _ := newTestSubscriber(engine)

	s.handleAccomplishment(nil, &mockMessage{
		topic:   s.Topic("accomplishment"),
		payload: []byte(`{"id": "b2", "title": "x", "contributions": []}`),
	})

	if !hasEvent("cutscene.rejected") {
		t.Error("expected cutscene.rejected event for busy trigger")
	}
}

func TestHandleAccomplishmentBadJSON(t *testing.T) {
	events.Clear()
	engine := &fakeEngine{}
	s, _ := newTestSubscriber(engine)

	s.handleAccomplishment(nil, &mockMessage{
		topic:   s.Topic("accomplishment"),
		payload: []byte(`{broken`),
	})

	if len(engine.triggered) != 0 {
		t.Error("bad payload must not reach the engine")
	}
	if !hasEvent("renderer.error") {
		t.Error("expected renderer.error diagnostic")
	}
}

func TestHandleArrival(t *testing.T) {
	events.Clear()
	engine := &fakeEngine{}
	s, _ := newTestSubscriber(engine)

	s.handleArrival(nil, &mockMessage{
		topic:   s.Topic("arrival"),
		payload: []byte(`{"goal_id": "fitness"}`),
	})
	if len(engine.arrivals) != 1 || engine.arrivals[0] != "fitness" {
		t.Errorf("unexpected arrivals: %v", engine.arrivals)
	}

	// Missing goal_id is a diagnostic, not a call
	s.handleArrival(nil, &mockMessage{
		topic:   s.Topic("arrival"),
		payload: []byte(`{}`),
	})
	if len(engine.arrivals) != 1 {
		t.Error("arrival without goal_id reached the engine")
	}
	if !hasEvent("renderer.error") {
		t.Error("expected renderer.error diagnostic")
	}
}

func TestHandleScrollAndClose(t *testing.T) {
	events.Clear()
	engine := &fakeEngine{}
	s, _ := newTestSubscriber(engine)

	s.handleScroll(nil, &mockMessage{
		topic:   s.Topic("scroll"),
		payload: []byte(`{"position": 2.4, "direction": 1}`),
	})
	if len(engine.scrolls) != 1 || engine.scrolls[0] != 2.4 {
		t.Errorf("unexpected scrolls: %v", engine.scrolls)
	}

	s.handleClose(nil, &mockMessage{topic: s.Topic("close"), payload: []byte(`{}`)})
	if engine.closeAcks != 1 {
		t.Errorf("expected 1 close ack, got %d", engine.closeAcks)
	}
}

func TestHandleRegisterAndHeartbeat(t *testing.T) {
	events.Clear()
	engine := &fakeEngine{}
	s, monitor := newTestSubscriber(engine)

	s.handleRegister(nil, &mockMessage{
		topic:   s.Topic("register"),
		payload: validRegistrationJSON(),
	})
	if monitor.GetRendererState("wall-display") == nil {
		t.Fatal("expected registration to reach the monitor")
	}

	s.handleHeartbeat(nil, &mockMessage{
		topic:   s.Topic("heartbeat"),
		payload: []byte(`{"renderer_id": "wall-display"}`),
	})
	state := monitor.GetRendererState("wall-display")
	if state == nil || !state.Connected {
		t.Error("expected heartbeat to keep the renderer connected")
	}
}
