package mqtt

import (
	"testing"
	"time"

	"github.com/moonpath/journey/internal/events"
)

func registeredPayload(id string, heartbeatSec int) *RegistrationPayload {
	return &RegistrationPayload{
		Version: 1,
		Renderer: RendererInfo{
			ID:           id,
			Kind:         "web",
			HeartbeatSec: heartbeatSec,
		},
		Topics: CueTopics{
			Cue:   "renderers/" + id + "/cues",
			Input: "renderers/" + id + "/input",
		},
	}
}

func TestMonitorHandleRegistration(t *testing.T) {
	events.Clear()
	registry := NewRendererRegistry()
	m := NewMonitor(registry, 2.0)

	result := m.HandleRegistration(registeredPayload("wall", 10))
	if !result.Valid {
		t.Fatalf("expected valid registration, errors: %v", result.Errors)
	}

	state := m.GetRendererState("wall")
	if state == nil || !state.Connected {
		t.Fatalf("expected wall connected, got %+v", state)
	}
	if !registry.Exists("wall") {
		t.Error("expected registration to populate the registry")
	}

	connected := m.ConnectedRenderers()
	if len(connected) != 1 || connected[0] != "wall" {
		t.Errorf("unexpected connected list: %v", connected)
	}
}

func TestMonitorRejectsInvalidRegistration(t *testing.T) {
	events.Clear()
	registry := NewRendererRegistry()
	m := NewMonitor(registry, 2.0)

	bad := &RegistrationPayload{
		Version:  1,
		Renderer: RendererInfo{ID: "broken"},
	}
	result := m.HandleRegistration(bad)
	if result.Valid {
		t.Fatal("expected invalid registration")
	}
	if m.GetRendererState("broken") != nil {
		t.Error("invalid registration should not be tracked")
	}
	if registry.Exists("broken") {
		t.Error("invalid registration should not populate the registry")
	}
}

func TestMonitorHeartbeatTimeout(t *testing.T) {
	events.Clear()
	registry := NewRendererRegistry()
	m := NewMonitor(registry, 2.0)

	m.HandleRegistration(registeredPayload("wall", 10))

	// Backdate the last heartbeat past the tolerance window
	m.mu.Lock()
	m.renderers["wall"].LastSeen = time.Now().Add(-30 * time.Second)
	m.mu.Unlock()

	m.checkHealth()

	state := m.GetRendererState("wall")
	if state == nil || state.Connected {
		t.Fatalf("expected wall disconnected after timeout, got %+v", state)
	}

	// A fresh heartbeat reconnects it
	m.Heartbeat("wall")
	state = m.GetRendererState("wall")
	if state == nil || !state.Connected {
		t.Fatalf("expected wall reconnected after heartbeat, got %+v", state)
	}
}

func TestMonitorHeartbeatWithinWindow(t *testing.T) {
	events.Clear()
	registry := NewRendererRegistry()
	m := NewMonitor(registry, 2.0)

	m.HandleRegistration(registeredPayload("wall", 10))
	m.Heartbeat("wall")
	m.checkHealth()

	state := m.GetRendererState("wall")
	if state == nil || !state.Connected {
		t.Fatalf("expected wall still connected, got %+v", state)
	}

	// Heartbeats for unknown renderers are ignored
	m.Heartbeat("ghost")
	if m.GetRendererState("ghost") != nil {
		t.Error("heartbeat for unknown renderer created state")
	}
}
