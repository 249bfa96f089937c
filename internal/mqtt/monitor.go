package mqtt

import (
	"sync"
	"time"

	"github.com/moonpath/journey/internal/events"
)

// RendererState tracks a registered renderer's health.
type RendererState struct {
	RendererID   string
	Kind         string
	LastSeen     time.Time
	HeartbeatSec int
	Connected    bool
}

// Monitor tracks renderer registration and health.
type Monitor struct {
	mu        sync.RWMutex
	renderers map[string]*RendererState
	registry  *RendererRegistry
	tolerance float64 // multiplier for heartbeat interval (e.g., 2.0 = 2x heartbeat)
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewMonitor creates a new renderer monitor.
// tolerance is the multiplier for heartbeat interval before considering disconnected.
func NewMonitor(registry *RendererRegistry, tolerance float64) *Monitor {
	if tolerance <= 1.0 {
		tolerance = 2.0 // default: miss 1 heartbeat
	}
	return &Monitor{
		renderers: make(map[string]*RendererState),
		registry:  registry,
		tolerance: tolerance,
		stopCh:    make(chan struct{}),
	}
}

// HandleRegistration processes a registration payload.
// Returns validation result and emits appropriate events.
func (m *Monitor) HandleRegistration(payload *RegistrationPayload) *ValidationResult {
	result := ValidateRegistration(payload)

	m.mu.Lock()
	defer m.mu.Unlock()

	id := payload.Renderer.ID
	now := time.Now()

	existing, known := m.renderers[id]
	isReconnect := known && existing != nil && !existing.Connected

	if result.Valid {
		m.renderers[id] = &RendererState{
			RendererID:   id,
			Kind:         payload.Renderer.Kind,
			LastSeen:     now,
			HeartbeatSec: payload.Renderer.HeartbeatSec,
			Connected:    true,
		}
		m.registry.RegisterFromPayload(payload)

		events.Emit("info", "renderer.connected", "", map[string]interface{}{
			"renderer_id": id,
			"kind":        payload.Renderer.Kind,
			"reconnect":   isReconnect,
		})
	} else {
		events.Emit("error", "renderer.error", "registration validation failed", map[string]interface{}{
			"renderer_id": id,
			"errors":      result.Errors,
		})
	}

	return result
}

// Heartbeat refreshes the last-seen timestamp for a renderer.
func (m *Monitor) Heartbeat(rendererID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.renderers[rendererID]; ok {
		state.LastSeen = time.Now()
		if !state.Connected {
			state.Connected = true
			events.Emit("info", "renderer.connected", "", map[string]interface{}{
				"renderer_id": rendererID,
				"kind":        state.Kind,
				"reconnect":   true,
			})
		}
	}
}

// Start begins the background health check loop.
func (m *Monitor) Start(checkInterval time.Duration) {
	m.wg.Add(1)
	go m.healthCheckLoop(checkInterval)
}

// Stop stops the background health check loop.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) healthCheckLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.checkHealth()
		}
	}
}

func (m *Monitor) checkHealth() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	for id, state := range m.renderers {
		if !state.Connected {
			continue
		}

		// Timeout is heartbeat * tolerance
		timeout := time.Duration(float64(state.HeartbeatSec)*m.tolerance) * time.Second
		if now.Sub(state.LastSeen) > timeout {
			state.Connected = false

			events.Emit("warning", "renderer.disconnected", "heartbeat timeout", map[string]interface{}{
				"renderer_id": id,
				"last_seen":   state.LastSeen.Format(time.RFC3339),
				"timeout_sec": timeout.Seconds(),
			})
		}
	}
}

// GetRendererState returns the state of a renderer (for testing/inspection).
func (m *Monitor) GetRendererState(rendererID string) *RendererState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if state, ok := m.renderers[rendererID]; ok {
		cpy := *state
		return &cpy
	}
	return nil
}

// ConnectedRenderers returns a list of currently connected renderer IDs.
func (m *Monitor) ConnectedRenderers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, state := range m.renderers {
		if state.Connected {
			ids = append(ids, id)
		}
	}
	return ids
}
