package mqtt

import (
	"fmt"
	"sync"
)

// RegisteredRenderer holds runtime information about a registered renderer.
type RegisteredRenderer struct {
	ID         string
	Kind       string
	Agent      string
	CueTopic   string
	InputTopic string
}

// RendererRegistry maintains a mapping of renderer IDs to their MQTT topics
// and metadata.
type RendererRegistry struct {
	mu        sync.RWMutex
	renderers map[string]*RegisteredRenderer
}

// NewRendererRegistry creates a new empty renderer registry.
func NewRendererRegistry() *RendererRegistry {
	return &RendererRegistry{
		renderers: make(map[string]*RegisteredRenderer),
	}
}

// Register adds or updates a renderer in the registry.
func (r *RendererRegistry) Register(rend *RegisteredRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[rend.ID] = rend
}

// RegisterFromPayload registers a renderer from a registration payload.
func (r *RendererRegistry) RegisterFromPayload(payload *RegistrationPayload) {
	r.Register(&RegisteredRenderer{
		ID:         payload.Renderer.ID,
		Kind:       payload.Renderer.Kind,
		Agent:      payload.Renderer.Agent,
		CueTopic:   payload.Topics.Cue,
		InputTopic: payload.Topics.Input,
	})
}

// Unregister removes a renderer from the registry.
func (r *RendererRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.renderers, id)
}

// Get returns a renderer by ID, or nil if not found.
func (r *RendererRegistry) Get(id string) *RegisteredRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rend, ok := r.renderers[id]; ok {
		cpy := *rend
		return &cpy
	}
	return nil
}

// Exists returns true if the renderer is registered.
func (r *RendererRegistry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.renderers[id]
	return ok
}

// CueTopic returns the cue topic for a renderer, or empty string if not found.
func (r *RendererRegistry) CueTopic(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rend, ok := r.renderers[id]; ok {
		return rend.CueTopic
	}
	return ""
}

// ValidateCue validates that a renderer exists and can receive cues.
func (r *RendererRegistry) ValidateCue(id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rend, ok := r.renderers[id]
	if !ok {
		return fmt.Errorf("renderer not registered: %s", id)
	}
	if rend.CueTopic == "" {
		return fmt.Errorf("renderer %s has no cue topic", id)
	}
	return nil
}

// All returns a copy of all registered renderers.
func (r *RendererRegistry) All() []*RegisteredRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*RegisteredRenderer, 0, len(r.renderers))
	for _, rend := range r.renderers {
		cpy := *rend
		result = append(result, &cpy)
	}
	return result
}

// Clear removes all renderers from the registry.
func (r *RendererRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers = make(map[string]*RegisteredRenderer)
}
