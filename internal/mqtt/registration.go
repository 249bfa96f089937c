package mqtt

import (
	"encoding/json"
	"fmt"
)

// RegistrationPayload represents a v1 renderer registration message.
// Renderers announce themselves once on connect and keep heartbeating on the
// same topic so the monitor can track liveness.
type RegistrationPayload struct {
	Version  int          `json:"version"`
	Renderer RendererInfo `json:"renderer"`
	Topics   CueTopics    `json:"topics"`
}

// RendererInfo contains renderer metadata.
type RendererInfo struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"` // e.g. "web", "kiosk"
	Agent        string `json:"agent,omitempty"`
	HeartbeatSec int    `json:"heartbeat_sec"`
}

// CueTopics defines the MQTT topics the renderer listens and publishes on.
type CueTopics struct {
	Cue   string `json:"cue"`   // engine publishes phase cues here
	Input string `json:"input"` // renderer publishes arrival/scroll input here
}

// ParseRegistration parses a registration payload from JSON bytes.
func ParseRegistration(data []byte) (*RegistrationPayload, error) {
	var payload RegistrationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid registration JSON: %w", err)
	}

	if payload.Version != 1 {
		return nil, fmt.Errorf("unsupported registration version: %d", payload.Version)
	}

	if payload.Renderer.ID == "" {
		return nil, fmt.Errorf("renderer.id is required")
	}

	return &payload, nil
}

// ValidationResult contains validation outcome.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// ValidateRegistration checks a parsed registration for usable topics and a
// sane heartbeat. A renderer without a cue topic is accepted with a warning:
// it can still drive input but receives no cues.
func ValidateRegistration(payload *RegistrationPayload) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if payload.Renderer.Kind == "" {
		result.Errors = append(result.Errors, "renderer.kind is required")
		result.Valid = false
	}

	if payload.Renderer.HeartbeatSec <= 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("renderer %s: heartbeat_sec must be positive", payload.Renderer.ID))
		result.Valid = false
	}

	if payload.Topics.Cue == "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("renderer %s: no cue topic, cues will not be delivered", payload.Renderer.ID))
	}

	return result
}
