package mqtt

import (
	"testing"
)

func validRegistrationJSON() []byte {
	return []byte(`{
		"version": 1,
		"renderer": {
			"id": "wall-display",
			"kind": "web",
			"agent": "journey-web/1.0",
			"heartbeat_sec": 10
		},
		"topics": {
			"cue": "renderers/wall-display/cues",
			"input": "renderers/wall-display/input"
		}
	}`)
}

func TestParseRegistration(t *testing.T) {
	payload, err := ParseRegistration(validRegistrationJSON())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if payload.Renderer.ID != "wall-display" {
		t.Errorf("unexpected renderer id: %s", payload.Renderer.ID)
	}
	if payload.Renderer.HeartbeatSec != 10 {
		t.Errorf("unexpected heartbeat: %d", payload.Renderer.HeartbeatSec)
	}
	if payload.Topics.Cue != "renderers/wall-display/cues" {
		t.Errorf("unexpected cue topic: %s", payload.Topics.Cue)
	}
}

func TestParseRegistrationRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"invalid json", `{not json`},
		{"wrong version", `{"version": 2, "renderer": {"id": "x"}}`},
		{"missing id", `{"version": 1, "renderer": {"kind": "web"}}`},
	}

	for _, tc := range cases {
		if _, err := ParseRegistration([]byte(tc.data)); err == nil {
			t.Errorf("%s: expected parse to fail", tc.name)
		}
	}
}

func TestValidateRegistration(t *testing.T) {
	payload, err := ParseRegistration(validRegistrationJSON())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	result := ValidateRegistration(payload)
	if !result.Valid {
		t.Errorf("expected valid registration, errors: %v", result.Errors)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}
}

func TestValidateRegistrationRequiresKindAndHeartbeat(t *testing.T) {
	payload := &RegistrationPayload{
		Version: 1,
		Renderer: RendererInfo{
			ID: "bare",
		},
	}

	result := ValidateRegistration(payload)
	if result.Valid {
		t.Error("expected invalid registration")
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 errors (kind, heartbeat), got %v", result.Errors)
	}
}

func TestValidateRegistrationWarnsOnMissingCueTopic(t *testing.T) {
	payload := &RegistrationPayload{
		Version: 1,
		Renderer: RendererInfo{
			ID:           "input-only",
			Kind:         "kiosk",
			HeartbeatSec: 5,
		},
		Topics: CueTopics{
			Input: "renderers/input-only/input",
		},
	}

	result := ValidateRegistration(payload)
	if !result.Valid {
		t.Errorf("missing cue topic should not invalidate, errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", result.Warnings)
	}
}
