package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moonpath/journey/internal/journey"
)

func TestMetricsEndpoint(t *testing.T) {
	InitMetrics()
	SetJourneyName("test-journey")

	stub := &stubEngine{
		snapshot: journey.StateSnapshot{Phase: journey.PhaseBoosting},
		views:    []journey.GoalView{{}, {}, {}},
	}
	withStubEngine(t, stub)

	readiness.mu.Lock()
	readiness.engineReady = true
	readiness.mqttConnected = false
	readiness.mu.Unlock()

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	metricsHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		"journey_uptime_seconds",
		"journey_engine_ready",
		"journey_events_total",
		"journey_goals_total",
		"journey_cutscene_active",
		"journey_mqtt_connected",
		"journey_ws_clients",
		`journey="test-journey"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}

	// Three stub goals, cutscene in flight, MQTT down
	if !strings.Contains(body, "journey_goals_total{") {
		t.Error("expected labeled goals gauge")
	}
	if !strings.Contains(body, "journey_cutscene_active{") {
		t.Error("expected labeled cutscene gauge")
	}
}

func TestMetricsRejectsNonGET(t *testing.T) {
	req := httptest.NewRequest("POST", "/metrics", nil)
	w := httptest.NewRecorder()
	metricsHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}
