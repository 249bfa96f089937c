package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/journey"
	"github.com/moonpath/journey/internal/version"
)

// Metrics state
var (
	metricsState = &MetricsState{}
)

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu          sync.RWMutex
	startTime   time.Time
	journeyName string
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

// SetJourneyName sets the journey name for metrics labels.
func SetJourneyName(name string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.journeyName = name
}

// GetJourneyName returns the current journey name.
func GetJourneyName() string {
	metricsState.mu.RLock()
	defer metricsState.mu.RUnlock()
	return metricsState.journeyName
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Gather metrics
	metricsState.mu.RLock()
	startTime := metricsState.startTime
	journeyName := metricsState.journeyName
	metricsState.mu.RUnlock()

	uptime := time.Since(startTime).Seconds()
	eventsTotal := events.TotalCount()

	readiness.mu.RLock()
	engineReady := readiness.engineReady
	mqttConnected := readiness.mqttConnected
	postgresConnected := readiness.postgresConnected
	readiness.mu.RUnlock()

	wsClients := events.SubscriberCount()

	engineReadyVal := 0
	if engineReady {
		engineReadyVal = 1
	}

	mqttConnectedVal := 0
	if mqttConnected {
		mqttConnectedVal = 1
	}

	postgresConnectedVal := 0
	if postgresConnected {
		postgresConnectedVal = 1
	}

	// Engine-derived gauges (engine may not be wired in tests)
	goalsTotal := 0
	cutsceneActive := 0
	if engine != nil {
		goalsTotal = len(engine.GoalViews())
		if engine.Snapshot().Phase != journey.PhaseIdle {
			cutsceneActive = 1
		}
	}

	// Get hostname for instance label
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	// Build Prometheus text format response
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Helper to write metric with optional labels
	writeMetric := func(name, mtype, help string, value interface{}, labels string) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		if labels != "" {
			fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
		} else {
			fmt.Fprintf(w, "%s %v\n", name, value)
		}
	}

	// Common labels
	labels := fmt.Sprintf(`journey="%s",instance="%s",version="%s"`, journeyName, hostname, version.Version)

	// Uptime
	writeMetric("journey_uptime_seconds", "gauge",
		"Number of seconds since the engine started", uptime, labels)

	// Engine ready
	writeMetric("journey_engine_ready", "gauge",
		"Whether the journey engine is ready (1) or not (0)", engineReadyVal, labels)

	// Events total
	writeMetric("journey_events_total", "counter",
		"Total number of events emitted since startup", eventsTotal, labels)

	// Goals loaded
	writeMetric("journey_goals_total", "gauge",
		"Number of goals loaded into the store", goalsTotal, labels)

	// Cutscene active
	writeMetric("journey_cutscene_active", "gauge",
		"Whether a cutscene is in flight (1) or the engine is idle (0)", cutsceneActive, labels)

	// MQTT connected
	writeMetric("journey_mqtt_connected", "gauge",
		"Whether MQTT broker is connected (1) or not (0)", mqttConnectedVal, labels)

	// Postgres connected
	writeMetric("journey_postgres_connected", "gauge",
		"Whether PostgreSQL is connected (1) or not (0)", postgresConnectedVal, labels)

	// WebSocket clients
	writeMetric("journey_ws_clients", "gauge",
		"Number of active WebSocket client connections", wsClients, labels)
}
