package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/journey"
	"github.com/moonpath/journey/internal/version"
)

// Engine is the slice of the journey engine the API exposes.
type Engine interface {
	Snapshot() journey.StateSnapshot
	GoalViews() []journey.GoalView
	Trigger(batch *journey.Accomplishment) error
	Abort()
	ReportArrival(goalID string)
	AcknowledgeClose()
	SetMode(m journey.Mode) error
	SetFocus(index int) error
	SetGoalProgress(goalID string, progress int) error
}

var engine Engine

// SetEngine sets the engine used by the action endpoints.
func SetEngine(e Engine) {
	engine = e
}

// readiness tracks subsystem readiness for /ready and /metrics.
var readiness = struct {
	mu                sync.RWMutex
	engineReady       bool
	mqttConnected     bool
	postgresConnected bool
}{}

// SetEngineReady marks the engine as ready.
func SetEngineReady(ready bool) {
	readiness.mu.Lock()
	readiness.engineReady = ready
	readiness.mu.Unlock()
}

// SetMQTTConnected records the MQTT connection state.
func SetMQTTConnected(connected bool) {
	readiness.mu.Lock()
	readiness.mqttConnected = connected
	readiness.mu.Unlock()
}

// SetPostgresConnected records the Postgres connection state.
func SetPostgresConnected(connected bool) {
	readiness.mu.Lock()
	readiness.postgresConnected = connected
	readiness.mu.Unlock()
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "journeyd",
		Version:   version.Version,
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type ReadyResponse struct {
	Ready             bool `json:"ready"`
	Engine            bool `json:"engine"`
	MQTTConnected     bool `json:"mqtt_connected"`
	PostgresConnected bool `json:"postgres_connected"`
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	resp := ReadyResponse{
		Engine:            readiness.engineReady,
		MQTTConnected:     readiness.mqttConnected,
		PostgresConnected: readiness.postgresConnected,
	}
	readiness.mu.RUnlock()
	resp.Ready = resp.Engine

	w.Header().Set("Content-Type", "application/json")
	if !resp.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

type VersionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Journey string `json:"journey"`
}

func versionHandler(w http.ResponseWriter, r *http.Request) {
	resp := VersionResponse{
		Service: "journeyd",
		Version: version.Version,
		Journey: GetJourneyName(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events.Snapshot())
}

func stateHandler(w http.ResponseWriter, r *http.Request) {
	if engine == nil {
		http.Error(w, "engine not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(engine.Snapshot())
}

func goalsHandler(w http.ResponseWriter, r *http.Request) {
	if engine == nil {
		http.Error(w, "engine not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(engine.GoalViews())
}

type ActionResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func writeAction(w http.ResponseWriter, status int, resp ActionResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// requirePost rejects non-POST methods and missing engine wiring.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		writeAction(w, http.StatusMethodNotAllowed, ActionResponse{OK: false, Error: "method not allowed"})
		return false
	}
	if engine == nil {
		writeAction(w, http.StatusServiceUnavailable, ActionResponse{OK: false, Error: "engine not ready"})
		return false
	}
	return true
}

func triggerHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var batch journey.Accomplishment
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: "invalid JSON"})
		return
	}

	if err := engine.Trigger(&batch); err != nil {
		if errors.Is(err, journey.ErrBusy) {
			// Not queued: the caller checks the phase or retries.
			writeAction(w, http.StatusConflict, ActionResponse{OK: false, Error: "cutscene in flight"})
			return
		}
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: err.Error()})
		return
	}

	writeAction(w, http.StatusOK, ActionResponse{OK: true})
}

func abortHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	engine.Abort()
	events.Emit("info", "operator.abort", "", nil)
	writeAction(w, http.StatusOK, ActionResponse{OK: true})
}

type ArrivalRequest struct {
	GoalID string `json:"goal_id"`
}

func arrivalHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ArrivalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: "invalid JSON"})
		return
	}
	if req.GoalID == "" {
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: "goal_id required"})
		return
	}

	engine.ReportArrival(req.GoalID)
	writeAction(w, http.StatusOK, ActionResponse{OK: true})
}

func closeAckHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	engine.AcknowledgeClose()
	writeAction(w, http.StatusOK, ActionResponse{OK: true})
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

func modeHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: "invalid JSON"})
		return
	}

	if err := engine.SetMode(journey.Mode(req.Mode)); err != nil {
		if errors.Is(err, journey.ErrBusy) {
			writeAction(w, http.StatusConflict, ActionResponse{OK: false, Error: "cutscene in flight"})
			return
		}
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: err.Error()})
		return
	}

	writeAction(w, http.StatusOK, ActionResponse{OK: true})
}

type FocusRequest struct {
	Index int `json:"index"`
}

func focusHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req FocusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: "invalid JSON"})
		return
	}

	if err := engine.SetFocus(req.Index); err != nil {
		if errors.Is(err, journey.ErrBusy) {
			writeAction(w, http.StatusConflict, ActionResponse{OK: false, Error: "cutscene in flight"})
			return
		}
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: err.Error()})
		return
	}

	writeAction(w, http.StatusOK, ActionResponse{OK: true})
}

type ProgressRequest struct {
	GoalID   string `json:"goal_id"`
	Progress int    `json:"progress"`
}

func operatorProgressHandler(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: "invalid JSON"})
		return
	}
	if req.GoalID == "" {
		writeAction(w, http.StatusBadRequest, ActionResponse{OK: false, Error: "goal_id required"})
		return
	}

	if err := engine.SetGoalProgress(req.GoalID, req.Progress); err != nil {
		writeAction(w, http.StatusNotFound, ActionResponse{OK: false, Error: err.Error()})
		return
	}

	writeAction(w, http.StatusOK, ActionResponse{OK: true})
}

// NewMux builds the API routing table.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/version", versionHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/events", eventsHandler)
	mux.HandleFunc("/state", stateHandler)
	mux.HandleFunc("/goals", goalsHandler)
	mux.HandleFunc("/ws/events", wsEventsHandler)

	mux.HandleFunc("/journey/trigger", RequireAnyRole(triggerHandler))
	mux.HandleFunc("/journey/abort", RequireAnyRole(abortHandler))
	mux.HandleFunc("/journey/arrival", RequireAnyRole(arrivalHandler))
	mux.HandleFunc("/journey/close-ack", RequireAnyRole(closeAckHandler))
	mux.HandleFunc("/journey/mode", RequireAnyRole(modeHandler))
	mux.HandleFunc("/journey/focus", RequireAnyRole(focusHandler))
	mux.HandleFunc("/operator/progress", RequireAdmin(operatorProgressHandler))

	return mux
}

// ListenAndServe starts the API server on the given port.
// It blocks until the server exits.
func ListenAndServe(port int) error {
	mux := NewMux()
	addr := fmt.Sprintf(":%d", port)

	if IsTLSEnabled() {
		server := &http.Server{
			Addr:      addr,
			Handler:   mux,
			TLSConfig: LoadTLSConfig(),
		}
		log.Printf("API listening on %s (TLS)\n", addr)
		return server.ListenAndServeTLS("", "")
	}

	log.Printf("API listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

// Start starts the API server in a goroutine.
// Errors are logged but do not stop the caller.
func Start(port int) {
	go func() {
		if err := ListenAndServe(port); err != nil {
			log.Printf("api server error: %v", err)
		}
	}()
}
