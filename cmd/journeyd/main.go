package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moonpath/journey/internal/api"
	"github.com/moonpath/journey/internal/config"
	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/goal"
	"github.com/moonpath/journey/internal/journey"
	"github.com/moonpath/journey/internal/mqtt"
	"github.com/moonpath/journey/internal/storage/postgres"
	"github.com/moonpath/journey/internal/version"
)

type LogLine struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func logEvent(level, event, msg string, fields map[string]interface{}) {
	line := LogLine{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Event:     event,
		Message:   msg,
		Fields:    fields,
	}
	b, _ := json.Marshal(line)
	fmt.Println(string(b))
}

func configPath() string {
	if p := os.Getenv("JOURNEY_CONFIG"); p != "" {
		return p
	}
	return "journey.yaml"
}

func main() {
	hostname, _ := os.Hostname()
	logEvent("info", "system.startup", "journeyd starting", map[string]interface{}{
		"service":  "journeyd",
		"version":  version.Version,
		"hostname": hostname,
		"pid":      os.Getpid(),
	})

	cfg, err := config.LoadJourneyConfig(configPath())
	if err != nil {
		log.Fatalf("failed to load journey config: %v", err)
	}

	store, err := goal.LoadStore(cfg.GoalsPath())
	if err != nil {
		log.Fatalf("failed to load goals: %v", err)
	}

	// Ambient surfaces before anything emits
	api.InitMetrics()
	api.SetJourneyName(cfg.Journey.Name)
	api.InitAuth()
	api.InitTLS()
	api.InitAlerts()

	// Postgres is optional: the engine runs without durable events
	pg, err := postgres.New(cfg.Journey.ID)
	if err != nil {
		logEvent("warning", "system.error", "postgres unavailable, events will not persist", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		events.SetPostgresClient(pg)
		api.SetPostgresConnected(true)
		defer pg.Close()

		// Replay the last run's committed progress and journal entries
		restored, count, err := journey.RestoreFromEvents(pg, journey.DefaultRestoreLimit)
		if err != nil {
			logEvent("warning", "system.error", "event restore failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else if restored != nil {
			if err := journey.ApplyRestoredState(store, restored); err != nil {
				log.Fatalf("failed to apply restored state: %v", err)
			}
			journey.EmitStartupRestore(count, cfg.Journey.ID)
		}
	}

	engine := journey.NewEngine(store, journey.NewTimerScheduler(), journey.Config{
		AnnounceDelay:           cfg.AnnounceDelay(),
		TransitDelay:            cfg.TransitDelay(),
		BoostDelay:              cfg.BoostDelay(),
		CloseDelay:              cfg.CloseDelay(),
		PulseWindow:             cfg.PulseWindow(),
		PreserveFocusOnOverview: cfg.Focus.PreserveOnOverview,
	})

	api.SetEngine(engine)
	api.SetEngineReady(true)
	api.Start(cfg.UIPort())
	api.StartAlertMonitor(10 * time.Second)

	// MQTT: renderer registration, inputs, and outbound cues
	registry := mqtt.NewRendererRegistry()
	monitor := mqtt.NewMonitor(registry, 2.0)
	client := mqtt.NewClient("journeyd-" + cfg.Journey.ID)

	if err := client.Connect(); err != nil {
		logEvent("warning", "system.error", "mqtt unavailable, renderer streams offline", map[string]interface{}{
			"broker": mqtt.BrokerURL(),
			"error":  err.Error(),
		})
	} else {
		api.SetMQTTConnected(true)

		inputs := mqtt.NewInputSubscriber(client, engine, monitor, cfg.Journey.ID)
		if err := inputs.SubscribeAll(); err != nil {
			logEvent("error", "system.error", "mqtt subscribe failed", map[string]interface{}{
				"error": err.Error(),
			})
		}

		monitor.Start(5 * time.Second)
		defer monitor.Stop()

		cues := mqtt.NewCuePublisher(client, registry)
		cues.Start()
		defer cues.Stop()

		defer client.Disconnect()
	}

	events.Emit("info", "system.startup", "journey engine ready", map[string]interface{}{
		"journey_id": cfg.Journey.ID,
		"name":       cfg.Journey.Name,
		"goals":      store.Count(),
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	events.Emit("info", "system.shutdown", "shutting down", map[string]interface{}{
		"signal": sig.String(),
	})
	logEvent("info", "system.shutdown", "journeyd stopping", map[string]interface{}{
		"signal": sig.String(),
	})
}
