package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/journey"
)

// Engine is the slice of the journey engine the input subscriber drives.
type Engine interface {
	Trigger(batch *journey.Accomplishment) error
	ReportArrival(goalID string)
	HandleScroll(position float64, direction int)
	AcknowledgeClose()
}

// ArrivalPayload is a per-goal arrival acknowledgment from a renderer.
type ArrivalPayload struct {
	GoalID     string `json:"goal_id"`
	RendererID string `json:"renderer_id,omitempty"`
}

// ScrollPayload is a scroll/selection input sample from a renderer.
type ScrollPayload struct {
	Position  float64 `json:"position"`
	Direction int     `json:"direction"`
}

// HeartbeatPayload is a renderer liveness ping.
type HeartbeatPayload struct {
	RendererID string `json:"renderer_id"`
}

// InputSubscriber routes the inbound MQTT streams to the engine: accomplishment
// triggers, arrival acknowledgments, scroll input, close acknowledgments, and
// renderer registration/heartbeat. Subscriptions are idempotent across
// reconnects.
type InputSubscriber struct {
	mu         sync.RWMutex
	client     *Client
	engine     Engine
	monitor    *Monitor
	journeyID  string
	subscribed map[string]bool // topic -> subscribed
}

// NewInputSubscriber creates a subscriber for the given journey.
func NewInputSubscriber(client *Client, engine Engine, monitor *Monitor, journeyID string) *InputSubscriber {
	return &InputSubscriber{
		client:     client,
		engine:     engine,
		monitor:    monitor,
		journeyID:  journeyID,
		subscribed: make(map[string]bool),
	}
}

// Topic returns the full topic for an input stream suffix.
func (s *InputSubscriber) Topic(suffix string) string {
	return fmt.Sprintf("journey/%s/%s", s.journeyID, suffix)
}

// SubscribeAll subscribes to every inbound stream.
func (s *InputSubscriber) SubscribeAll() error {
	streams := map[string]paho.MessageHandler{
		"accomplishment": s.handleAccomplishment,
		"arrival":        s.handleArrival,
		"scroll":         s.handleScroll,
		"close":          s.handleClose,
		"register":       s.handleRegister,
		"heartbeat":      s.handleHeartbeat,
	}

	for suffix, handler := range streams {
		if err := s.subscribe(s.Topic(suffix), handler); err != nil {
			return err
		}
	}
	return nil
}

func (s *InputSubscriber) subscribe(topic string, handler paho.MessageHandler) error {
	s.mu.Lock()
	if s.subscribed[topic] {
		s.mu.Unlock()
		return nil // Already subscribed
	}
	s.mu.Unlock()

	if err := s.client.Subscribe(topic, handler); err != nil {
		return err
	}

	s.mu.Lock()
	s.subscribed[topic] = true
	s.mu.Unlock()
	return nil
}

func (s *InputSubscriber) handleAccomplishment(_ paho.Client, msg paho.Message) {
	var batch journey.Accomplishment
	if err := json.Unmarshal(msg.Payload(), &batch); err != nil {
		s.emitBadPayload(msg.Topic(), err)
		return
	}

	if err := s.engine.Trigger(&batch); err != nil {
		if errors.Is(err, journey.ErrBusy) {
			// Never queued: the submitter retries once the phase is idle again.
			events.Emit("warn", "cutscene.rejected", "trigger while busy", map[string]interface{}{
				"batch_id": batch.ID,
			})
			return
		}
		s.emitBadPayload(msg.Topic(), err)
	}
}

func (s *InputSubscriber) handleArrival(_ paho.Client, msg paho.Message) {
	var payload ArrivalPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.emitBadPayload(msg.Topic(), err)
		return
	}
	if payload.GoalID == "" {
		s.emitBadPayload(msg.Topic(), fmt.Errorf("goal_id is required"))
		return
	}
	s.engine.ReportArrival(payload.GoalID)
}

func (s *InputSubscriber) handleScroll(_ paho.Client, msg paho.Message) {
	var payload ScrollPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.emitBadPayload(msg.Topic(), err)
		return
	}
	s.engine.HandleScroll(payload.Position, payload.Direction)
}

func (s *InputSubscriber) handleClose(_ paho.Client, msg paho.Message) {
	s.engine.AcknowledgeClose()
}

func (s *InputSubscriber) handleRegister(_ paho.Client, msg paho.Message) {
	payload, err := ParseRegistration(msg.Payload())
	if err != nil {
		s.emitBadPayload(msg.Topic(), err)
		return
	}
	s.monitor.HandleRegistration(payload)
}

func (s *InputSubscriber) handleHeartbeat(_ paho.Client, msg paho.Message) {
	var payload HeartbeatPayload
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.emitBadPayload(msg.Topic(), err)
		return
	}
	if payload.RendererID != "" {
		s.monitor.Heartbeat(payload.RendererID)
	}
}

func (s *InputSubscriber) emitBadPayload(topic string, err error) {
	events.Emit("error", "renderer.error", "bad input payload", map[string]interface{}{
		"topic": topic,
		"error": err.Error(),
	})
}
