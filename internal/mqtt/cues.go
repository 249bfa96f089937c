package mqtt

import (
	"encoding/json"
	"log"
	"strings"
	"sync"

	"github.com/moonpath/journey/internal/events"
)

// CuePublisher forwards cutscene and pulse events to every registered
// renderer's cue topic, so renderers without a websocket connection still
// receive phase changes.
type CuePublisher struct {
	client   *Client
	registry *RendererRegistry
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCuePublisher creates a publisher over the given client and registry.
func NewCuePublisher(client *Client, registry *RendererRegistry) *CuePublisher {
	return &CuePublisher{
		client:   client,
		registry: registry,
		stopCh:   make(chan struct{}),
	}
}

// Start begins forwarding events in a background goroutine.
func (p *CuePublisher) Start() {
	sub := events.Subscribe()
	p.wg.Add(1)
	go p.forwardLoop(sub)
}

// Stop halts forwarding.
func (p *CuePublisher) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *CuePublisher) forwardLoop(sub events.Subscriber) {
	defer p.wg.Done()
	defer events.Unsubscribe(sub)

	for {
		select {
		case <-p.stopCh:
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			if !isCueEvent(e.Name) {
				continue
			}
			p.publish(e)
		}
	}
}

// isCueEvent selects the event scopes renderers act on.
func isCueEvent(name string) bool {
	return strings.HasPrefix(name, "cutscene.") ||
		strings.HasPrefix(name, "pulse.") ||
		strings.HasPrefix(name, "goal.")
}

func (p *CuePublisher) publish(e events.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}

	for _, rend := range p.registry.All() {
		if rend.CueTopic == "" {
			continue
		}
		if !p.client.IsConnected() {
			return
		}
		if err := p.client.Publish(rend.CueTopic, data); err != nil {
			log.Printf("mqtt: cue publish to %s failed: %v", rend.CueTopic, err)
		}
	}
}
