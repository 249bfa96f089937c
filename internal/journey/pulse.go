package journey

import (
	"sort"
	"sync"
	"time"

	"github.com/moonpath/journey/internal/events"
)

// PulseRegistry holds one-shot highlight flags per goal. A triggered pulse
// clears itself after a fixed window. Re-triggering an active pulse restarts
// its window. Pulses are independent: any number of goals may pulse at once.
type PulseRegistry struct {
	mu     sync.Mutex
	sched  Scheduler
	window time.Duration
	seq    uint64
	active map[string]uint64
	cancel map[string]Cancel
}

// NewPulseRegistry creates a registry clearing pulses after the given window.
func NewPulseRegistry(sched Scheduler, window time.Duration) *PulseRegistry {
	return &PulseRegistry{
		sched:  sched,
		window: window,
		active: make(map[string]uint64),
		cancel: make(map[string]Cancel),
	}
}

// Trigger sets the pulse flag for a goal and schedules its clear.
func (p *PulseRegistry) Trigger(goalID string) {
	p.mu.Lock()
	if c, ok := p.cancel[goalID]; ok {
		c()
	}
	p.seq++
	token := p.seq
	p.active[goalID] = token
	p.cancel[goalID] = p.sched.After(p.window, func() {
		p.clear(goalID, token)
	})
	p.mu.Unlock()

	events.Emit("info", "pulse.started", "", map[string]interface{}{
		"goal_id": goalID,
	})
}

// clear drops the flag if the token still matches; a restarted pulse carries
// a newer token and the stale clear becomes a no-op.
func (p *PulseRegistry) clear(goalID string, token uint64) {
	p.mu.Lock()
	current, ok := p.active[goalID]
	if !ok || current != token {
		p.mu.Unlock()
		return
	}
	delete(p.active, goalID)
	delete(p.cancel, goalID)
	p.mu.Unlock()

	events.Emit("info", "pulse.cleared", "", map[string]interface{}{
		"goal_id": goalID,
	})
}

// Active returns true if the goal is currently pulsing.
func (p *PulseRegistry) Active(goalID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[goalID]
	return ok
}

// Snapshot returns the currently pulsing goal IDs in sorted order.
func (p *PulseRegistry) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
