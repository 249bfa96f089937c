package journey

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Mode represents the application-wide view mode.
type Mode string

const (
	ModeOverview Mode = "overview"
	ModeDetail   Mode = "detail"
)

// Phase represents the cutscene phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAnnouncing Phase = "announcing"
	PhaseHolding    Phase = "holding"
	PhaseTransiting Phase = "transiting"
	PhaseBoosting   Phase = "boosting"
	PhaseClosing    Phase = "closing"
)

// ErrBusy is returned when Trigger, SetMode or SetFocus is called while a
// cutscene is in flight. The call performs no state change; retry or queueing
// is the caller's decision.
var ErrBusy = errors.New("cutscene in flight")

// MaxMagnitude is the largest progress contribution a single accomplishment
// entry may carry. Larger values are clamped, not rejected.
const MaxMagnitude = 10

// Contribution is a single (goal, magnitude) progress contribution.
type Contribution struct {
	GoalID    string `json:"goal_id"`
	Magnitude int    `json:"magnitude"`
}

// Accomplishment is a named batch of contributions submitted by an external
// trigger. Immutable once submitted; lives for one cutscene cycle.
type Accomplishment struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Recap         string         `json:"recap,omitempty"`
	Contributions []Contribution `json:"contributions"`
}

// EnsureID assigns a random ID if the submitter omitted one.
func (a *Accomplishment) EnsureID() {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
}

// GoalIDs returns the distinct goal IDs targeted by the batch, in first-seen order.
func (a *Accomplishment) GoalIDs() []string {
	seen := make(map[string]struct{}, len(a.Contributions))
	var ids []string
	for _, c := range a.Contributions {
		if _, ok := seen[c.GoalID]; ok {
			continue
		}
		seen[c.GoalID] = struct{}{}
		ids = append(ids, c.GoalID)
	}
	return ids
}

// StateSnapshot is the read-only projection exposed to renderers.
type StateSnapshot struct {
	Mode          Mode      `json:"mode"`
	FocusedIndex  int       `json:"focused_index"`
	Phase         Phase     `json:"phase"`
	AutoNav       bool      `json:"auto_navigating"`
	ActiveBatchID string    `json:"active_batch_id,omitempty"`
	ActiveGoalIDs []string  `json:"active_goal_ids,omitempty"`
	Pulsing       []string  `json:"pulsing,omitempty"`
	Timestamp     time.Time `json:"ts"`
}
