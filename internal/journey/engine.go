package journey

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/goal"
)

// Config holds the engine's timing and policy knobs.
type Config struct {
	AnnounceDelay time.Duration
	TransitDelay  time.Duration
	BoostDelay    time.Duration
	CloseDelay    time.Duration
	PulseWindow   time.Duration

	// PreserveFocusOnOverview keeps the last focused index when the mode
	// returns to overview instead of resetting it to 0.
	PreserveFocusOnOverview bool
}

// Engine owns the journey state: view mode, focused goal, the cutscene phase
// machine and the per-cycle contribution ledger. All mutation is serialized
// through its mutex; the only concurrency source is time, via the injected
// scheduler. Scheduled callbacks capture a generation token and become no-ops
// when a later abort or trigger has moved the engine to a new cycle.
type Engine struct {
	mu    sync.Mutex
	goals *goal.Store
	sched Scheduler
	cfg   Config

	mode    Mode
	focused int
	autoNav bool

	phase   Phase
	batch   *Accomplishment
	ledger  *Ledger
	arrived map[string]struct{}

	generation uint64
	pending    []Cancel

	pulses *PulseRegistry
}

// NewEngine creates an engine over the given store and scheduler.
func NewEngine(goals *goal.Store, sched Scheduler, cfg Config) *Engine {
	return &Engine{
		goals:  goals,
		sched:  sched,
		cfg:    cfg,
		mode:   ModeOverview,
		phase:  PhaseIdle,
		pulses: NewPulseRegistry(sched, cfg.PulseWindow),
	}
}

// Goals returns the canonical goal store.
func (e *Engine) Goals() *goal.Store {
	return e.goals
}

// Pulses returns the pulse signal registry.
func (e *Engine) Pulses() *PulseRegistry {
	return e.pulses
}

// Mode returns the current view mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// FocusedIndex returns the focused goal position (0 = none, 1..N).
func (e *Engine) FocusedIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focused
}

// Phase returns the current cutscene phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// IsCutsceneActive returns true while the phase machine is non-idle.
func (e *Engine) IsCutsceneActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase != PhaseIdle
}

// IsAutoNavigating reports whether the engine is driving navigation itself.
// Scroll handlers must consult this before treating a position change as
// user input, or a programmatic scroll re-enters the handler that caused it.
func (e *Engine) IsAutoNavigating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoNav
}

// SetMode switches the view mode. Rejected while a cutscene is active.
func (e *Engine) SetMode(m Mode) error {
	if m != ModeOverview && m != ModeDetail {
		return fmt.Errorf("invalid mode: %s", m)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return ErrBusy
	}
	e.applyMode(m)
	return nil
}

// applyMode changes the mode and applies the focus policy. Caller holds the lock.
func (e *Engine) applyMode(m Mode) {
	e.mode = m
	if m == ModeOverview && !e.cfg.PreserveFocusOnOverview {
		e.focused = 0
	}
	e.emit("info", "mode.changed", "", map[string]interface{}{
		"mode":          string(m),
		"focused_index": e.focused,
	})
}

// SetFocus focuses the goal at the given 1-based position, or 0 for none.
// Focusing a goal implies detail mode. Rejected while a cutscene is active.
func (e *Engine) SetFocus(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseIdle {
		return ErrBusy
	}
	return e.applyFocus(index)
}

// applyFocus validates and applies a focus change. Caller holds the lock.
func (e *Engine) applyFocus(index int) error {
	if index < 0 || index > e.goals.Count() {
		return fmt.Errorf("focus index out of range: %d", index)
	}
	e.focused = index
	if index > 0 {
		e.mode = ModeDetail
	}
	e.emit("info", "focus.changed", "", map[string]interface{}{
		"mode":          string(e.mode),
		"focused_index": index,
	})
	return nil
}

// HandleScroll interprets a scroll/selection input as a mode or focus change.
// Ignored while the engine is auto-navigating or a cutscene is active.
func (e *Engine) HandleScroll(position float64, direction int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.autoNav || e.phase != PhaseIdle {
		e.emit("info", "scroll.ignored", "", map[string]interface{}{
			"position":  position,
			"direction": direction,
		})
		return
	}

	e.emit("info", "scroll.input", "", map[string]interface{}{
		"position":  position,
		"direction": direction,
	})

	index := int(math.Round(position))
	if index < 0 || (index == 0 && direction <= 0) {
		if e.mode != ModeOverview {
			e.applyMode(ModeOverview)
		}
		return
	}
	if index > e.goals.Count() {
		index = e.goals.Count()
	}
	if index > 0 {
		e.applyFocus(index)
	}
}

// Trigger starts a cutscene for the accomplishment batch. The only entry from
// idle; returns ErrBusy with no state change while a cycle is in flight.
func (e *Engine) Trigger(batch *Accomplishment) error {
	if batch == nil {
		return fmt.Errorf("nil accomplishment")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != PhaseIdle {
		return ErrBusy
	}

	batch.EnsureID()

	e.generation++
	e.batch = batch
	e.arrived = make(map[string]struct{})
	e.ledger = NewLedger()
	e.ledger.Prepare(batch, e.goals)

	e.emit("info", "cutscene.triggered", "", map[string]interface{}{
		"batch_id": batch.ID,
		"title":    batch.Title,
		"goals":    e.ledger.GoalIDs(),
	})
	e.emit("info", "ledger.prepared", "", map[string]interface{}{
		"batch_id": batch.ID,
		"entries":  e.ledger.Size(),
	})

	e.setPhase(PhaseAnnouncing)
	e.schedule(e.cfg.AnnounceDelay, e.enterHolding)
	return nil
}

// ReportArrival records a renderer's per-goal arrival acknowledgment.
// Acknowledgments may arrive in any order and are idempotent; the machine
// advances to transiting once every distinct ledger goal has arrived.
func (e *Engine) ReportArrival(goalID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ledger == nil || !e.ledger.Has(goalID) {
		return
	}
	if _, done := e.arrived[goalID]; done {
		return
	}
	e.arrived[goalID] = struct{}{}

	e.emit("info", "arrival.acknowledged", "", map[string]interface{}{
		"goal_id": goalID,
		"arrived": len(e.arrived),
		"total":   e.ledger.Size(),
	})

	e.maybeTransit()
}

// AcknowledgeClose lets the renderer finish the closing phase early.
// Ignored outside closing.
func (e *Engine) AcknowledgeClose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseClosing {
		return
	}
	e.finish()
}

// Abort cancels the cutscene from any non-idle phase. The ledger is discarded
// without committing: partially-animated contributions are lost by design of
// the product, not recovered. Scheduled callbacks from the aborted cycle are
// invalidated by the generation bump.
func (e *Engine) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase == PhaseIdle {
		return
	}

	batchID := ""
	if e.batch != nil {
		batchID = e.batch.ID
	}

	e.generation++
	e.cancelPending()
	e.batch = nil
	e.ledger = nil
	e.arrived = nil
	e.autoNav = false

	e.emit("info", "cutscene.aborted", "", map[string]interface{}{
		"batch_id": batchID,
		"phase":    string(e.phase),
	})
	e.setPhase(PhaseIdle)
}

// SetGoalProgress is the administrative setter for canonical progress.
func (e *Engine) SetGoalProgress(goalID string, progress int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.goals.Progress(goalID)
	if !ok {
		return fmt.Errorf("goal not found: %s", goalID)
	}
	if err := e.goals.SetProgress(goalID, progress); err != nil {
		return err
	}
	updated, _ := e.goals.Progress(goalID)

	e.emit("info", "operator.set_progress", "", map[string]interface{}{
		"goal_id":  goalID,
		"progress": updated,
	})
	e.emit("info", "goal.updated", "", map[string]interface{}{
		"goal_id":  goalID,
		"previous": old,
		"progress": updated,
		"boost":    0,
	})
	return nil
}

// DisplayProgress returns the progress a renderer should show for a goal:
// canonical progress minus the pending boost while the cutscene has not yet
// committed. Canonical state stays untouched until the single commit.
func (e *Engine) DisplayProgress(goalID string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.goals.Progress(goalID)
	if !ok {
		return 0, false
	}
	return p - e.pendingDiscount(goalID), true
}

// pendingDiscount returns the preview discount for a goal. Caller holds the lock.
func (e *Engine) pendingDiscount(goalID string) int {
	switch e.phase {
	case PhaseAnnouncing, PhaseHolding, PhaseTransiting:
		if e.ledger == nil {
			return 0
		}
		p, _ := e.goals.Progress(goalID)
		discount := e.ledger.Boost(goalID)
		if discount > p {
			discount = p
		}
		return discount
	default:
		return 0
	}
}

// Snapshot returns the read-only projection of the journey state.
func (e *Engine) Snapshot() StateSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := StateSnapshot{
		Mode:         e.mode,
		FocusedIndex: e.focused,
		Phase:        e.phase,
		AutoNav:      e.autoNav,
		Pulsing:      e.pulses.Snapshot(),
		Timestamp:    time.Now().UTC(),
	}
	if e.batch != nil {
		snap.ActiveBatchID = e.batch.ID
	}
	if e.ledger != nil {
		snap.ActiveGoalIDs = e.ledger.GoalIDs()
	}
	return snap
}

// GoalView is a goal augmented with its render-facing derived state.
type GoalView struct {
	goal.Goal
	DisplayProgress int  `json:"display_progress"`
	Pulsing         bool `json:"pulsing"`
}

// GoalViews returns all goals with display progress and pulse flags applied.
func (e *Engine) GoalViews() []GoalView {
	e.mu.Lock()
	defer e.mu.Unlock()

	all := e.goals.All()
	views := make([]GoalView, 0, len(all))
	for _, g := range all {
		views = append(views, GoalView{
			Goal:            g,
			DisplayProgress: g.Progress - e.pendingDiscount(g.ID),
			Pulsing:         e.pulses.Active(g.ID),
		})
	}
	return views
}

// --- phase machine internals (callers hold the lock) ---

func (e *Engine) setPhase(p Phase) {
	e.phase = p
	e.emit("info", "cutscene.phase", "", map[string]interface{}{
		"phase": string(p),
	})
}

// schedule registers a deferred transition bound to the current cycle.
// The callback re-checks the generation under the lock before acting, so a
// timer from an aborted cycle can never mutate a later cycle's state.
func (e *Engine) schedule(d time.Duration, fn func()) {
	gen := e.generation
	cancel := e.sched.After(d, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.generation {
			return
		}
		fn()
	})
	e.pending = append(e.pending, cancel)
}

func (e *Engine) cancelPending() {
	for _, cancel := range e.pending {
		cancel()
	}
	e.pending = nil
}

func (e *Engine) enterHolding() {
	if e.phase != PhaseAnnouncing {
		return
	}
	e.setPhase(PhaseHolding)
	e.maybeTransit()
}

func (e *Engine) maybeTransit() {
	if e.phase != PhaseHolding {
		return
	}
	if len(e.arrived) < e.ledger.Size() {
		return
	}
	e.setPhase(PhaseTransiting)
	e.autoNav = true
	e.schedule(e.cfg.TransitDelay, e.enterBoosting)
}

func (e *Engine) enterBoosting() {
	if e.phase != PhaseTransiting {
		return
	}

	results := e.ledger.Commit(e.goals)
	for _, r := range results {
		e.emit("info", "goal.updated", "", map[string]interface{}{
			"goal_id":  r.GoalID,
			"previous": r.Previous,
			"progress": r.Progress,
			"boost":    r.Boost,
		})
		if g, ok := e.goals.Get(r.GoalID); ok && r.Entries > 0 {
			for _, entry := range g.Journal[len(g.Journal)-r.Entries:] {
				e.emit("info", "journal.appended", "", map[string]interface{}{
					"goal_id": r.GoalID,
					"text":    entry.Text,
				})
			}
		}
		e.pulses.Trigger(r.GoalID)
	}

	batchID := ""
	if e.batch != nil {
		batchID = e.batch.ID
	}
	e.emit("info", "ledger.committed", "", map[string]interface{}{
		"batch_id": batchID,
		"entries":  len(results),
	})

	e.setPhase(PhaseBoosting)
	e.schedule(e.cfg.BoostDelay, e.enterClosing)
}

func (e *Engine) enterClosing() {
	if e.phase != PhaseBoosting {
		return
	}
	e.setPhase(PhaseClosing)
	e.schedule(e.cfg.CloseDelay, func() {
		if e.phase != PhaseClosing {
			return
		}
		e.finish()
	})
}

func (e *Engine) finish() {
	batchID := ""
	if e.batch != nil {
		batchID = e.batch.ID
	}

	e.generation++
	e.cancelPending()
	e.batch = nil
	e.ledger = nil
	e.arrived = nil
	e.autoNav = false

	e.emit("info", "cutscene.completed", "", map[string]interface{}{
		"batch_id": batchID,
	})
	e.setPhase(PhaseIdle)
}

func (e *Engine) emit(level, name, msg string, fields map[string]interface{}) {
	events.Emit(level, name, msg, fields)
}
