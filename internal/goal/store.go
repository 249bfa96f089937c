package goal

import (
	"fmt"
	"sync"
)

// Store holds the canonical list of goals.
// It is the only long-lived shared resource: mutated exclusively through
// ApplyBoost/AppendJournal (ledger commit) and SetProgress (administrative).
type Store struct {
	mu    sync.RWMutex
	goals []*Goal
	index map[string]int
}

// NewStore creates a store from a list of goals. Duplicate IDs are rejected.
func NewStore(goals []Goal) (*Store, error) {
	s := &Store{
		index: make(map[string]int, len(goals)),
	}
	for i := range goals {
		g := goals[i]
		if g.ID == "" {
			return nil, fmt.Errorf("goal %d: missing id", i)
		}
		if _, dup := s.index[g.ID]; dup {
			return nil, fmt.Errorf("duplicate goal id: %s", g.ID)
		}
		g.Progress = ClampProgress(g.Progress)
		s.index[g.ID] = len(s.goals)
		s.goals = append(s.goals, &g)
	}
	return s, nil
}

// Count returns the number of goals.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.goals)
}

// Exists returns true if a goal with the given ID is present.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// Get returns a copy of the goal with the given ID.
func (s *Store) Get(id string) (Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Goal{}, false
	}
	return copyGoal(s.goals[i]), true
}

// At returns a copy of the goal at the given 1-based position.
func (s *Store) At(pos int) (Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos < 1 || pos > len(s.goals) {
		return Goal{}, false
	}
	return copyGoal(s.goals[pos-1]), true
}

// All returns copies of all goals in order.
func (s *Store) All() []Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, copyGoal(g))
	}
	return out
}

// Progress returns the canonical progress of a goal.
func (s *Store) Progress(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return 0, false
	}
	return s.goals[i].Progress, true
}

// ApplyBoost adds boost to the goal's canonical progress, clamped to [0,100].
// Returns the previous and new progress values.
func (s *Store) ApplyBoost(id string, boost int) (old, updated int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return 0, 0, fmt.Errorf("goal not found: %s", id)
	}
	g := s.goals[i]
	old = g.Progress
	g.Progress = ClampProgress(old + boost)
	return old, g.Progress, nil
}

// SetProgress is the administrative setter for canonical progress.
// The value is clamped to [0,100].
func (s *Store) SetProgress(id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("goal not found: %s", id)
	}
	s.goals[i].Progress = ClampProgress(progress)
	return nil
}

// AppendJournal appends narrative entries to the goal's history.
func (s *Store) AppendJournal(id string, entries []JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("goal not found: %s", id)
	}
	s.goals[i].Journal = append(s.goals[i].Journal, entries...)
	return nil
}

func copyGoal(g *Goal) Goal {
	cpy := *g
	cpy.Milestones = append([]Milestone{}, g.Milestones...)
	cpy.Journal = append([]JournalEntry{}, g.Journal...)
	return cpy
}
