package journey

import (
	"fmt"
	"sort"
	"time"

	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/goal"
)

// Ledger accumulates a batch's contributions per goal before a single atomic
// commit. It exists only while a cutscene is in a non-idle phase: created once
// per trigger, destroyed once on commit or abort.
type Ledger struct {
	entries   map[string]*ledgerEntry
	committed bool
}

type ledgerEntry struct {
	boost   int
	journal []goal.JournalEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]*ledgerEntry),
	}
}

// Prepare accumulates every contribution of the batch against the canonical
// store. Accumulation is commutative: the boost per goal depends only on the
// multiset of magnitudes targeting it, never on submission order.
// Contributions referencing unknown goals are dropped with a diagnostic.
func (l *Ledger) Prepare(batch *Accomplishment, store *goal.Store) {
	now := time.Now().UTC()
	for _, c := range batch.Contributions {
		if !store.Exists(c.GoalID) {
			events.Emit("warn", "contribution.dropped", "unknown goal reference", map[string]interface{}{
				"batch_id": batch.ID,
				"goal_id":  c.GoalID,
			})
			continue
		}

		mag := c.Magnitude
		if mag < 0 {
			mag = 0
		}
		if mag > MaxMagnitude {
			mag = MaxMagnitude
		}

		entry, ok := l.entries[c.GoalID]
		if !ok {
			entry = &ledgerEntry{}
			l.entries[c.GoalID] = entry
		}
		entry.boost += mag

		text := fmt.Sprintf("%s (+%d)", batch.Title, mag)
		if batch.Recap != "" {
			text = fmt.Sprintf("%s (+%d): %s", batch.Title, mag, batch.Recap)
		}
		entry.journal = append(entry.journal, goal.JournalEntry{
			Timestamp: now,
			Text:      text,
		})
	}
}

// Size returns the number of distinct goals in the ledger.
func (l *Ledger) Size() int {
	return len(l.entries)
}

// Has returns true if the ledger carries a contribution for the goal.
func (l *Ledger) Has(goalID string) bool {
	_, ok := l.entries[goalID]
	return ok
}

// Boost returns the accumulated boost for the goal, 0 if absent.
func (l *Ledger) Boost(goalID string) int {
	if entry, ok := l.entries[goalID]; ok {
		return entry.boost
	}
	return 0
}

// GoalIDs returns the ledger's goal IDs in sorted order.
func (l *Ledger) GoalIDs() []string {
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CommitResult records the outcome of a single goal's commit.
type CommitResult struct {
	GoalID   string
	Previous int
	Progress int
	Boost    int
	Entries  int
}

// Commit applies every ledger entry to the canonical store exactly once:
// newProgress = clamp(canonical + boost, 0, 100), queued journal entries
// appended. Reads the true canonical progress at commit time. A second call
// is a no-op, so a boost can never be applied twice. Commit is unconditionally
// completable: entries that fail to apply are skipped, never raised.
func (l *Ledger) Commit(store *goal.Store) []CommitResult {
	if l.committed {
		return nil
	}
	l.committed = true

	var results []CommitResult
	for _, id := range l.GoalIDs() {
		entry := l.entries[id]
		old, updated, err := store.ApplyBoost(id, entry.boost)
		if err != nil {
			// Goal vanished between prepare and commit. Best effort: skip.
			events.Emit("error", "system.error", "commit skipped entry", map[string]interface{}{
				"goal_id": id,
				"error":   err.Error(),
			})
			continue
		}
		if err := store.AppendJournal(id, entry.journal); err != nil {
			events.Emit("error", "system.error", "journal append failed", map[string]interface{}{
				"goal_id": id,
				"error":   err.Error(),
			})
		}
		results = append(results, CommitResult{
			GoalID:   id,
			Previous: old,
			Progress: updated,
			Boost:    entry.boost,
			Entries:  len(entry.journal),
		})
	}

	l.entries = make(map[string]*ledgerEntry)
	return results
}

// Committed returns true once Commit has run.
func (l *Ledger) Committed() bool {
	return l.committed
}
