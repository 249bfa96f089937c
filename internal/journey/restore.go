package journey

import (
	"github.com/moonpath/journey/internal/events"
	"github.com/moonpath/journey/internal/goal"
	"github.com/moonpath/journey/internal/storage/postgres"
)

// DefaultRestoreLimit is the default number of events to load for restore.
const DefaultRestoreLimit = 1000

// RestoredState holds canonical goal state reconstructed from the event log.
// The goals file is the source of identity; the event log carries committed
// progress and journal entries written after the file was authored.
type RestoredState struct {
	Progress map[string]int
	Journal  map[string][]goal.JournalEntry
}

// RestoreFromEvents loads events from Postgres and reconstructs the last
// known canonical progress and journal per goal.
// Returns nil if no relevant state was found or if client is nil.
func RestoreFromEvents(client *postgres.Client, limit int) (*RestoredState, int, error) {
	if client == nil {
		return nil, 0, nil
	}

	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := client.Query(limit)
	if err != nil {
		return nil, 0, err
	}

	if len(rows) == 0 {
		return nil, 0, nil
	}

	// Reverse to chronological order (Query returns DESC)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	state := &RestoredState{
		Progress: make(map[string]int),
		Journal:  make(map[string][]goal.JournalEntry),
	}

	for _, row := range rows {
		goalID, ok := row.Fields["goal_id"].(string)
		if !ok {
			continue
		}

		switch row.Event {
		case "goal.updated":
			if p, ok := row.Fields["progress"].(float64); ok {
				state.Progress[goalID] = goal.ClampProgress(int(p))
			}

		case "journal.appended":
			if text, ok := row.Fields["text"].(string); ok {
				state.Journal[goalID] = append(state.Journal[goalID], goal.JournalEntry{
					Timestamp: row.Timestamp,
					Text:      text,
				})
			}
		}
	}

	if len(state.Progress) == 0 && len(state.Journal) == 0 {
		return nil, len(rows), nil
	}

	return state, len(rows), nil
}

// ApplyRestoredState applies restored state to the store.
// This does NOT re-emit events or trigger pulses.
func ApplyRestoredState(store *goal.Store, state *RestoredState) error {
	if state == nil {
		return nil
	}

	for goalID, progress := range state.Progress {
		if !store.Exists(goalID) {
			continue
		}
		if err := store.SetProgress(goalID, progress); err != nil {
			return err
		}
	}

	for goalID, entries := range state.Journal {
		if !store.Exists(goalID) {
			continue
		}
		if err := store.AppendJournal(goalID, entries); err != nil {
			return err
		}
	}

	return nil
}

// EmitStartupRestore emits the system.startup_restore event.
func EmitStartupRestore(restored int, journeyID string) {
	events.Emit("info", "system.startup_restore", "", map[string]interface{}{
		"restored":   restored,
		"journey_id": journeyID,
	})
}
