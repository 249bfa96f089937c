package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// mode/focus
	"mode.changed":   {},
	"focus.changed":  {},
	"scroll.input":   {},
	"scroll.ignored": {},

	// cutscene
	"cutscene.triggered": {},
	"cutscene.rejected":  {},
	"cutscene.phase":     {},
	"cutscene.aborted":   {},
	"cutscene.completed": {},

	// ledger
	"ledger.prepared":      {},
	"ledger.committed":     {},
	"contribution.dropped": {},
	"arrival.acknowledged": {},

	// goal
	"goal.updated":     {},
	"journal.appended": {},

	// pulse
	"pulse.started": {},
	"pulse.cleared": {},

	// renderer
	"renderer.registered":   {},
	"renderer.connected":    {},
	"renderer.disconnected": {},
	"renderer.error":        {},

	// operator
	"operator.set_progress": {},
	"operator.abort":        {},

	// system
	"system.startup":         {},
	"system.shutdown":        {},
	"system.error":           {},
	"system.startup_restore": {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
