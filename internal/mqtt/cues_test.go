package mqtt

import "testing"

func TestIsCueEvent(t *testing.T) {
	cues := []string{
		"cutscene.triggered",
		"cutscene.phase",
		"cutscene.completed",
		"pulse.started",
		"pulse.cleared",
		"goal.updated",
	}
	for _, name := range cues {
		if !isCueEvent(name) {
			t.Errorf("expected %s to be forwarded to renderers", name)
		}
	}

	internal := []string{
		"system.startup",
		"renderer.connected",
		"operator.set_progress",
		"scroll.input",
	}
	for _, name := range internal {
		if isCueEvent(name) {
			t.Errorf("expected %s to stay off the cue topics", name)
		}
	}
}
