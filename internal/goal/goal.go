package goal

import "time"

// MilestoneStatus represents the lifecycle state of a milestone.
type MilestoneStatus string

const (
	MilestoneActive    MilestoneStatus = "active"
	MilestoneCompleted MilestoneStatus = "completed"
)

// Milestone is a sub-item of a goal.
type Milestone struct {
	ID          string          `yaml:"id" json:"id"`
	Title       string          `yaml:"title" json:"title"`
	Status      MilestoneStatus `yaml:"status" json:"status"`
	CompletedAt string          `yaml:"completed_at,omitempty" json:"completed_at,omitempty"`
	Recap       string          `yaml:"recap,omitempty" json:"recap,omitempty"`
}

// JournalEntry is a timestamped narrative entry in a goal's history.
type JournalEntry struct {
	Timestamp time.Time `yaml:"ts" json:"ts"`
	Text      string    `yaml:"text" json:"text"`
}

// Goal is a trackable objective with canonical progress and narrative history.
type Goal struct {
	ID         string         `yaml:"id" json:"id"`
	Title      string         `yaml:"title" json:"title"`
	Color      string         `yaml:"color" json:"color"`
	Progress   int            `yaml:"progress" json:"progress"`
	Milestones []Milestone    `yaml:"milestones,omitempty" json:"milestones,omitempty"`
	Journal    []JournalEntry `yaml:"journal,omitempty" json:"journal,omitempty"`
}

// ClampProgress clamps a progress value into the canonical [0,100] range.
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
