package goal

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGoalsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goals.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write goals file: %v", err)
	}
	return path
}

func TestLoadStore(t *testing.T) {
	path := writeGoalsFile(t, `
version: 1
goals:
  - id: fitness
    title: Get Fit
    color: "#e74c3c"
    progress: 40
    milestones:
      - id: m1
        title: First 5k
        status: completed
  - id: reading
    title: Read More
    color: "#3498db"
    progress: 70
`)

	s, err := LoadStore(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if s.Count() != 2 {
		t.Fatalf("expected 2 goals, got %d", s.Count())
	}

	g, ok := s.Get("fitness")
	if !ok {
		t.Fatal("fitness missing")
	}
	if g.Progress != 40 || g.Color != "#e74c3c" {
		t.Errorf("unexpected goal: %+v", g)
	}
	if len(g.Milestones) != 1 || g.Milestones[0].Status != MilestoneCompleted {
		t.Errorf("unexpected milestones: %+v", g.Milestones)
	}
}

func TestLoadStoreRejectsWrongVersion(t *testing.T) {
	path := writeGoalsFile(t, `
version: 2
goals: []
`)
	if _, err := LoadStore(path); err == nil {
		t.Fatal("expected version 2 to be rejected")
	}
}

func TestLoadStoreMissingFile(t *testing.T) {
	if _, err := LoadStore(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
