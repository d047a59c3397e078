package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultScenario(t *testing.T) {
	sc := Default()
	if err := sc.Validate(); err != nil {
		t.Fatalf("Default scenario should validate: %v", err)
	}
	if len(sc.Sites) != 3 {
		t.Errorf("Expected 3 default sites, got %d", len(sc.Sites))
	}
	if sc.Sites[0].Title != "Site A" || sc.Sites[0].Need != "water" {
		t.Errorf("Unexpected first site: %+v", sc.Sites[0])
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flood.yaml")
	content := `name: flood
sites:
  - title: River District
    need: water
  - title: Clinic North
    need: medical
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sc.Name != "flood" {
		t.Errorf("Expected name flood, got %s", sc.Name)
	}
	if len(sc.Sites) != 2 {
		t.Fatalf("Expected 2 sites, got %d", len(sc.Sites))
	}
	if sc.Sites[1].Need != "medical" {
		t.Errorf("Expected medical need, got %s", sc.Sites[1].Need)
	}
}

func TestLoadRejectsInvalidScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := `name: bad
sites:
  - title: Nameless Need
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected validation error for site without need")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidateEmptySites(t *testing.T) {
	sc := &Scenario{Name: "empty"}
	if err := sc.Validate(); err == nil {
		t.Error("Expected error for scenario with no sites")
	}
}
