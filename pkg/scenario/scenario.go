// Package scenario loads relief scenario definitions: the named sites and
// the resource kind each site needs. Scenarios feed the synthetic situation
// search used when no live data source is wired in.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Site is one relief location and the resource kind it requests.
type Site struct {
	Title string `yaml:"title" json:"title"`
	Need  string `yaml:"need" json:"need"`
}

// Scenario is a named collection of relief sites.
type Scenario struct {
	Name  string `yaml:"name" json:"name"`
	Sites []Site `yaml:"sites" json:"sites"`
}

// Default returns the built-in scenario used when no file is configured.
func Default() *Scenario {
	return &Scenario{
		Name: "default",
		Sites: []Site{
			{Title: "Site A", Need: "water"},
			{Title: "Site B", Need: "medical"},
			{Title: "Site C", Need: "food"},
		},
	}
}

// Load reads and validates a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks that every site has a title and a need.
func (s *Scenario) Validate() error {
	if len(s.Sites) == 0 {
		return fmt.Errorf("scenario has no sites")
	}
	for i, site := range s.Sites {
		if site.Title == "" {
			return fmt.Errorf("site %d has no title", i)
		}
		if site.Need == "" {
			return fmt.Errorf("site %q has no need", site.Title)
		}
	}
	return nil
}
