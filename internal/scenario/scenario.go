// Package scenario loads the named end-to-end fixtures that spec.md §8
// enumerates ("Testable properties" / "End-to-end scenarios") from YAML, so
// the fixture list lives in data rather than being re-typed as Go literals
// in every test file that wants to enumerate them. The Core expression each
// scenario exercises is still built in Go (there is no parser in this
// module to turn `Source` into a Surface AST); Source and ExpectedType are
// carried for documentation and to cross-check a test's hand-built
// expression actually corresponds to the scenario it claims to cover.
//
// Grounded on the shape of internal/manifest's Example/Statistics records
// (a flat, tagged struct per fixture plus an aggregate count), adapted from
// JSON to YAML per this module's own ambient test tooling.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes the two families of fixture spec.md §8 lists.
type Kind string

const (
	// KindProperty is a quantified invariant ("for all well-typed terms e, ...").
	KindProperty Kind = "property"
	// KindEndToEnd is a literal-input, literal-expected-output scenario.
	KindEndToEnd Kind = "end_to_end"
)

// Scenario is one fixture entry.
type Scenario struct {
	Name         string   `yaml:"name"`
	Kind         Kind     `yaml:"kind"`
	Source       string   `yaml:"source"`
	ExpectedType string   `yaml:"expected_type,omitempty"`
	Expected     string   `yaml:"expected,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	Notes        string   `yaml:"notes,omitempty"`
}

// File is the top-level document shape of a scenario YAML file.
type File struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load reads and parses a single scenario YAML file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}
	return &f, nil
}

// LoadDir reads every *.yaml file directly under dir and concatenates their
// scenarios, in filename order.
func LoadDir(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading dir %s: %w", dir, err)
	}
	var all []Scenario
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		f, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, f.Scenarios...)
	}
	return all, nil
}

// ByName indexes scenarios for fast lookup by a test that wants "the fixture
// named X" rather than iterating.
func ByName(scenarios []Scenario) map[string]Scenario {
	idx := make(map[string]Scenario, len(scenarios))
	for _, s := range scenarios {
		idx[s.Name] = s
	}
	return idx
}
