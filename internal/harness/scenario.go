package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a starting document, a
// sequence of queries and mutations, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is a JSON, YAML or CUE file holding the starting document.
	// Relative paths are resolved against the scenario file.
	Document string `yaml:"document,omitempty"`

	// Data is an inline starting document, used when Document is empty.
	Data any `yaml:"data,omitempty"`

	// LinkKey overrides the dict key that declares a link.
	LinkKey string `yaml:"link_key,omitempty"`

	// Steps run in order against the document.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpQuery   = "query"
	OpFeed    = "feed"
	OpReplace = "replace"
	OpDelete  = "delete"
	OpLink    = "link"
)

// Step is one query or mutation.
type Step struct {
	// Op is one of query, feed, replace, delete or link.
	Op string `yaml:"op"`

	// Path is the query for query steps and the target row otherwise.
	Path string `yaml:"path,omitempty"`

	// Value is the data written by feed and replace.
	Value any `yaml:"value,omitempty"`

	// Link is the new link path for link steps; empty clears the link.
	Link string `yaml:"link,omitempty"`

	// Expect checks the step outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Values are the expected materialized query results, in order.
	Values []any `yaml:"values,omitempty"`

	// Count is the expected number of query results.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected error kind (see ErrorKind). When set the step
	// must fail with that kind.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "query": results of Path equal Expect
	// - "document": the whole document equals Expect
	// - "consistent": the stored tree is structurally sound
	Type string `yaml:"type"`

	// Path is the query (used by query).
	Path string `yaml:"path,omitempty"`

	// Expect is the expected value (used by query and document).
	Expect any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertQuery      = "query"
	AssertDocument   = "document"
	AssertConsistent = "consistent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml scenario in dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, m...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}
	slices.Sort(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Document != "" && s.Data != nil:
		return fmt.Errorf("document and data are mutually exclusive")
	case s.Document != "":
		if _, err := os.Stat(s.Document); os.IsNotExist(err) {
			return fmt.Errorf("document file not found: %s", s.Document)
		}
	case s.Data == nil:
		return fmt.Errorf("one of document or data is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpQuery, OpReplace, OpDelete, OpLink:
		if st.Path == "" {
			return fmt.Errorf("steps[%d]: path is required for %s", index, st.Op)
		}
	case OpFeed:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if e := st.Expect; e != nil {
		if st.Op != OpQuery && (e.Values != nil || e.Count != nil) {
			return fmt.Errorf("steps[%d].expect: values and count apply to query steps only", index)
		}
		if e.Error != "" {
			if _, ok := kindErrors[e.Error]; !ok {
				return fmt.Errorf("steps[%d].expect: unknown error kind %q", index, e.Error)
			}
			if e.Values != nil || e.Count != nil {
				return fmt.Errorf("steps[%d].expect: error excludes values and count", index)
			}
		}
		if e.Count != nil && *e.Count < 0 {
			return fmt.Errorf("steps[%d].expect: count must be non-negative", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertQuery:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for query", index)
		}
		if _, ok := a.Expect.([]any); !ok {
			return fmt.Errorf("assertions[%d]: expect must be a list for query", index)
		}
	case AssertDocument, AssertConsistent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
