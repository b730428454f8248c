package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "bookstore.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "bookstore", scenario.Name)
	assert.Equal(t, filepath.Join("testdata", "documents", "bookstore.json"), scenario.Document)
	require.Len(t, scenario.Steps, 9)
	assert.Equal(t, OpQuery, scenario.Steps[0].Op)
	assert.Equal(t, []any{"A", "B"}, scenario.Steps[0].Expect.Values)
	require.NotNil(t, scenario.Steps[3].Expect.Count)
	assert.Equal(t, 3, *scenario.Steps[3].Expect.Count)
	assert.Len(t, scenario.Assertions, 4)
}

func TestLoadScenario_InlineData(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "links.yaml"))
	require.NoError(t, err)

	assert.Empty(t, scenario.Document)
	assert.Equal(t, map[string]any{"@__link__": "$.base"}, scenario.Data.(map[string]any)["alias"])
	assert.Equal(t, "$.other", scenario.Steps[1].Link)
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "has a typo"
data: {}
steps:
  - op: query
    path: "$.a"
assertion:
  - type: consistent
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestValidateScenario(t *testing.T) {
	valid := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			Data:        map[string]any{},
			Steps:       []Step{{Op: OpQuery, Path: "$.a"}},
		}
	}
	count := -1

	tests := []struct {
		name   string
		mutate func(s *Scenario)
		want   string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"no document", func(s *Scenario) { s.Data = nil }, "one of document or data is required"},
		{"both documents", func(s *Scenario) { s.Document = "x.json" }, "mutually exclusive"},
		{"missing document file", func(s *Scenario) { s.Data, s.Document = nil, "/nonexistent/x.json" }, "document file not found"},
		{"no steps", func(s *Scenario) { s.Steps = nil }, "steps list is required"},
		{"missing op", func(s *Scenario) { s.Steps[0].Op = "" }, "op is required"},
		{"unknown op", func(s *Scenario) { s.Steps[0].Op = "upsert" }, `unknown op "upsert"`},
		{"missing path", func(s *Scenario) { s.Steps[0].Path = "" }, "path is required for query"},
		{"unknown error kind", func(s *Scenario) { s.Steps[0].Expect = &Expect{Error: "oops"} }, `unknown error kind "oops"`},
		{"error with values", func(s *Scenario) {
			s.Steps[0].Expect = &Expect{Error: "syntax", Values: []any{1}}
		}, "error excludes values"},
		{"values on feed", func(s *Scenario) {
			s.Steps[0] = Step{Op: OpFeed, Expect: &Expect{Values: []any{1}}}
		}, "query steps only"},
		{"negative count", func(s *Scenario) { s.Steps[0].Expect = &Expect{Count: &count} }, "count must be non-negative"},
		{"assertion type", func(s *Scenario) { s.Assertions = []Assertion{{}} }, "type is required"},
		{"unknown assertion", func(s *Scenario) { s.Assertions = []Assertion{{Type: "final_state"}} }, `unknown assertion type "final_state"`},
		{"query assertion path", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertQuery, Expect: []any{}}} }, "path is required"},
		{"query assertion list", func(s *Scenario) {
			s.Assertions = []Assertion{{Type: AssertQuery, Path: "$.a", Expect: 1}}
		}, "expect must be a list"},
	}

	require.NoError(t, validateScenario(valid()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateScenario_FeedNeedsNoPath(t *testing.T) {
	s := &Scenario{
		Name:        "s",
		Description: "d",
		Data:        []any{},
		Steps:       []Step{{Op: OpFeed, Value: 1}},
	}
	assert.NoError(t, validateScenario(s))
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "bookstore", scenarios[0].Name)
	assert.Equal(t, "links", scenarios[1].Name)

	_, err = LoadScenarios(t.TempDir())
	assert.Error(t, err)
}
