package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/schema"
)

// stubNode applies a record transform, with schemas parsed from the
// build configuration like a real node type would
type stubNode struct {
	in  *schema.Spec
	out *schema.Spec
	fn  func(node.Record) (node.Record, error)
}

func (s *stubNode) InputSchema() *schema.Spec  { return s.in }
func (s *stubNode) OutputSchema() *schema.Spec { return s.out }
func (s *stubNode) Execute(_ context.Context, in node.Record) (node.Record, error) {
	return s.fn(in)
}

// stubRegistry registers a "suffix" type that appends its system prompt
// to the field named by its single output variable
func stubRegistry(t *testing.T, fail map[string]error) *node.Registry {
	t.Helper()

	registry := node.NewRegistry()
	err := registry.Register("suffix", func(cfg node.BuildConfig) (node.Node, error) {
		in, err := schema.ParseTags(cfg.InputSchema)
		if err != nil {
			return nil, err
		}
		out, err := schema.ParseTags(cfg.OutputSchema)
		if err != nil {
			return nil, err
		}
		suffix := cfg.SystemPrompt
		outField := cfg.OutputVariables[0]
		inField := in.FieldNames()[0]

		return &stubNode{in: in, out: out, fn: func(r node.Record) (node.Record, error) {
			if err := fail[suffix]; err != nil {
				return nil, err
			}
			return node.Record{outField: r[inField].(string) + suffix}, nil
		}}, nil
	})
	require.NoError(t, err)
	return registry
}

func suffixSpec(id, inField, outField, suffix string) NodeSpec {
	return NodeSpec{
		ID: id,
		Config: node.BuildConfig{
			Type:            "suffix",
			SystemPrompt:    suffix,
			InputSchema:     map[string]string{inField: "str"},
			OutputSchema:    map[string]string{outField: "str"},
			OutputVariables: []string{outField},
		},
	}
}

func TestRunnerChain(t *testing.T) {
	def := Definition{
		Name: "chain",
		Nodes: []NodeSpec{
			suffixSpec("first", "seed", "mid", "+a"),
			suffixSpec("second", "mid", "final", "+b"),
		},
		Links: []Link{{SourceID: "first", TargetID: "second"}},
	}

	runner := NewRunnerWithRegistry(stubRegistry(t, nil))

	outputs, err := runner.Run(context.Background(), &def, node.Record{"seed": "x"})
	require.NoError(t, err)

	assert.Equal(t, node.Record{"mid": "x+a"}, outputs["first"])
	assert.Equal(t, node.Record{"final": "x+a+b"}, outputs["second"])
}

func TestRunnerFailurePropagates(t *testing.T) {
	cause := errors.New("node blew up")
	def := Definition{
		Name: "chain",
		Nodes: []NodeSpec{
			suffixSpec("first", "seed", "mid", "+a"),
			suffixSpec("second", "mid", "final", "+b"),
		},
		Links: []Link{{SourceID: "first", TargetID: "second"}},
	}

	runner := NewRunnerWithRegistry(stubRegistry(t, map[string]error{"+b": cause}))

	_, err := runner.Run(context.Background(), &def, node.Record{"seed": "x"})
	require.Error(t, err)

	var execErr *node.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "second", execErr.NodeName)
	assert.ErrorIs(t, err, cause)
}

func TestRunnerMissingUpstreamField(t *testing.T) {
	def := Definition{
		Name: "mismatch",
		Nodes: []NodeSpec{
			suffixSpec("first", "seed", "mid", "+a"),
			suffixSpec("second", "other", "final", "+b"),
		},
		Links: []Link{{SourceID: "first", TargetID: "second"}},
	}

	runner := NewRunnerWithRegistry(stubRegistry(t, nil))

	_, err := runner.Run(context.Background(), &def, node.Record{"seed": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not produced upstream")
}

func TestRunnerRejectsBrokenGraph(t *testing.T) {
	def := Definition{
		Name:  "broken",
		Nodes: []NodeSpec{suffixSpec("first", "seed", "mid", "+a")},
		Links: []Link{{SourceID: "first", TargetID: "ghost"}},
	}

	runner := NewRunnerWithRegistry(stubRegistry(t, nil))

	_, err := runner.Run(context.Background(), &def, node.Record{"seed": "x"})
	var integrityErr *GraphIntegrityError
	assert.ErrorAs(t, err, &integrityErr)
}

func TestLoadFromFile(t *testing.T) {
	content := `name: Demo Pipeline
description: two-stage demo
nodes:
  - id: brancher
    config:
      type: branch_solve_merge
      inputSchema:
        task: str
      outputSchema:
        answer: str
      outputVariables:
        - answer
links: []
`
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	def, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Demo Pipeline", def.Name)
	require.Len(t, def.Nodes, 1)
	assert.Equal(t, "branch_solve_merge", def.Nodes[0].Config.Type)
	assert.Equal(t, map[string]string{"task": "str"}, def.Nodes[0].Config.InputSchema)
	assert.Equal(t, []string{"answer"}, def.Nodes[0].Config.OutputVariables)
}

func TestLoadFromFileInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "nodes:\n  - id: a\n",
			wantErr: "name is required",
		},
		{
			name:    "no nodes",
			content: "name: empty\nnodes: []\n",
			wantErr: "at least one node",
		},
		{
			name:    "bad yaml",
			content: "name: [unclosed",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadFromFile(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
