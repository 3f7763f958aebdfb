package eval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/schema"
	"github.com/nodeflow/nodeflow/internal/workflow"
)

// echoNode answers with "<task>!" and counts its executions
type echoNode struct {
	executions *atomic.Int32
	failOn     string
}

func (e *echoNode) InputSchema() *schema.Spec {
	return schema.MustNew(map[string]schema.Type{"task": schema.TypeString})
}

func (e *echoNode) OutputSchema() *schema.Spec {
	return schema.MustNew(map[string]schema.Type{"answer": schema.TypeString})
}

func (e *echoNode) Execute(_ context.Context, in node.Record) (node.Record, error) {
	e.executions.Add(1)
	task := in["task"].(string)
	if e.failOn != "" && task == e.failOn {
		return nil, errors.New("scripted failure")
	}
	return node.Record{"answer": task + "!"}, nil
}

func echoRunner(t *testing.T, executions *atomic.Int32, failOn string) *workflow.Runner {
	t.Helper()

	registry := node.NewRegistry()
	err := registry.Register("echo", func(node.BuildConfig) (node.Node, error) {
		return &echoNode{executions: executions, failOn: failOn}, nil
	})
	require.NoError(t, err)

	return workflow.NewRunnerWithRegistry(registry)
}

func echoDefinition() *workflow.Definition {
	return &workflow.Definition{
		Name: "echo pipeline",
		Nodes: []workflow.NodeSpec{
			{ID: "solver", Config: node.BuildConfig{Type: "echo", OutputVariables: []string{"answer"}}},
		},
	}
}

type sliceSampler struct {
	inputs []node.Record
}

func (s *sliceSampler) Sample(_ context.Context, n int) ([]node.Record, error) {
	if n > len(s.inputs) {
		n = len(s.inputs)
	}
	return s.inputs[:n], nil
}

func TestLaunch(t *testing.T) {
	var executions atomic.Int32
	launcher := NewLauncher(echoRunner(t, &executions, ""))

	sampler := &sliceSampler{inputs: []node.Record{
		{"task": "one"}, {"task": "two"}, {"task": "three"},
	}}

	report, err := launcher.Launch(context.Background(), echoDefinition(), Request{
		EvalName:       "demo",
		WorkflowID:     "wf-1",
		OutputVariable: "solver-answer",
		NumSamples:     3,
	}, sampler)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 3, report.NumSamples)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, int32(3), executions.Load())

	// Results keep sample order regardless of completion order.
	wantValues := []string{"one!", "two!", "three!"}
	for i, sample := range report.Samples {
		assert.Equal(t, i, sample.Index)
		assert.Equal(t, wantValues[i], sample.Value)
		assert.Empty(t, sample.Error)
	}
}

func TestLaunchPerSampleFailure(t *testing.T) {
	var executions atomic.Int32
	launcher := NewLauncher(echoRunner(t, &executions, "two"))

	sampler := &sliceSampler{inputs: []node.Record{
		{"task": "one"}, {"task": "two"}, {"task": "three"},
	}}

	report, err := launcher.Launch(context.Background(), echoDefinition(), Request{
		OutputVariable: "solver-answer",
		NumSamples:     3,
	}, sampler)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	assert.Empty(t, report.Samples[0].Error)
	assert.Contains(t, report.Samples[1].Error, "scripted failure")
	assert.Nil(t, report.Samples[1].Value)
	assert.Empty(t, report.Samples[2].Error)
}

func TestLaunchRejectsUnknownAddress(t *testing.T) {
	var executions atomic.Int32
	launcher := NewLauncher(echoRunner(t, &executions, ""))

	_, err := launcher.Launch(context.Background(), echoDefinition(), Request{
		OutputVariable: "solver-nope",
	}, &sliceSampler{})

	var cfgErr *node.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "solver-nope")
	assert.Contains(t, err.Error(), "solver-answer")
	assert.Equal(t, int32(0), executions.Load(), "no node may execute on a validation failure")
}

func TestLaunchRejectsNonLeafAddress(t *testing.T) {
	var executions atomic.Int32
	launcher := NewLauncher(echoRunner(t, &executions, ""))

	// X has an outgoing link, so X-y must not be addressable even though
	// X declares y as an output variable.
	def := &workflow.Definition{
		Name: "two stage",
		Nodes: []workflow.NodeSpec{
			{ID: "X", Config: node.BuildConfig{Type: "echo", OutputVariables: []string{"y"}}},
			{ID: "sink", Config: node.BuildConfig{Type: "echo", OutputVariables: []string{"answer"}}},
		},
		Links: []workflow.Link{{SourceID: "X", TargetID: "sink"}},
	}

	_, err := launcher.Launch(context.Background(), def, Request{OutputVariable: "X-y"}, &sliceSampler{})

	var cfgErr *node.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, int32(0), executions.Load())
}

func TestLaunchSurfacesIntegrityError(t *testing.T) {
	var executions atomic.Int32
	launcher := NewLauncher(echoRunner(t, &executions, ""))

	def := echoDefinition()
	def.Links = []workflow.Link{{SourceID: "solver", TargetID: "ghost"}}

	_, err := launcher.Launch(context.Background(), def, Request{OutputVariable: "solver-answer"}, &sliceSampler{})

	var integrityErr *workflow.GraphIntegrityError
	assert.ErrorAs(t, err, &integrityErr)
}

func TestLaunchSampleCountDefaults(t *testing.T) {
	var executions atomic.Int32
	launcher := NewLauncher(echoRunner(t, &executions, ""))

	_, err := launcher.Launch(context.Background(), echoDefinition(), Request{
		OutputVariable: "solver-answer",
		NumSamples:     -1,
	}, &sliceSampler{})
	var cfgErr *node.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	inputs := make([]node.Record, DefaultNumSamples+5)
	for i := range inputs {
		inputs[i] = node.Record{"task": fmt.Sprintf("t%d", i)}
	}

	report, err := launcher.Launch(context.Background(), echoDefinition(), Request{
		OutputVariable: "solver-answer",
	}, &sliceSampler{inputs: inputs})
	require.NoError(t, err)
	assert.Equal(t, DefaultNumSamples, report.NumSamples)
}

func TestTaskCatalog(t *testing.T) {
	dir := t.TempDir()

	task := `metadata:
  name: arithmetic
  description: two-digit addition
  type: reasoning
  num_samples: 5
  paper_link: https://example.org/paper
samples:
  - task: "12+34"
  - task: "56+78"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "arithmetic.yaml"), []byte(task), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unnamed.yaml"), []byte("samples:\n  - task: x\n"), 0644))

	infos, err := ListTasks(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byName := make(map[string]TaskInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	assert.Equal(t, "arithmetic.yaml", byName["arithmetic"].FileName)
	assert.Equal(t, 5, byName["arithmetic"].NumSamples)
	// A task without metadata falls back to its file name.
	assert.Contains(t, byName, "unnamed")

	loaded, err := FindTask(dir, "arithmetic")
	require.NoError(t, err)
	assert.Len(t, loaded.Samples, 2)

	_, err = FindTask(dir, "missing")
	assert.Error(t, err)
}

func TestTaskSamplerWrapsAround(t *testing.T) {
	task := &Task{Samples: []node.Record{{"task": "a"}, {"task": "b"}}}

	inputs, err := task.Sampler().Sample(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, inputs, 5)
	assert.Equal(t, "a", inputs[0]["task"])
	assert.Equal(t, "b", inputs[1]["task"])
	assert.Equal(t, "a", inputs[2]["task"])

	empty := &Task{}
	_, err = empty.Sampler().Sample(context.Background(), 1)
	assert.Error(t, err)
}

func TestListTasksMissingDir(t *testing.T) {
	_, err := ListTasks(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
