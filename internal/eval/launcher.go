// Package eval runs a workflow repeatedly over sampled inputs and
// collects one designated leaf output for scoring
package eval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/utils"
	"github.com/nodeflow/nodeflow/internal/workflow"
)

// DefaultNumSamples is used when a request does not specify a sample count
const DefaultNumSamples = 10

// defaultConcurrency bounds how many samples run at once. This bounds the
// harness's own loop only; bounding engine calls inside a run is the
// engine collaborator's concern.
const defaultConcurrency = 4

// Request asks for one evaluation of a workflow
type Request struct {
	EvalName       string `json:"eval_name"`
	WorkflowID     string `json:"workflow_id"`
	OutputVariable string `json:"output_variable"`
	NumSamples     int    `json:"num_samples"`
}

// SampleResult reports one run of the workflow over one sampled input.
// Value is only set when Error is empty; a failed run never yields a
// partial value.
type SampleResult struct {
	Index int         `json:"index"`
	Input node.Record `json:"input"`
	Value any         `json:"value,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Report aggregates the per-sample results of one evaluation
type Report struct {
	RunID          string         `json:"run_id"`
	EvalName       string         `json:"eval_name"`
	WorkflowID     string         `json:"workflow_id"`
	OutputVariable string         `json:"output_variable"`
	NumSamples     int            `json:"num_samples"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Samples        []SampleResult `json:"samples"`
}

// Sampler produces input records for evaluation runs. Dataset handling
// stays behind this boundary.
type Sampler interface {
	Sample(ctx context.Context, n int) ([]node.Record, error)
}

// Launcher validates an evaluation request against a workflow graph and
// drives the sampled runs
type Launcher struct {
	runner      *workflow.Runner
	concurrency int
}

// NewLauncher creates a Launcher over the given runner
func NewLauncher(runner *workflow.Runner) *Launcher {
	return &Launcher{runner: runner, concurrency: defaultConcurrency}
}

// SetConcurrency overrides how many samples may run at once
func (l *Launcher) SetConcurrency(n int) {
	if n > 0 {
		l.concurrency = n
	}
}

// Launch validates the requested output address against the graph's
// resolvable leaf outputs, then executes the workflow once per sample.
// Validation failures surface before any node executes. Individual
// sample failures are reported per sample, not as an aggregate abort.
func (l *Launcher) Launch(ctx context.Context, def *workflow.Definition, req Request, sampler Sampler) (*Report, error) {
	if req.NumSamples == 0 {
		req.NumSamples = DefaultNumSamples
	}
	if req.NumSamples < 0 {
		return nil, node.NewConfigurationError("num_samples must be positive, got %d", req.NumSamples)
	}

	addresses, err := workflow.ResolveLeafOutputAddresses(def)
	if err != nil {
		return nil, err
	}

	addr, ok := addresses[req.OutputVariable]
	if !ok {
		known := make([]string, 0, len(addresses))
		for s := range addresses {
			known = append(known, s)
		}
		sort.Strings(known)
		return nil, node.NewConfigurationError("invalid output variable %q; must be one of %v", req.OutputVariable, known)
	}

	inputs, err := sampler.Sample(ctx, req.NumSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to sample inputs: %w", err)
	}

	report := &Report{
		RunID:          uuid.New().String(),
		EvalName:       req.EvalName,
		WorkflowID:     req.WorkflowID,
		OutputVariable: req.OutputVariable,
		NumSamples:     len(inputs),
		StartedAt:      time.Now(),
		Samples:        make([]SampleResult, len(inputs)),
	}

	utils.LogInfo("Launching eval %s: %d samples of %s", req.EvalName, len(inputs), req.OutputVariable)

	// A failed sample is recorded, not propagated: one bad run must not
	// cancel its siblings.
	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			report.Samples[i] = l.runSample(ctx, def, addr, i, input)
			return nil
		})
	}
	_ = g.Wait()

	for _, sample := range report.Samples {
		if sample.Error == "" {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	report.FinishedAt = time.Now()

	utils.LogInfo("Eval %s finished: %d succeeded, %d failed", req.EvalName, report.Succeeded, report.Failed)

	return report, nil
}

// runSample executes the workflow once and extracts the addressed value
func (l *Launcher) runSample(ctx context.Context, def *workflow.Definition, addr workflow.Address, index int, input node.Record) SampleResult {
	result := SampleResult{Index: index, Input: input}

	outputs, err := l.runner.Run(ctx, def, input)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	value, ok := outputs[addr.NodeID][addr.Variable]
	if !ok {
		result.Error = fmt.Sprintf("node %s produced no field %s", addr.NodeID, addr.Variable)
		return result
	}

	result.Value = value
	return result
}
