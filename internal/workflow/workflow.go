package workflow

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/node/llm"
	"github.com/nodeflow/nodeflow/internal/services/completion"
	"github.com/nodeflow/nodeflow/internal/utils"
)

// LoadFromFile loads a workflow definition from a YAML file
func LoadFromFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}

	if err := def.ValidateStructure(); err != nil {
		return nil, fmt.Errorf("invalid workflow definition: %w", err)
	}

	return &def, nil
}

// ValidateStructure checks if the basic definition structure is valid
func (d *Definition) ValidateStructure() error {
	if d.Name == "" {
		return fmt.Errorf("workflow name is required")
	}

	if len(d.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}

	return d.CheckIntegrity()
}

// Runner builds node instances from a definition and executes the graph.
// A Runner is stateless across runs; multiple runs may use the same
// Runner (and the same read-only Definition) concurrently.
type Runner struct {
	registry *node.Registry
}

// NewRunner creates a Runner with the default node types registered
func NewRunner(svc completion.Servicer) (*Runner, error) {
	registry := node.NewRegistry()
	if err := llm.RegisterAll(registry, svc); err != nil {
		return nil, fmt.Errorf("failed to register node types: %w", err)
	}
	return &Runner{registry: registry}, nil
}

// NewRunnerWithRegistry creates a Runner over a caller-provided registry
func NewRunnerWithRegistry(registry *node.Registry) *Runner {
	return &Runner{registry: registry}
}

// Run executes the graph once over the given input record and returns
// every node's output record keyed by node id. Nodes with no upstream
// link receive the run input; every other node receives the merged
// outputs of its upstream nodes, restricted to its declared input fields.
func (r *Runner) Run(ctx context.Context, d *Definition, input node.Record) (map[string]node.Record, error) {
	if err := d.CheckIntegrity(); err != nil {
		return nil, err
	}

	order, err := d.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	instances, err := r.instantiate(d)
	if err != nil {
		return nil, err
	}

	specs := make(map[string]NodeSpec, len(d.Nodes))
	for _, spec := range d.Nodes {
		specs[spec.ID] = spec
	}

	outputs := make(map[string]node.Record, len(d.Nodes))
	for _, nodeID := range order {
		instance := instances[nodeID]

		in, err := r.assembleInput(d, nodeID, instance, input, outputs)
		if err != nil {
			return nil, err
		}

		utils.LogVerbose("Executing node %s (type: %s)", nodeID, specs[nodeID].Config.Type)

		out, err := instance.Execute(ctx, in)
		if err != nil {
			return nil, node.NewExecutionError(nodeID, err)
		}

		outputs[nodeID] = out
	}

	return outputs, nil
}

// instantiate builds one node instance per spec via the registry
func (r *Runner) instantiate(d *Definition) (map[string]node.Node, error) {
	instances := make(map[string]node.Node, len(d.Nodes))
	for _, spec := range d.Nodes {
		instance, err := r.registry.Build(spec.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to build node %s: %w", spec.ID, err)
		}
		instances[spec.ID] = instance
	}
	return instances, nil
}

// assembleInput merges the run input (for root nodes) or the upstream
// outputs (for everything else) into the record the node will consume
func (r *Runner) assembleInput(d *Definition, nodeID string, instance node.Node, input node.Record, outputs map[string]node.Record) (node.Record, error) {
	merged := make(node.Record)

	upstream := d.Upstream(nodeID)
	if len(upstream) == 0 {
		for k, v := range input {
			merged[k] = v
		}
	} else {
		for _, sourceID := range upstream {
			for k, v := range outputs[sourceID] {
				merged[k] = v
			}
		}
	}

	spec := instance.InputSchema()
	if spec == nil {
		return merged, nil
	}

	in := make(node.Record, spec.Len())
	for _, name := range spec.FieldNames() {
		v, ok := merged[name]
		if !ok {
			return nil, node.NewExecutionError(nodeID, fmt.Errorf("input field %s was not produced upstream", name))
		}
		in[name] = v
	}

	return in, nil
}
