package llm

import (
	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/schema"
	"github.com/nodeflow/nodeflow/internal/services/completion"
)

// RegisterAll registers every LLM-backed node type with the registry
func RegisterAll(r *node.Registry, svc completion.Servicer) error {
	if err := r.Register(TypeSingleCall, SingleCallBuilder(svc)); err != nil {
		return err
	}
	return r.Register(TypeBranchSolveMerge, BranchSolveMergeBuilder(svc))
}

// SingleCallBuilder returns a registry builder for single-call nodes
func SingleCallBuilder(svc completion.Servicer) node.Builder {
	return func(cfg node.BuildConfig) (node.Node, error) {
		base, err := baseConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewSingleCall("", base, svc)
	}
}

// BranchSolveMergeBuilder returns a registry builder for branch/solve/merge nodes
func BranchSolveMergeBuilder(svc completion.Servicer) node.Builder {
	return func(cfg node.BuildConfig) (node.Node, error) {
		base, err := baseConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewBranchSolveMerge("", BranchSolveMergeConfig{
			Config:       base,
			BranchPrompt: cfg.BranchPrompt,
			SolvePrompt:  cfg.SolvePrompt,
			MergePrompt:  cfg.MergePrompt,
		}, svc)
	}
}

// baseConfig parses the raw schema tags of a build configuration into an
// immutable node configuration
func baseConfig(cfg node.BuildConfig) (node.Config, error) {
	in, err := schema.ParseTags(cfg.InputSchema)
	if err != nil {
		return node.Config{}, node.NewConfigurationError("invalid input schema: %v", err)
	}
	out, err := schema.ParseTags(cfg.OutputSchema)
	if err != nil {
		return node.Config{}, node.NewConfigurationError("invalid output schema: %v", err)
	}

	return node.Config{
		SystemPrompt: cfg.SystemPrompt,
		InputSchema:  in,
		OutputSchema: out,
		ModelParams:  cfg.ModelParams,
	}, nil
}
