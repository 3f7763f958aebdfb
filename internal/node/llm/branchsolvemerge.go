package llm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/schema"
	"github.com/nodeflow/nodeflow/internal/services/completion"
)

// Field names threaded between the composite's stages
const (
	FieldSubtasks  = "subtasks"
	FieldSolutions = "subtask_solutions"
)

// Default stage instructions, used when the configuration leaves them empty
const (
	DefaultBranchPrompt = "Please decompose the following task into multiple subtasks."
	DefaultSolvePrompt  = "Please provide a detailed solution for the following subtask:"
	DefaultMergePrompt  = "Please combine the following solutions into a coherent and comprehensive final answer."
)

// BranchSolveMergeConfig configures the three-stage composite. The base
// Config supplies the composite's outer schemas and shared tuning
// parameters; the role prompts override the stage instructions.
type BranchSolveMergeConfig struct {
	node.Config
	BranchPrompt string
	SolvePrompt  string
	MergePrompt  string
}

// BranchSolveMerge is a composite node: decompose the task into subtasks,
// solve every subtask concurrently, then merge the solutions. The three
// sub-nodes are built at construction time with their schemas wired
// together, and are owned exclusively by the composite.
type BranchSolveMerge struct {
	name   string
	branch *SingleCall
	solve  *SingleCall
	merge  *SingleCall
}

// NewBranchSolveMerge wires the three stages together. The branch output
// schema is shared by reference with the solve input schema, and the
// solve output schema with the merge input schema; any disagreement is a
// configuration error raised here, not at first execution.
func NewBranchSolveMerge(name string, cfg BranchSolveMergeConfig, svc completion.Servicer) (*BranchSolveMerge, error) {
	if name == "" {
		name = TypeBranchSolveMerge
	}
	if cfg.InputSchema == nil || cfg.OutputSchema == nil {
		return nil, node.NewConfigurationError("node %s: input and output schemas are required", name)
	}

	branchPrompt := cfg.BranchPrompt
	if branchPrompt == "" {
		branchPrompt = DefaultBranchPrompt
	}
	solvePrompt := cfg.SolvePrompt
	if solvePrompt == "" {
		solvePrompt = DefaultSolvePrompt
	}
	mergePrompt := cfg.MergePrompt
	if mergePrompt == "" {
		mergePrompt = DefaultMergePrompt
	}

	branchOut := schema.MustNew(map[string]schema.Type{FieldSubtasks: schema.TypeStringList})
	solveOut := schema.MustNew(map[string]schema.Type{FieldSolutions: schema.TypeStringList})

	branch, err := NewSingleCall(name+".branch", node.Config{
		SystemPrompt: branchPrompt,
		InputSchema:  cfg.InputSchema,
		OutputSchema: branchOut,
		ModelParams:  cfg.ModelParams,
	}, svc)
	if err != nil {
		return nil, err
	}

	solve, err := NewSingleCall(name+".solve", node.Config{
		SystemPrompt: solvePrompt,
		InputSchema:  branchOut,
		OutputSchema: solveOut,
		ModelParams:  cfg.ModelParams,
	}, svc)
	if err != nil {
		return nil, err
	}

	merge, err := NewSingleCall(name+".merge", node.Config{
		SystemPrompt: mergePrompt,
		InputSchema:  solveOut,
		OutputSchema: cfg.OutputSchema,
		ModelParams:  cfg.ModelParams,
	}, svc)
	if err != nil {
		return nil, err
	}

	// The wiring above shares schema instances, so these hold by
	// construction; check them eagerly all the same so a future change
	// to stage schemas fails here.
	if err := schema.Compatible(branch.OutputSchema(), solve.InputSchema()); err != nil {
		return nil, node.NewConfigurationError("node %s: branch/solve wiring: %v", name, err)
	}
	if err := schema.Compatible(solve.OutputSchema(), merge.InputSchema()); err != nil {
		return nil, node.NewConfigurationError("node %s: solve/merge wiring: %v", name, err)
	}

	return &BranchSolveMerge{
		name:   name,
		branch: branch,
		solve:  solve,
		merge:  merge,
	}, nil
}

// Name returns the composite's name
func (n *BranchSolveMerge) Name() string {
	return n.name
}

// InputSchema returns the branch stage's input schema
func (n *BranchSolveMerge) InputSchema() *schema.Spec {
	return n.branch.InputSchema()
}

// OutputSchema returns the merge stage's output schema
func (n *BranchSolveMerge) OutputSchema() *schema.Spec {
	return n.merge.OutputSchema()
}

// Execute runs the three stages in order. The solve stage fans out one
// concurrent invocation per subtask and joins before merge begins;
// assembled solutions keep the original subtask order regardless of
// completion order. Any stage failure fails the whole call — no partial
// result is ever returned.
func (n *BranchSolveMerge) Execute(ctx context.Context, input node.Record) (node.Record, error) {
	// Stage 1: branch - generate subtasks
	branchOut, err := n.branch.Execute(ctx, input)
	if err != nil {
		return nil, node.NewExecutionError(n.name, err)
	}

	subtasks, err := branchOut.StringSlice(FieldSubtasks)
	if err != nil {
		return nil, node.NewExecutionError(n.name, err)
	}

	// Stage 2: solve - one concurrent invocation per subtask. A failed
	// invocation cancels the context shared by its siblings.
	solutions := make([][]string, len(subtasks))

	g, gctx := errgroup.WithContext(ctx)
	for i, subtask := range subtasks {
		i, subtask := i, subtask
		g.Go(func() error {
			solveOut, err := n.solve.Execute(gctx, node.Record{FieldSubtasks: []string{subtask}})
			if err != nil {
				return err
			}
			solved, err := solveOut.StringSlice(FieldSolutions)
			if err != nil {
				return err
			}
			solutions[i] = solved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, node.NewExecutionError(n.name, err)
	}

	assembled := make([]string, 0, len(subtasks))
	for _, solved := range solutions {
		assembled = append(assembled, solved...)
	}

	// Stage 3: merge - combine the solutions into the final output.
	// Merging zero solutions is a defined, non-error case.
	mergeOut, err := n.merge.Execute(ctx, node.Record{FieldSolutions: assembled})
	if err != nil {
		return nil, node.NewExecutionError(n.name, err)
	}

	return mergeOut, nil
}
