package node

import (
	"fmt"
	"sort"
	"sync"
)

// BuildConfig is the raw, definition-level configuration a node is built
// from. Schemas arrive as string tags exactly as written in a workflow
// definition; builders parse and validate them.
type BuildConfig struct {
	Type            string            `json:"type" yaml:"type"`
	SystemPrompt    string            `json:"systemPrompt" yaml:"systemPrompt"`
	BranchPrompt    string            `json:"branchPrompt,omitempty" yaml:"branchPrompt,omitempty"`
	SolvePrompt     string            `json:"solvePrompt,omitempty" yaml:"solvePrompt,omitempty"`
	MergePrompt     string            `json:"mergePrompt,omitempty" yaml:"mergePrompt,omitempty"`
	InputSchema     map[string]string `json:"inputSchema" yaml:"inputSchema"`
	OutputSchema    map[string]string `json:"outputSchema" yaml:"outputSchema"`
	OutputVariables []string          `json:"outputVariables" yaml:"outputVariables"`
	ModelParams     ModelParams       `json:"modelParams" yaml:"modelParams"`
}

// Builder constructs a node instance from its build configuration
type Builder func(cfg BuildConfig) (Node, error)

// Registry stores the closed set of known node types
type Registry struct {
	builders     map[string]Builder
	sync.RWMutex // Add thread safety
}

// NewRegistry creates an empty node type registry
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

// Register adds a node type to the registry
func (r *Registry) Register(name string, builder Builder) error {
	if name == "" {
		return fmt.Errorf("node type name cannot be empty")
	}
	if builder == nil {
		return fmt.Errorf("cannot register nil builder for type %s", name)
	}

	r.Lock()
	defer r.Unlock()

	if _, exists := r.builders[name]; exists {
		return fmt.Errorf("node type %s is already registered", name)
	}

	r.builders[name] = builder
	return nil
}

// Build constructs a node of the configured type
func (r *Registry) Build(cfg BuildConfig) (Node, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("node type cannot be empty")
	}

	r.RLock()
	builder, exists := r.builders[cfg.Type]
	r.RUnlock()

	if !exists {
		return nil, fmt.Errorf("node type %s not found", cfg.Type)
	}

	return builder(cfg)
}

// Types returns the registered type names in sorted order
func (r *Registry) Types() []string {
	r.RLock()
	defer r.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
