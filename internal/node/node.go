// Package node provides the core execution contract for pipeline nodes
package node

import (
	"context"
	"fmt"

	"github.com/nodeflow/nodeflow/internal/schema"
)

// Record is one unit of node input or output. Field names and value
// shapes follow the node's declared schema.
type Record map[string]any

// StringSlice reads a list[str] field from the record, accepting both a
// decoded []string and the []any produced by JSON/YAML unmarshaling.
func (r Record) StringSlice(field string) ([]string, error) {
	raw, ok := r[field]
	if !ok {
		return nil, fmt.Errorf("record is missing field %s", field)
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("field %s element %d is not a string", field, i)
			}
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("field %s is not a string list", field)
	}
}

// ModelParams holds engine-specific tuning parameters. The core treats
// them as opaque pass-through values for the completion service.
type ModelParams struct {
	Model            string  `json:"model" yaml:"model"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	MaxTokens        int     `json:"maxTokens" yaml:"maxTokens"`
	RequestTimeoutMS int     `json:"requestTimeoutMs" yaml:"requestTimeoutMs"`
}

// Config is the immutable configuration a node is constructed with.
// It is never mutated after the node begins executing.
type Config struct {
	SystemPrompt string
	InputSchema  *schema.Spec
	OutputSchema *schema.Spec
	ModelParams  ModelParams
}

// Node is a typed unit of execution: given an input record matching its
// input schema it asynchronously produces an output record matching its
// output schema. Execute must be safe for concurrent calls on the same
// instance — composites invoke the same sub-node once per subtask.
type Node interface {
	InputSchema() *schema.Spec
	OutputSchema() *schema.Spec
	Execute(ctx context.Context, input Record) (Record, error)
}

// CheckOutput verifies that a produced record carries every field the
// output schema declares.
func CheckOutput(spec *schema.Spec, out Record) error {
	for _, name := range spec.FieldNames() {
		if _, ok := out[name]; !ok {
			return fmt.Errorf("output record is missing declared field %s", name)
		}
	}
	return nil
}
