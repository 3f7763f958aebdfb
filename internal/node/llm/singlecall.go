// Package llm implements pipeline nodes backed by the completion service
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nodeflow/nodeflow/internal/node"
	"github.com/nodeflow/nodeflow/internal/schema"
	"github.com/nodeflow/nodeflow/internal/services/completion"
)

// Node type names, the closed set the registry knows about
const (
	TypeSingleCall       = "single_call"
	TypeBranchSolveMerge = "branch_solve_merge"
)

// SingleCall is a leaf node: one structured call to the reasoning engine.
// It holds no mutable state, so the same instance may serve any number of
// concurrent Execute calls.
type SingleCall struct {
	name string
	cfg  node.Config
	svc  completion.Servicer
}

// NewSingleCall creates a single-call node from an immutable configuration
func NewSingleCall(name string, cfg node.Config, svc completion.Servicer) (*SingleCall, error) {
	if name == "" {
		name = TypeSingleCall
	}
	if cfg.InputSchema == nil || cfg.OutputSchema == nil {
		return nil, node.NewConfigurationError("node %s: input and output schemas are required", name)
	}
	if svc == nil {
		return nil, node.NewConfigurationError("node %s: completion service is required", name)
	}

	return &SingleCall{name: name, cfg: cfg, svc: svc}, nil
}

// Name returns the node's name
func (n *SingleCall) Name() string {
	return n.name
}

// InputSchema returns the node's input schema
func (n *SingleCall) InputSchema() *schema.Spec {
	return n.cfg.InputSchema
}

// OutputSchema returns the node's output schema
func (n *SingleCall) OutputSchema() *schema.Spec {
	return n.cfg.OutputSchema
}

// Execute sends the input record to the completion service and parses the
// reply into an output record matching the declared output schema
func (n *SingleCall) Execute(ctx context.Context, input node.Record) (node.Record, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, node.NewExecutionError(n.name, fmt.Errorf("failed to marshal input record: %w", err))
	}

	messages := []completion.Message{
		{Role: "system", Content: systemPrompt(n.cfg.SystemPrompt, n.cfg.OutputSchema)},
		{Role: "user", Content: string(payload)},
	}

	opts := completion.Options{
		Model:            n.cfg.ModelParams.Model,
		Temperature:      n.cfg.ModelParams.Temperature,
		MaxTokens:        n.cfg.ModelParams.MaxTokens,
		RequestTimeoutMS: n.cfg.ModelParams.RequestTimeoutMS,
	}

	content, err := n.svc.GetContent(ctx, messages, opts)
	if err != nil {
		return nil, node.NewExecutionError(n.name, err)
	}

	output, err := parseRecord(content)
	if err != nil {
		return nil, node.NewExecutionError(n.name, err)
	}

	if err := node.CheckOutput(n.cfg.OutputSchema, output); err != nil {
		return nil, node.NewExecutionError(n.name, err)
	}

	return output, nil
}

// systemPrompt appends the structured-output instruction derived from the
// output schema to the node's instruction string
func systemPrompt(instruction string, out *schema.Spec) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nRespond with a single JSON object containing exactly these fields:\n")
	for _, name := range out.FieldNames() {
		tag, _ := out.Type(name)
		b.WriteString(fmt.Sprintf("- %q: %s\n", name, describeType(tag)))
	}
	b.WriteString("Do not include any text outside the JSON object.")
	return b.String()
}

// describeType renders a type tag as a prompt-friendly description
func describeType(t schema.Type) string {
	switch t {
	case schema.TypeString:
		return "a string"
	case schema.TypeNumber:
		return "a number"
	case schema.TypeBool:
		return "a boolean"
	case schema.TypeStringList:
		return "a JSON array of strings"
	case schema.TypeNumberList:
		return "a JSON array of numbers"
	case schema.TypeBoolList:
		return "a JSON array of booleans"
	default:
		return string(t)
	}
}

// parseRecord decodes a completion reply into a record, tolerating the
// markdown code fences some models wrap JSON in
func parseRecord(content string) (node.Record, error) {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	var record node.Record
	if err := json.Unmarshal([]byte(cleaned), &record); err != nil {
		return nil, fmt.Errorf("failed to parse completion reply as JSON: %w", err)
	}

	return record, nil
}
