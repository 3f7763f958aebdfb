// Package workflow provides the graph model and execution engine for
// node pipelines
package workflow

import (
	"github.com/nodeflow/nodeflow/internal/node"
)

// Definition is a directed graph of named nodes and links between them.
// It arrives from an external boundary (file or store) already
// structurally valid, and is read-only for the duration of a run.
type Definition struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []NodeSpec `json:"nodes" yaml:"nodes"`
	Links       []Link     `json:"links" yaml:"links"`
}

// NodeSpec declares one node of the graph
type NodeSpec struct {
	ID     string           `json:"id" yaml:"id"`
	Config node.BuildConfig `json:"config" yaml:"config"`
}

// Link is a directed edge between two declared nodes
type Link struct {
	SourceID string `json:"source_id" yaml:"source_id"`
	TargetID string `json:"target_id" yaml:"target_id"`
}

// Address is the external handle for one leaf output, rendered as
// "<node_id>-<output_variable>"
type Address struct {
	NodeID   string
	Variable string
}

func (a Address) String() string {
	return a.NodeID + "-" + a.Variable
}

// GraphIntegrityError reports a link that references an undeclared node
// id. Detected before address resolution, never silently ignored.
type GraphIntegrityError struct {
	Msg string
}

func (e *GraphIntegrityError) Error() string {
	return "graph integrity error: " + e.Msg
}
