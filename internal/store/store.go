// Package store persists workflow definitions
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nodeflow/nodeflow/internal/workflow"
)

// ErrNotFound is returned when a workflow id does not exist
var ErrNotFound = errors.New("workflow not found")

// Workflow is a stored workflow definition
type Workflow struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Definition  workflow.Definition `json:"definition"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Repository is an interface for storing and retrieving workflows
type Repository interface {
	// List returns all stored workflows
	List(ctx context.Context) ([]*Workflow, error)
	// Get retrieves a workflow by its ID
	Get(ctx context.Context, id string) (*Workflow, error)
	// Save creates or updates a workflow
	Save(ctx context.Context, wf *Workflow) error
	// Delete removes a workflow by its ID
	Delete(ctx context.Context, id string) error
}
