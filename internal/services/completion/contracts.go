// Package completion wraps the external reasoning engine behind a
// chat-completions interface
package completion

import (
	"context"
)

// Servicer defines the interface for completion service operations
type Servicer interface {
	// Complete sends a completion request to the API
	Complete(ctx context.Context, messages []Message, opts Options) (*Response, error)

	// GetContent is a helper function that returns just the content from the first choice
	GetContent(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Ensure Service implements Servicer
var _ Servicer = (*Service)(nil)
