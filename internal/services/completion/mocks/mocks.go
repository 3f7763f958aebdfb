// Package mocks provides testify mocks for the completion service
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nodeflow/nodeflow/internal/services/completion"
)

// Servicer is a mock implementation of completion.Servicer
type Servicer struct {
	mock.Mock
}

// Complete mocks the Complete method
func (m *Servicer) Complete(ctx context.Context, messages []completion.Message, opts completion.Options) (*completion.Response, error) {
	args := m.Called(ctx, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*completion.Response), args.Error(1)
}

// GetContent mocks the GetContent method
func (m *Servicer) GetContent(ctx context.Context, messages []completion.Message, opts completion.Options) (string, error) {
	args := m.Called(ctx, messages, opts)
	return args.String(0), args.Error(1)
}

var _ completion.Servicer = (*Servicer)(nil)
