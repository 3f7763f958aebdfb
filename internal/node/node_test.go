package node

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeflow/nodeflow/internal/schema"
)

func TestRecordStringSlice(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		want    []string
		wantErr bool
	}{
		{
			name:   "typed slice",
			record: Record{"subtasks": []string{"a", "b"}},
			want:   []string{"a", "b"},
		},
		{
			name:   "decoded JSON slice",
			record: Record{"subtasks": []any{"a", "b"}},
			want:   []string{"a", "b"},
		},
		{
			name:   "nil value",
			record: Record{"subtasks": nil},
			want:   nil,
		},
		{
			name:    "missing field",
			record:  Record{},
			wantErr: true,
		},
		{
			name:    "non-string element",
			record:  Record{"subtasks": []any{"a", 7}},
			wantErr: true,
		},
		{
			name:    "scalar value",
			record:  Record{"subtasks": "a"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.record.StringSlice("subtasks")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckOutput(t *testing.T) {
	spec := schema.MustNew(map[string]schema.Type{"answer": schema.TypeString, "scores": schema.TypeNumberList})

	assert.NoError(t, CheckOutput(spec, Record{"answer": "x", "scores": []any{1.0}}))
	assert.Error(t, CheckOutput(spec, Record{"answer": "x"}))
}

func TestExecutionErrorWrapping(t *testing.T) {
	cause := errors.New("boom")

	err := NewExecutionError("leaf", cause)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "leaf", execErr.NodeName)
	assert.ErrorIs(t, err, cause)

	// Wrapping an already-wrapped error keeps the original node name,
	// so a composite reports the first failing sub-stage.
	rewrapped := NewExecutionError("composite", err)
	require.ErrorAs(t, rewrapped, &execErr)
	assert.Equal(t, "leaf", execErr.NodeName)

	assert.Nil(t, NewExecutionError("leaf", nil))
}
