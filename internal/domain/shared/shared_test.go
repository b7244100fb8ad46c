package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{"empty", nil, 3, nil},
		{"exact", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"remainder", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"size larger than input", []int{1, 2}, 10, [][]int{{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.items, tt.size))
		})
	}

	t.Run("non-positive size uses the default", func(t *testing.T) {
		items := make([]int, DefaultBatchSize+1)
		chunks := Chunk(items, 0)
		require.Len(t, chunks, 2)
		assert.Len(t, chunks[0], DefaultBatchSize)
		assert.Len(t, chunks[1], 1)
	})
}

func TestDomainError(t *testing.T) {
	wrapped := fmt.Errorf("%w: unknown source %q", ErrInvalidInput, "sheets")

	assert.ErrorIs(t, wrapped, ErrInvalidInput)
	assert.NotErrorIs(t, wrapped, ErrNotFound)
	assert.ErrorIs(t, NewDomainError("CONFLICT", "someone else"), ErrConflict)

	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestNoopRunGuard(t *testing.T) {
	release, err := NoopRunGuard{}.Acquire(context.Background(), "reconcile:orders", time.Minute)
	require.NoError(t, err)
	assert.NoError(t, release(context.Background()))
}
