package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	values map[string]int
}

func (s counterState) Clone() counterState {
	out := counterState{values: make(map[string]int, len(s.values))}
	for key, value := range s.values {
		out.values[key] = value
	}
	return out
}

func TestMemoryRollsBackFailedTransaction(t *testing.T) {
	mem := NewMemory(counterState{values: map[string]int{"a": 1}})
	boom := errors.New("boom")

	err := mem.WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, mem.Write(ctx, func(s *counterState) error {
			s.values["a"] = 2
			s.values["b"] = 1
			return nil
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	mem.Read(context.Background(), func(s *counterState) {
		assert.Equal(t, map[string]int{"a": 1}, s.values)
	})
}

func TestMemoryCommitsSuccessfulTransaction(t *testing.T) {
	mem := NewMemory(counterState{values: map[string]int{}})

	err := mem.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := mem.Write(ctx, func(s *counterState) error {
			s.values["a"]++
			return nil
		}); err != nil {
			return err
		}
		mem.Read(ctx, func(s *counterState) {
			assert.Equal(t, 1, s.values["a"])
		})
		return nil
	})
	require.NoError(t, err)

	mem.Read(context.Background(), func(s *counterState) {
		assert.Equal(t, 1, s.values["a"])
	})
}

func TestMemoryWriteErrorLeavesStateUntouched(t *testing.T) {
	mem := NewMemory(counterState{values: map[string]int{"a": 1}})

	err := mem.Write(context.Background(), func(s *counterState) error {
		s.values["a"] = 99
		return errors.New("invariant")
	})
	require.Error(t, err)

	mem.Read(context.Background(), func(s *counterState) {
		assert.Equal(t, 1, s.values["a"])
	})
}
