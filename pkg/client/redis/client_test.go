package redis

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestDoWithTries_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := doWithTries(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoWithTries_ReturnsLastError(t *testing.T) {
	calls := 0
	err := doWithTries(context.Background(), func() error {
		calls++
		return errors.New("connection refused")
	}, 2, time.Millisecond)

	require.EqualError(t, err, "connection refused")
	assert.Equal(t, 2, calls)
}

func TestDoWithTries_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := doWithTries(ctx, func() error {
		return errors.New("connection refused")
	}, 5, time.Hour)

	require.ErrorIs(t, err, context.Canceled)
}
