package timeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatch_NoPendingTransit_EmitsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	now := time.Now()
	calls := 0
	err := Watch(context.Background(), []models.TimelineEntry{
		{Status: models.StatusDelivered, Timestamp: now.Add(time.Hour).UnixMilli()},
	}, time.Millisecond, func() time.Time { return now }, func(out []models.DisplayEntry) error {
		calls++
		require.Len(t, out, 1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestWatch_StopsWhenTransitTimeReached(t *testing.T) {
	defer goleak.VerifyNone(t)

	start := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	transitAt := start.Add(2 * time.Minute)

	// каждый вызов now() сдвигает часы на минуту
	var tick atomic.Int64
	clock := func() time.Time {
		return start.Add(time.Duration(tick.Add(1)-1) * time.Minute)
	}

	var frames [][]models.DisplayEntry
	err := Watch(context.Background(), []models.TimelineEntry{
		{Status: models.StatusPickedUp, Timestamp: start.Add(-time.Hour).UnixMilli()},
		{Status: models.StatusInTransit, Timestamp: transitAt.UnixMilli()},
	}, time.Millisecond, clock, func(out []models.DisplayEntry) error {
		frames = append(frames, out)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	// In Transit идёт первым по приоритету
	require.Equal(t, models.StatusInTransit, frames[0][0].Status)
	require.False(t, frames[0][0].Completed)
	require.False(t, frames[0][0].Active)
	require.True(t, frames[2][0].Completed)
	require.True(t, frames[2][0].Active)
}

func TestWatch_ContextCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	err := Watch(ctx, []models.TimelineEntry{
		{Status: models.StatusInTransit, Timestamp: now.Add(time.Hour).UnixMilli()},
	}, time.Hour, func() time.Time { return now }, func([]models.DisplayEntry) error {
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWatch_EmitErrorStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	want := errors.New("client gone")
	err := Watch(context.Background(), []models.TimelineEntry{
		{Status: models.StatusInTransit, Timestamp: time.Now().Add(time.Hour).UnixMilli()},
	}, 0, nil, func([]models.DisplayEntry) error { return want })
	require.ErrorIs(t, err, want)
}
