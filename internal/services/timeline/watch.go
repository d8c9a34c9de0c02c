package timeline

import (
	"context"
	"time"

	"github.com/BearBump/ShipTrack/internal/models"
)

// Watch emits the rendered display timeline right away and then every interval for as
// long as NeedsRecheck holds. It returns nil once nothing is pending, ctx.Err() on
// cancellation, or the first emit error.
func Watch(ctx context.Context, entries []models.TimelineEntry, interval time.Duration, now func() time.Time, emit func([]models.DisplayEntry) error) error {
	if interval <= 0 {
		interval = DefaultRecheckInterval
	}
	if now == nil {
		now = time.Now
	}
	ordered := OrderForDisplay(entries)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		at := now()
		if err := emit(Render(ordered, at)); err != nil {
			return err
		}
		if !NeedsRecheck(entries, at) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
