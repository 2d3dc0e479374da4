package workers

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Each calls fn for every item with at most limit calls running at once.
// Once ctx is cancelled no further items are started; calls already running
// are left to finish. fn reports its own failures, so one failing item never
// stops the others. The returned error is ctx.Err() when the run was cut
// short.
func Each[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T)) error {
	if limit < 1 {
		limit = 1
	}

	var group errgroup.Group
	group.SetLimit(limit)

	for _, item := range items {
		item := item
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, item)
			return nil
		})
	}

	_ = group.Wait()
	return ctx.Err()
}
