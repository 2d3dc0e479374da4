/*
Package workers sizes and runs the bounded worker pool used for thumbnail
rendering.

Pool sizes come from GOMAXPROCS rather than runtime.NumCPU so that container
CPU limits are respected:

	n := workers.ForCPU(0)          // one worker per available CPU
	n := workers.Resolve(cfg.N, 0)  // configured value, else ForCPU

The THUMBNAIL_WORKERS environment variable overrides the calculation:

	THUMBNAIL_WORKERS=4 static-gallery build

Each runs a function over a slice with at most n calls in flight, built on
errgroup.SetLimit. Cancelling the context stops new items from starting
while in-flight calls complete:

	err := workers.Each(ctx, jobs, n, func(ctx context.Context, job media.Job) {
		render(job)
	})
*/
package workers
