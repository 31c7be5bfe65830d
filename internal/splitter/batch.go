package splitter

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// SplitBatch processes a set of files, in parallel when configured.
// Per-file failures are captured in the corresponding result; the
// returned error is non-nil only when the batch itself was cut short
// by context cancellation.
func (f *FileSplitter) SplitBatch(ctx context.Context, paths []string) ([]*SplitResult, error) {
	results := make([]*SplitResult, len(paths))

	if !f.cfg.EnableParallelProcessing || f.cfg.MaxParallelWorkers <= 1 {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results[i], _ = f.SplitFile(ctx, path)
		}
		return results, nil
	}

	sem := semaphore.NewWeighted(int64(f.cfg.MaxParallelWorkers))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			res, err := f.SplitFile(gctx, path)
			if err != nil {
				f.logger.Debug("Batch entry failed",
					zap.String("path", path),
					zap.Error(err),
				)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
