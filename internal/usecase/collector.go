// Package usecase contains the business logic of the application.
package usecase

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-pr-stats/internal/domain"
	"github.com/naka-gawa/github-pr-stats/internal/gateway"
)

// DefaultWorkers is the worker pool size used when none is given.
const DefaultWorkers = 5

// ProgressFunc is called after each enrichment task finishes.
type ProgressFunc func(done, total int)

// Collector is the use case for collecting a user's pull requests.
// It orchestrates the search and the concurrent fetching of details.
type Collector struct {
	fetcher  gateway.Fetcher
	workers  int
	progress ProgressFunc
	logger   *zap.Logger
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, workers int, logger *zap.Logger) *Collector {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Collector{
		fetcher:  fetcher,
		workers:  workers,
		progress: func(int, int) {},
		logger:   logger,
	}
}

// OnProgress registers a callback for completed enrichment tasks.
func (c *Collector) OnProgress(fn ProgressFunc) {
	if fn == nil {
		fn = func(int, int) {}
	}
	c.progress = fn
}

// Collect searches for the query and enriches every hit.
// The details are never requested when the search comes back empty.
func (c *Collector) Collect(ctx context.Context, q domain.Query) ([]domain.PullRequest, error) {
	items := c.fetcher.SearchPullRequests(ctx, q)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		c.logger.Info("Usecase: No pull requests matched.")
		return []domain.PullRequest{}, nil
	}
	return c.EnrichAll(ctx, items)
}

// EnrichAll fetches the details of all items on a fixed pool of workers.
// Results are returned in completion order; items whose details could not be
// fetched are left out. The only error is a cancelled context.
func (c *Collector) EnrichAll(ctx context.Context, items []domain.SearchItem) ([]domain.PullRequest, error) {
	c.logger.Info("Usecase: Fetching pull request details...",
		zap.Int("items", len(items)), zap.Int("workers", c.workers))

	type result struct {
		pr domain.PullRequest
		ok bool
	}

	tasks := make(chan domain.SearchItem)
	results := make(chan result)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(tasks)
		for _, item := range items {
			select {
			case tasks <- item:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	for i := 0; i < c.workers; i++ {
		eg.Go(func() error {
			for item := range tasks {
				pr, ok := c.fetcher.FetchPullRequest(egCtx, item)
				select {
				case results <- result{pr: pr, ok: ok}:
				case <-egCtx.Done():
					return egCtx.Err()
				}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- eg.Wait()
		close(results)
	}()

	prs := make([]domain.PullRequest, 0, len(items))
	done := 0
	for r := range results {
		done++
		if r.ok {
			prs = append(prs, r.pr)
		}
		c.progress(done, len(items))
	}

	if err := <-waitErr; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Info("Usecase: Details fetched.",
		zap.Int("kept", len(prs)), zap.Int("dropped", len(items)-len(prs)))
	return prs, nil
}
