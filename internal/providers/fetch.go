package providers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devpulse/devpulse/internal/models"
)

// FetchResult is the union of all repositories' commits for one window,
// annotated with repo name and type, deterministically ordered.
type FetchResult struct {
	Commits      []models.Commit
	Repositories []models.Repository
	// ByRepo groups the same commits per repository name.
	ByRepo map[string][]models.Commit
	// Failed lists repositories skipped because of per-repo errors.
	Failed []string
	// Partial is set when the run deadline interrupted the fetch; the
	// reporters render an incompleteness banner for partial results.
	Partial bool
}

// FetchOptions bounds the per-repository fetch stage.
type FetchOptions struct {
	Workers int
	Timeout time.Duration
	Branch  string
}

// FetchAll enumerates repositories and fetches their commits through a
// bounded worker pool. Per-repository failures are isolated to warnings;
// only repository enumeration failure is returned as an error.
func FetchAll(ctx context.Context, provider Provider, window models.TimeWindow, opts FetchOptions) (*FetchResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Branch == "" {
		opts.Branch = BranchAll
	}

	repos, err := provider.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{
		Repositories: repos,
		ByRepo:       make(map[string][]models.Commit, len(repos)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, opts.Timeout)
			defer cancel()

			commits, err := provider.GetCommits(fetchCtx, repo.ID, window, opts.Branch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					result.Partial = true
				}
				result.Failed = append(result.Failed, repo.Name)
				logrus.WithError(err).Warnf("skipping repository %s", repo.Name)
				return nil
			}
			for i := range commits {
				commits[i].RepoName = repo.Name
				commits[i].RepoType = repo.Type
			}
			result.ByRepo[repo.Name] = commits
			result.Commits = append(result.Commits, commits...)
			return nil
		})
	}

	// Worker errors are swallowed above; Wait only observes parent
	// cancellation.
	if err := g.Wait(); err != nil {
		result.Partial = true
	}
	if ctx.Err() != nil {
		result.Partial = true
	}

	// Deterministic order regardless of worker completion order.
	models.SortCommits(result.Commits)
	return result, nil
}
