package providers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

const (
	gitlabPerPage  = 100
	gitlabMaxPages = 10
)

// GitLabProvider implements Provider over the GitLab REST API. Commit
// listing carries only totals (with_stats); the diff endpoint yields
// file paths without counts, so totals are distributed evenly across
// the files of each commit.
type GitLabProvider struct {
	client      *gitlab.Client
	rateLimiter *rate.Limiter
	org         string
	configured  []config.RepositoryConfig
}

// NewGitLab constructs the provider. Token absence is fatal here, not
// per call.
func NewGitLab(cfg config.GitConfig, configured []config.RepositoryConfig) (*GitLabProvider, error) {
	if cfg.Token == "" {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "git.token is required for the hostedB platform")
	}
	var opts []gitlab.ClientOptionFunc
	if cfg.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(cfg.BaseURL))
	}
	client, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, pulseerr.WrapErr(pulseerr.ErrConfig, err, "gitlab client")
	}
	return &GitLabProvider{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 1),
		org:         cfg.Org,
		configured:  configured,
	}, nil
}

func (p *GitLabProvider) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	var repos []models.Repository
	appendProject := func(proj *gitlab.Project) {
		repo := models.Repository{
			ID:            strconv.Itoa(proj.ID),
			Name:          proj.Name,
			URL:           proj.HTTPURLToRepo,
			DefaultBranch: proj.DefaultBranch,
			Type:          inferTypeFromName(proj.PathWithNamespace),
			Archived:      proj.Archived,
		}
		if t, ok := configuredType(repo.Name, p.configured); ok {
			repo.Type = t
		}
		if !repo.Archived && matchesConfigured(repo, p.configured) {
			repos = append(repos, repo)
		}
	}

	page := 1
	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		listOpts := gitlab.ListOptions{Page: page, PerPage: gitlabPerPage}

		var (
			projects []*gitlab.Project
			resp     *gitlab.Response
			err      error
		)
		if p.org != "" {
			projects, resp, err = p.client.Groups.ListGroupProjects(p.org, &gitlab.ListGroupProjectsOptions{
				ListOptions:      listOpts,
				IncludeSubGroups: gitlab.Ptr(true),
			}, gitlab.WithContext(ctx))
		} else {
			projects, resp, err = p.client.Projects.ListProjects(&gitlab.ListProjectsOptions{
				ListOptions: listOpts,
				Membership:  gitlab.Ptr(true),
			}, gitlab.WithContext(ctx))
		}
		if err != nil {
			return nil, pulseerr.WrapErr(pulseerr.ErrTransport, err, "list projects")
		}
		for _, proj := range projects {
			appendProject(proj)
		}
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return repos, nil
}

func (p *GitLabProvider) GetCommits(ctx context.Context, repoID string, window models.TimeWindow, branch string) ([]models.Commit, error) {
	opts := &gitlab.ListCommitsOptions{
		ListOptions: gitlab.ListOptions{PerPage: gitlabPerPage, Page: 1},
		Since:       gitlab.Ptr(window.Start),
		Until:       gitlab.Ptr(window.End),
		WithStats:   gitlab.Ptr(true),
	}
	if branch == "" || branch == BranchAll {
		opts.All = gitlab.Ptr(true)
	} else {
		opts.RefName = gitlab.Ptr(branch)
	}

	var commits []models.Commit
	for page := 0; page < gitlabMaxPages; page++ {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		heads, resp, err := p.client.Commits.ListCommits(repoID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, pulseerr.WrapErr(pulseerr.ErrTransport, err, fmt.Sprintf("list commits for %s", repoID))
		}
		for _, head := range heads {
			commit, err := p.buildCommit(ctx, repoID, head)
			if err != nil {
				logrus.WithError(err).Warnf("skipping commit %s in %s", head.ID, repoID)
				continue
			}
			commits = append(commits, commit)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return finishCommits(commits, window), nil
}

func (p *GitLabProvider) buildCommit(ctx context.Context, repoID string, head *gitlab.Commit) (models.Commit, error) {
	commit := models.Commit{
		Hash:    head.ID,
		Author:  head.AuthorName,
		Email:   head.AuthorEmail,
		Message: firstLine(head.Message),
	}
	if head.CommittedDate != nil {
		commit.Timestamp = *head.CommittedDate
	} else if head.CreatedAt != nil {
		commit.Timestamp = *head.CreatedAt
	}

	var added, deleted int
	if head.Stats != nil {
		added, deleted = head.Stats.Additions, head.Stats.Deletions
	}
	paths, err := p.diffPaths(ctx, repoID, head.ID)
	if err != nil {
		logrus.WithError(err).Debugf("diff unavailable for %s", head.ID)
	}
	commit.Files = distributeTotals(paths, added, deleted)
	return commit, nil
}

func (p *GitLabProvider) diffPaths(ctx context.Context, repoID, sha string) ([]string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	diffs, _, err := p.client.Commits.GetCommitDiff(repoID, sha, &gitlab.GetCommitDiffOptions{
		ListOptions: gitlab.ListOptions{PerPage: gitlabPerPage},
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, pulseerr.WrapErr(pulseerr.ErrTransport, err, "commit diff")
	}
	paths := make([]string, 0, len(diffs))
	for _, d := range diffs {
		path := d.NewPath
		if path == "" {
			path = d.OldPath
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// distributeTotals spreads commit totals evenly across its files, the
// remainder going to the first file. Without any file paths a single
// synthetic (unknown) file carries the totals.
func distributeTotals(paths []string, added, deleted int) []models.FileChange {
	if len(paths) == 0 {
		return []models.FileChange{{Path: models.UnknownFile, Added: added, Deleted: deleted}}
	}
	n := len(paths)
	files := make([]models.FileChange, n)
	for i, path := range paths {
		files[i] = models.FileChange{Path: path, Added: added / n, Deleted: deleted / n}
	}
	files[0].Added += added % n
	files[0].Deleted += deleted % n
	return files
}

func (p *GitLabProvider) GetFileContent(ctx context.Context, repoID, path, ref string) (string, bool, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", false, fmt.Errorf("rate limiter: %w", err)
	}
	raw, resp, err := p.client.RepositoryFiles.GetRawFile(repoID, path, &gitlab.GetRawFileOptions{Ref: gitlab.Ptr(ref)}, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return "", false, nil
		}
		return "", false, pulseerr.WrapErr(pulseerr.ErrTransport, err, "raw file")
	}
	return string(raw), true, nil
}

func (p *GitLabProvider) GetFileLineCount(ctx context.Context, repoID, path, ref string) (int, error) {
	content, ok, err := p.GetFileContent(ctx, repoID, path, ref)
	if err != nil || !ok {
		return 0, err
	}
	return lineCount(content), nil
}

func (p *GitLabProvider) GetFileHistory(ctx context.Context, repoID, path string, window models.TimeWindow) ([]models.Commit, error) {
	commits, err := p.GetCommits(ctx, repoID, window, BranchAll)
	if err != nil {
		return nil, err
	}
	return filterByPath(commits, path), nil
}

func (p *GitLabProvider) Cleanup() error { return nil }
