package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

const (
	githubPerPage  = 100
	githubMaxPages = 10
)

// GitHubProvider implements Provider over the GitHub REST API. Listing
// yields commit heads only; a second per-commit request fills in
// per-file additions and deletions.
type GitHubProvider struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	org         string
	configured  []config.RepositoryConfig
}

// NewGitHub constructs the provider. A missing token is a configuration
// error, surfaced before any network activity.
func NewGitHub(cfg config.GitConfig, configured []config.RepositoryConfig) (*GitHubProvider, error) {
	if cfg.Token == "" {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "git.token is required for the hostedA platform")
	}
	if cfg.Org == "" {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "git.org is required for the hostedA platform")
	}
	client := github.NewClient(nil).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, pulseerr.WrapErr(pulseerr.ErrConfig, err, "git.base_url")
		}
	}
	return &GitHubProvider{
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 1),
		org:         cfg.Org,
		configured:  configured,
	}, nil
}

// githubLanguageTypes maps the API language field to repo types.
var githubLanguageTypes = map[string]models.RepoType{
	"java":       models.RepoTypeJava,
	"kotlin":     models.RepoTypeJava,
	"python":     models.RepoTypePython,
	"javascript": models.RepoTypeWeb,
	"typescript": models.RepoTypeWeb,
	"vue":        models.RepoTypeWeb,
	"dart":       models.RepoTypeMobile,
	"swift":      models.RepoTypeMobile,
	"go":         models.RepoTypeGo,
	"rust":       models.RepoTypeRust,
}

func (p *GitHubProvider) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: githubPerPage},
	}

	var repos []models.Repository
	for {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		page, resp, err := p.client.Repositories.ListByOrg(ctx, p.org, opts)
		if err != nil {
			return nil, pulseerr.WrapErr(pulseerr.ErrTransport, err, "list repositories")
		}
		for _, r := range page {
			repo := models.Repository{
				ID:            r.GetName(),
				Name:          r.GetName(),
				URL:           r.GetCloneURL(),
				DefaultBranch: r.GetDefaultBranch(),
				Type:          githubRepoType(r.GetLanguage()),
				Archived:      r.GetArchived(),
			}
			if t, ok := configuredType(repo.Name, p.configured); ok {
				repo.Type = t
			}
			if !repo.Archived && matchesConfigured(repo, p.configured) {
				repos = append(repos, repo)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

func githubRepoType(language string) models.RepoType {
	if t, ok := githubLanguageTypes[strings.ToLower(language)]; ok {
		return t
	}
	return models.RepoTypeUnknown
}

func (p *GitHubProvider) GetCommits(ctx context.Context, repoID string, window models.TimeWindow, branch string) ([]models.Commit, error) {
	opts := &github.CommitsListOptions{
		Since:       window.Start,
		Until:       window.End,
		ListOptions: github.ListOptions{PerPage: githubPerPage},
	}
	if branch != "" && branch != BranchAll {
		opts.SHA = branch
	}

	var commits []models.Commit
	for page := 0; page < githubMaxPages; page++ {
		if err := p.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		heads, resp, err := p.client.Repositories.ListCommits(ctx, p.org, repoID, opts)
		if err != nil {
			return nil, pulseerr.WrapErr(pulseerr.ErrTransport, err, fmt.Sprintf("list commits for %s", repoID))
		}
		for _, head := range heads {
			commit, err := p.commitDetail(ctx, repoID, head)
			if err != nil {
				logrus.WithError(err).Warnf("skipping commit %s in %s", head.GetSHA(), repoID)
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

// commitDetail issues the second request that carries per-file stats.
func (p *GitHubProvider) commitDetail(ctx context.Context, repoID string, head *github.RepositoryCommit) (models.Commit, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return models.Commit{}, fmt.Errorf("rate limiter: %w", err)
	}
	detail, _, err := p.client.Repositories.GetCommit(ctx, p.org, repoID, head.GetSHA(), nil)
	if err != nil {
		return models.Commit{}, pulseerr.WrapErr(pulseerr.ErrTransport, err, "commit detail")
	}

	files := make([]models.FileChange, 0, len(detail.Files))
	for _, f := range detail.Files {
		files = append(files, models.FileChange{
			Path:    f.GetFilename(),
			Added:   f.GetAdditions(),
			Deleted: f.GetDeletions(),
		})
	}
	author := head.GetCommit().GetAuthor()
	return models.Commit{
		Hash:      head.GetSHA(),
		Author:    author.GetName(),
		Email:     author.GetEmail(),
		Timestamp: author.GetDate().Time,
		Message:   firstLine(head.GetCommit().GetMessage()),
		Files:     files,
	}, nil
}

func (p *GitHubProvider) GetFileContent(ctx context.Context, repoID, path, ref string) (string, bool, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", false, fmt.Errorf("rate limiter: %w", err)
	}
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := p.client.Repositories.GetContents(ctx, p.org, repoID, path, opts)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return "", false, nil
		}
		return "", false, pulseerr.WrapErr(pulseerr.ErrTransport, err, "file content")
	}
	if file == nil {
		return "", false, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return "", false, pulseerr.WrapErr(pulseerr.ErrData, err, "decode file content")
	}
	return content, true, nil
}

func (p *GitHubProvider) GetFileLineCount(ctx context.Context, repoID, path, ref string) (int, error) {
	content, ok, err := p.GetFileContent(ctx, repoID, path, ref)
	if err != nil || !ok {
		return 0, err
	}
	return lineCount(content), nil
}

func (p *GitHubProvider) GetFileHistory(ctx context.Context, repoID, path string, window models.TimeWindow) ([]models.Commit, error) {
	commits, err := p.GetCommits(ctx, repoID, window, BranchAll)
	if err != nil {
		return nil, err
	}
	return filterByPath(commits, path), nil
}

func (p *GitHubProvider) Cleanup() error { return nil }
