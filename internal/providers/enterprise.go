package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

const (
	enterprisePerPage        = 100
	enterpriseMaxCommitPages = 10
	enterpriseMaxBranchPages = 5
)

// EnterpriseProvider implements Provider over the enterprise code-hosting
// API: token in a custom header, per-branch commit pagination with early
// stop, and a four-step fallback chain for per-file change numbers.
type EnterpriseProvider struct {
	baseURL     string
	token       string
	orgID       string
	project     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	configured  []config.RepositoryConfig
}

// NewEnterprise constructs the provider. Credentials are checked here so
// misconfiguration surfaces before any fetch.
func NewEnterprise(cfg config.GitConfig, configured []config.RepositoryConfig) (*EnterpriseProvider, error) {
	if cfg.Token == "" {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "git.token is required for the enterprise platform")
	}
	if cfg.EnterpriseOrgID == "" {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "git.enterprise_org_id is required for the enterprise platform")
	}
	if cfg.BaseURL == "" {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "git.base_url is required for the enterprise platform")
	}
	return &EnterpriseProvider{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		token:       cfg.Token,
		orgID:       cfg.EnterpriseOrgID,
		project:     cfg.EnterpriseProject,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(10), 1),
		configured:  configured,
	}, nil
}

func (p *EnterpriseProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	u := p.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-auth-token", p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return pulseerr.WrapErr(pulseerr.ErrTransport, err, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return pulseerr.Wrap(pulseerr.ErrTransport, "%s returned %d: %s", path, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pulseerr.WrapErr(pulseerr.ErrData, err, path)
	}
	return nil
}

type enterpriseRepo struct {
	ID                json.Number `json:"id"`
	Name              string      `json:"name"`
	Path              string      `json:"path"`
	PathWithNamespace string      `json:"pathWithNamespace"`
	WebURL            string      `json:"webUrl"`
	DefaultBranch     string      `json:"defaultBranch"`
	Archived          bool        `json:"archived"`
	DemoProject       bool        `json:"demoProject"`
}

func (p *EnterpriseProvider) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	var all []enterpriseRepo
	for page := 1; page <= 10; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("perPage", strconv.Itoa(enterprisePerPage))

		var batch []enterpriseRepo
		if err := p.get(ctx, "/organizations/"+p.orgID+"/repositories", params, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		if len(batch) < enterprisePerPage {
			break
		}
	}

	var repos []models.Repository
	for _, raw := range all {
		if raw.Archived || raw.DemoProject {
			continue
		}
		repo := p.parseRepo(raw)
		if !matchesConfigured(repo, p.configured) && !p.matchesByPath(raw) {
			continue
		}
		// The configured list outranks the namespace filter; only
		// unconfigured discovery is narrowed to the project.
		if len(p.configured) == 0 && p.project != "" &&
			!strings.Contains(strings.ToLower(raw.PathWithNamespace), "/"+strings.ToLower(p.project)+"/") {
			continue
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// matchesByPath admits repositories whose path (rather than name)
// matches a configured entry; some repositories name and path differ.
func (p *EnterpriseProvider) matchesByPath(raw enterpriseRepo) bool {
	if len(p.configured) == 0 {
		return false
	}
	for _, rc := range p.configured {
		if rc.Name != "" && strings.EqualFold(rc.Name, raw.Path) {
			return true
		}
	}
	return false
}

func (p *EnterpriseProvider) parseRepo(raw enterpriseRepo) models.Repository {
	gitURL := raw.WebURL
	if gitURL != "" && !strings.HasSuffix(gitURL, ".git") {
		gitURL += ".git"
	}
	branch := raw.DefaultBranch
	if branch == "" {
		branch = "master"
	}
	repo := models.Repository{
		ID:            raw.ID.String(),
		Name:          raw.Name,
		URL:           gitURL,
		DefaultBranch: branch,
		Type:          inferTypeFromName(raw.Name + " " + raw.Path),
		Archived:      raw.Archived,
	}
	if t, ok := configuredType(repo.Name, p.configured); ok {
		repo.Type = t
	}
	return repo
}

func (p *EnterpriseProvider) listBranches(ctx context.Context, repoID string) ([]string, error) {
	var branches []string
	for page := 1; page <= enterpriseMaxBranchPages; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("perPage", strconv.Itoa(enterprisePerPage))

		var batch []struct {
			Name string `json:"name"`
		}
		if err := p.get(ctx, "/organizations/"+p.orgID+"/repositories/"+repoID+"/branches", params, &batch); err != nil {
			return nil, err
		}
		for _, b := range batch {
			if b.Name != "" {
				branches = append(branches, b.Name)
			}
		}
		if len(batch) < enterprisePerPage {
			break
		}
	}
	return branches, nil
}

func (p *EnterpriseProvider) GetCommits(ctx context.Context, repoID string, window models.TimeWindow, branch string) ([]models.Commit, error) {
	if branch != "" && branch != BranchAll {
		commits, err := p.branchCommits(ctx, repoID, window, branch)
		if err != nil {
			return nil, err
		}
		return finishCommits(commits, window), nil
	}

	branches, err := p.listBranches(ctx, repoID)
	if err != nil || len(branches) == 0 {
		if err != nil {
			logrus.WithError(err).Warnf("branch listing failed for %s, falling back to default branch", repoID)
		}
		branches = []string{"master"}
	}

	seen := make(map[string]struct{})
	var all []models.Commit
	for _, b := range branches {
		commits, err := p.branchCommits(ctx, repoID, window, b)
		if err != nil {
			logrus.WithError(err).Warnf("skipping branch %s of %s", b, repoID)
			continue
		}
		for _, c := range commits {
			if _, ok := seen[c.Hash]; ok {
				continue
			}
			seen[c.Hash] = struct{}{}
			all = append(all, c)
		}
	}
	return finishCommits(all, window), nil
}

type enterpriseCommitHead struct {
	ID            string `json:"id"`
	SHA           string `json:"sha"`
	AuthorName    string `json:"authorName"`
	AuthorEmail   string `json:"authorEmail"`
	AuthoredDate  string `json:"authoredDate"`
	CommittedDate string `json:"committedDate"`
	Title         string `json:"title"`
	Message       string `json:"message"`
}

func (h enterpriseCommitHead) hash() string {
	if h.ID != "" {
		return h.ID
	}
	return h.SHA
}

// branchCommits pages through one branch, stopping early once a page
// reaches commits older than the window start.
func (p *EnterpriseProvider) branchCommits(ctx context.Context, repoID string, window models.TimeWindow, branch string) ([]models.Commit, error) {
	var commits []models.Commit
	for page := 1; page <= enterpriseMaxCommitPages; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("perPage", strconv.Itoa(enterprisePerPage))
		params.Set("refName", branch)

		var batch []enterpriseCommitHead
		if err := p.get(ctx, "/organizations/"+p.orgID+"/repositories/"+repoID+"/commits", params, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		for _, head := range batch {
			commit, err := p.buildCommit(ctx, repoID, head)
			if err != nil {
				logrus.WithError(err).Warnf("skipping commit %s in %s", head.hash(), repoID)
				continue
			}
			if commit.Timestamp.Before(window.Start) {
				return commits, nil
			}
			if !commit.Timestamp.Before(window.End) {
				continue
			}
			commits = append(commits, commit)
		}
		if len(batch) < enterprisePerPage {
			break
		}
	}
	return commits, nil
}

type enterpriseDiff struct {
	NewPath      string `json:"newPath"`
	OldPath      string `json:"oldPath"`
	Additions    int    `json:"additions"`
	Deletions    int    `json:"deletions"`
	AddedLines   int    `json:"addedLines"`
	DeletedLines int    `json:"deletedLines"`
}

func (d enterpriseDiff) toFileChange() (models.FileChange, bool) {
	path := d.NewPath
	if path == "" {
		path = d.OldPath
	}
	if path == "" {
		return models.FileChange{}, false
	}
	added, deleted := d.Additions, d.Deletions
	if added == 0 && deleted == 0 {
		added, deleted = d.AddedLines, d.DeletedLines
	}
	return models.FileChange{Path: path, Added: added, Deleted: deleted}, true
}

type enterpriseCommitDetail struct {
	Diffs     []enterpriseDiff `json:"diffs"`
	ParentIDs []string         `json:"parentIds"`
	Stats     struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
}

// buildCommit resolves the per-file numbers through four fallbacks in
// order: embedded diffs, the diff endpoint, a compare against the first
// parent, then stats totals as a synthetic (unknown) file.
func (p *EnterpriseProvider) buildCommit(ctx context.Context, repoID string, head enterpriseCommitHead) (models.Commit, error) {
	hash := head.hash()

	var detail enterpriseCommitDetail
	if err := p.get(ctx, "/organizations/"+p.orgID+"/repositories/"+repoID+"/commits/"+hash, nil, &detail); err != nil {
		return models.Commit{}, err
	}

	files, source := p.resolveFiles(ctx, repoID, hash, detail)
	logrus.Debugf("commit %s files resolved via %s", hash, source)

	dateStr := head.AuthoredDate
	if dateStr == "" {
		dateStr = head.CommittedDate
	}
	ts, err := parseEnterpriseDate(dateStr)
	if err != nil {
		return models.Commit{}, pulseerr.Wrap(pulseerr.ErrData, "commit %s: unparseable date %q", hash, dateStr)
	}

	message := head.Title
	if message == "" {
		message = head.Message
	}
	author := head.AuthorName
	if author == "" {
		author = "Unknown"
	}
	return models.Commit{
		Hash:      hash,
		Author:    author,
		Email:     head.AuthorEmail,
		Timestamp: ts,
		Message:   firstLine(message),
		Files:     files,
	}, nil
}

func (p *EnterpriseProvider) resolveFiles(ctx context.Context, repoID, hash string, detail enterpriseCommitDetail) ([]models.FileChange, string) {
	files := diffsToFiles(detail.Diffs)
	if len(files) > 0 {
		return files, "embedded diffs"
	}

	var diffs []enterpriseDiff
	if err := p.get(ctx, "/organizations/"+p.orgID+"/repositories/"+repoID+"/commits/"+hash+"/diff", nil, &diffs); err == nil {
		if files = diffsToFiles(diffs); len(files) > 0 {
			return files, "diff endpoint"
		}
	}

	if len(detail.ParentIDs) > 0 && detail.ParentIDs[0] != "" {
		params := url.Values{}
		params.Set("from", detail.ParentIDs[0])
		params.Set("to", hash)
		var compare struct {
			Diffs []enterpriseDiff `json:"diffs"`
		}
		if err := p.get(ctx, "/organizations/"+p.orgID+"/repositories/"+repoID+"/compare", params, &compare); err == nil {
			if files = diffsToFiles(compare.Diffs); len(files) > 0 {
				return files, "parent compare"
			}
		}
	}

	if detail.Stats.Additions > 0 || detail.Stats.Deletions > 0 {
		return []models.FileChange{{
			Path:    models.UnknownFile,
			Added:   detail.Stats.Additions,
			Deleted: detail.Stats.Deletions,
		}}, "stats only"
	}
	return nil, "none"
}

func diffsToFiles(diffs []enterpriseDiff) []models.FileChange {
	var files []models.FileChange
	for _, d := range diffs {
		if fc, ok := d.toFileChange(); ok {
			files = append(files, fc)
		}
	}
	return files
}

var enterpriseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseEnterpriseDate(s string) (time.Time, error) {
	for _, layout := range enterpriseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (p *EnterpriseProvider) GetFileContent(ctx context.Context, repoID, path, ref string) (string, bool, error) {
	params := url.Values{}
	params.Set("filePath", path)
	params.Set("ref", ref)

	var out struct {
		Content string `json:"content"`
	}
	if err := p.get(ctx, "/organizations/"+p.orgID+"/repositories/"+repoID+"/files", params, &out); err != nil {
		if strings.Contains(err.Error(), "returned 404") {
			return "", false, nil
		}
		return "", false, err
	}
	return out.Content, true, nil
}

func (p *EnterpriseProvider) GetFileLineCount(ctx context.Context, repoID, path, ref string) (int, error) {
	content, ok, err := p.GetFileContent(ctx, repoID, path, ref)
	if err != nil || !ok {
		return 0, err
	}
	return lineCount(content), nil
}

func (p *EnterpriseProvider) GetFileHistory(ctx context.Context, repoID, path string, window models.TimeWindow) ([]models.Commit, error) {
	commits, err := p.GetCommits(ctx, repoID, window, BranchAll)
	if err != nil {
		return nil, err
	}
	return filterByPath(commits, path), nil
}

func (p *EnterpriseProvider) Cleanup() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
