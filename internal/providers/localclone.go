package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

const cloneDepth = 1000

// LocalCloneProvider clones repositories into a run-scoped temporary
// directory and reads history through the git CLI. Clones are cached
// per repository and removed on Cleanup.
type LocalCloneProvider struct {
	token      string
	configured []config.RepositoryConfig

	// mu guards workDir and clones; the fetch pool calls into one
	// provider from several goroutines.
	mu      sync.Mutex
	workDir string
	clones  map[string]string
}

// NewLocalClone constructs the provider. Repositories must be listed in
// configuration because there is no remote to enumerate.
func NewLocalClone(cfg config.GitConfig, configured []config.RepositoryConfig) (*LocalCloneProvider, error) {
	if len(configured) == 0 {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "repositories must be configured for the localClone platform")
	}
	workDir, err := os.MkdirTemp("", "devpulse-clones-")
	if err != nil {
		return nil, pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "create clone dir")
	}
	return &LocalCloneProvider{
		token:      cfg.Token,
		configured: configured,
		workDir:    workDir,
		clones:     make(map[string]string),
	}, nil
}

func (p *LocalCloneProvider) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	repos := make([]models.Repository, 0, len(p.configured))
	for _, rc := range p.configured {
		branch := rc.MainBranch
		if branch == "" {
			branch = "main"
		}
		repos = append(repos, models.Repository{
			ID:            rc.Name,
			Name:          rc.Name,
			URL:           rc.URL,
			DefaultBranch: branch,
			Type:          rc.RepoType(),
		})
	}
	return repos, nil
}

// ensureClone performs the shallow clone on first use, then tries to
// unshallow; failure to unshallow is tolerated. Concurrent callers for
// different repositories serialize on the clone cache.
func (p *LocalCloneProvider) ensureClone(ctx context.Context, repoID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dir, ok := p.clones[repoID]; ok {
		return dir, nil
	}

	var repoURL string
	for _, rc := range p.configured {
		if rc.Name == repoID {
			repoURL = rc.URL
			break
		}
	}
	if repoURL == "" {
		return "", pulseerr.Wrap(pulseerr.ErrConfig, "unknown repository %q", repoID)
	}

	dir := filepath.Join(p.workDir, repoID)
	cloneURL := injectToken(repoURL, p.token)
	if _, err := p.git(ctx, "", "clone", "--depth", strconv.Itoa(cloneDepth), "--no-single-branch", cloneURL, dir); err != nil {
		return "", err
	}
	if _, err := p.git(ctx, dir, "fetch", "--unshallow"); err != nil {
		logrus.WithError(err).Debugf("unshallow failed for %s", repoID)
	}
	p.clones[repoID] = dir
	return dir, nil
}

// injectToken rewrites an HTTPS clone URL to carry oauth2 credentials.
// SSH URLs pass through untouched.
func injectToken(repoURL, token string) string {
	if token == "" || !strings.HasPrefix(repoURL, "https://") {
		return repoURL
	}
	u, err := url.Parse(repoURL)
	if err != nil {
		return repoURL
	}
	u.User = url.UserPassword("oauth2", token)
	return u.String()
}

func (p *LocalCloneProvider) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", pulseerr.Wrap(pulseerr.ErrTransport, "git %s: %v: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (p *LocalCloneProvider) GetCommits(ctx context.Context, repoID string, window models.TimeWindow, branch string) ([]models.Commit, error) {
	dir, err := p.ensureClone(ctx, repoID)
	if err != nil {
		return nil, err
	}

	args := []string{
		"log",
		"--since=" + window.Start.Format("2006-01-02 15:04:05"),
		"--until=" + window.End.Format("2006-01-02 15:04:05"),
		"--pretty=format:%H|%an|%ae|%ad|%s",
		"--date=iso",
		"--numstat",
	}
	if branch == "" || branch == BranchAll {
		args = append(args, "--all")
	} else {
		args = append(args, branch)
	}

	out, err := p.git(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	commits := parseNumstatLog(out)
	return finishCommits(commits, window), nil
}

// parseNumstatLog parses `git log --pretty=format:%H|%an|%ae|%ad|%s
// --numstat` output. Header lines carry five pipe-separated fields;
// numstat lines are added<TAB>deleted<TAB>path with "-" for binary
// files.
func parseNumstatLog(out string) []models.Commit {
	var commits []models.Commit
	var current *models.Commit

	flush := func() {
		if current != nil {
			commits = append(commits, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			flush()
			continue
		}
		if parts := strings.SplitN(line, "|", 5); len(parts) == 5 && !strings.Contains(line, "\t") {
			flush()
			ts, err := time.Parse("2006-01-02 15:04:05 -0700", parts[3])
			if err != nil {
				logrus.Warnf("skipping commit with unparseable date %q", parts[3])
				continue
			}
			current = &models.Commit{
				Hash:      parts[0],
				Author:    parts[1],
				Email:     parts[2],
				Timestamp: ts,
				Message:   strings.TrimSpace(parts[4]),
			}
			continue
		}
		if current == nil {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}
		current.Files = append(current.Files, models.FileChange{
			Path:    fields[2],
			Added:   numstatInt(fields[0]),
			Deleted: numstatInt(fields[1]),
		})
	}
	flush()
	return commits
}

func numstatInt(s string) int {
	if s == "-" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// EarliestCommit reports the timestamp of the oldest commit across the
// configured repositories, cloning them on demand. Used to anchor
// backfills when no reports exist yet.
func (p *LocalCloneProvider) EarliestCommit(ctx context.Context) (time.Time, error) {
	var earliest time.Time
	for _, rc := range p.configured {
		dir, err := p.ensureClone(ctx, rc.Name)
		if err != nil {
			return time.Time{}, err
		}
		out, err := p.git(ctx, dir, "log", "--all", "--reverse", "--date=iso", "--pretty=format:%ad")
		if err != nil {
			return time.Time{}, err
		}
		ts, ok := oldestLogDate(out)
		if !ok {
			continue
		}
		if earliest.IsZero() || ts.Before(earliest) {
			earliest = ts
		}
	}
	if earliest.IsZero() {
		return time.Time{}, pulseerr.Wrap(pulseerr.ErrData, "no commits found in any configured repository")
	}
	return earliest, nil
}

// oldestLogDate takes the first line of a date-ascending git log.
func oldestLogDate(out string) (time.Time, bool) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	ts, err := time.Parse("2006-01-02 15:04:05 -0700", strings.TrimSpace(line))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (p *LocalCloneProvider) GetFileContent(ctx context.Context, repoID, path, ref string) (string, bool, error) {
	dir, err := p.ensureClone(ctx, repoID)
	if err != nil {
		return "", false, err
	}
	if ref == "" {
		ref = "HEAD"
	}
	out, err := p.git(ctx, dir, "show", fmt.Sprintf("%s:%s", ref, path))
	if err != nil {
		return "", false, nil
	}
	return out, true, nil
}

func (p *LocalCloneProvider) GetFileLineCount(ctx context.Context, repoID, path, ref string) (int, error) {
	content, ok, err := p.GetFileContent(ctx, repoID, path, ref)
	if err != nil || !ok {
		return 0, err
	}
	return lineCount(content), nil
}

func (p *LocalCloneProvider) GetFileHistory(ctx context.Context, repoID, path string, window models.TimeWindow) ([]models.Commit, error) {
	commits, err := p.GetCommits(ctx, repoID, window, BranchAll)
	if err != nil {
		return nil, err
	}
	return filterByPath(commits, path), nil
}

// Cleanup removes every clone. Guaranteed to run on both normal and
// abnormal termination through the orchestrator's deferred call.
func (p *LocalCloneProvider) Cleanup() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.workDir == "" {
		return nil
	}
	if err := os.RemoveAll(p.workDir); err != nil {
		return pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "remove clone dir")
	}
	p.workDir = ""
	p.clones = make(map[string]string)
	return nil
}
