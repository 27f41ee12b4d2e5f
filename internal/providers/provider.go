// Package providers implements the polymorphic commit sources: two
// hosted API dialects, a custom enterprise API, and direct git clones.
package providers

import (
	"context"
	"strings"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
)

// BranchAll requests commits across every branch, deduplicated by hash.
const BranchAll = "all"

// Provider yields commits and file data for repositories over a time
// window. Implementations are stateless across calls except for cached
// clones and paged fetches. Cleanup is called once per run.
type Provider interface {
	ListRepositories(ctx context.Context) ([]models.Repository, error)
	GetCommits(ctx context.Context, repoID string, window models.TimeWindow, branch string) ([]models.Commit, error)
	GetFileContent(ctx context.Context, repoID, path, ref string) (string, bool, error)
	GetFileLineCount(ctx context.Context, repoID, path, ref string) (int, error)
	GetFileHistory(ctx context.Context, repoID, path string, window models.TimeWindow) ([]models.Commit, error)
	Cleanup() error
}

// lineCount is the default splitlines implementation shared by
// providers that fetch file content.
func lineCount(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

// filterByPath is the default GetFileHistory implementation: keep only
// commits touching the path.
func filterByPath(commits []models.Commit, path string) []models.Commit {
	var out []models.Commit
	for _, c := range commits {
		for _, f := range c.Files {
			if f.Path == path {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// finishCommits enforces the provider postconditions: window membership,
// hash uniqueness, and descending timestamp order.
func finishCommits(commits []models.Commit, window models.TimeWindow) []models.Commit {
	out := commits[:0]
	for _, c := range commits {
		if window.Contains(c.Timestamp) {
			out = append(out, c)
		}
	}
	out = models.DedupeByHash(out)
	models.SortCommits(out)
	return out
}

// firstLine trims a commit message to its subject.
func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return strings.TrimSpace(message[:i])
	}
	return strings.TrimSpace(message)
}

// matchesConfigured reports whether the repository matches any entry of
// the configured allow-list by id, name, path fragment, or URL. An empty
// list admits everything.
func matchesConfigured(repo models.Repository, configured []config.RepositoryConfig) bool {
	if len(configured) == 0 {
		return true
	}
	for _, rc := range configured {
		if rc.ID != "" && rc.ID == repo.ID {
			return true
		}
		if rc.Name != "" && strings.EqualFold(rc.Name, repo.Name) {
			return true
		}
		if rc.URL != "" && strings.EqualFold(strings.TrimSuffix(rc.URL, ".git"), strings.TrimSuffix(repo.URL, ".git")) {
			return true
		}
	}
	return false
}

// configuredType returns the configured repo type override, if any.
func configuredType(name string, configured []config.RepositoryConfig) (models.RepoType, bool) {
	for _, rc := range configured {
		if strings.EqualFold(rc.Name, name) && rc.Type != "" {
			return rc.RepoType(), true
		}
	}
	return models.RepoTypeUnknown, false
}

// inferTypeFromName guesses a repository type from name keywords. Used
// by the providers whose APIs expose no language field.
func inferTypeFromName(name string) models.RepoType {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, "android", "ios", "app", "flutter", "mobile"):
		return models.RepoTypeMobile
	case containsAny(n, "web", "frontend", "front", "h5", "vue", "react"):
		return models.RepoTypeWeb
	case containsAny(n, "service", "backend", "gateway", "java", "spring"):
		return models.RepoTypeJava
	case containsAny(n, "agent", "pipeline", "etl", "python", "django", "flask"):
		return models.RepoTypePython
	case containsAny(n, "infra", "deploy", "ops"):
		return models.RepoTypeInfra
	default:
		return models.RepoTypeUnknown
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
