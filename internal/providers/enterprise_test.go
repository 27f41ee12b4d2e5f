package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
)

// enterpriseFixture serves a minimal two-branch repository with one
// shared commit, exercising dedup and the fallback chain.
func enterpriseFixture(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("/organizations/org-1/repositories", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-auth-token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, []map[string]any{
			{"id": 7, "name": "core-service", "path": "core-service", "pathWithNamespace": "org-1/platform/core-service", "webUrl": "https://git.example.com/org-1/core-service", "defaultBranch": "main"},
			{"id": 8, "name": "archived-repo", "path": "archived-repo", "pathWithNamespace": "org-1/platform/archived-repo", "archived": true},
			{"id": 9, "name": "demo", "path": "demo", "pathWithNamespace": "org-1/other/demo", "demoProject": true},
		})
	})
	mux.HandleFunc("/organizations/org-1/repositories/7/branches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]string{{"name": "main"}, {"name": "develop"}})
	})
	mux.HandleFunc("/organizations/org-1/repositories/7/commits", func(w http.ResponseWriter, r *http.Request) {
		// Both branches report the same head commit; one adds an older one.
		commits := []map[string]string{
			{"id": "shared1", "authorName": "Ada", "authorEmail": "ada@x.io", "authoredDate": "2025-01-10T12:00:00Z", "title": "feat: shared work"},
		}
		if r.URL.Query().Get("refName") == "develop" {
			commits = append(commits, map[string]string{
				"id": "old1", "authorName": "Lin", "authorEmail": "lin@x.io", "authoredDate": "2024-12-01T08:00:00Z", "title": "chore: ancient",
			})
		}
		writeJSON(w, commits)
	})
	mux.HandleFunc("/organizations/org-1/repositories/7/commits/shared1", func(w http.ResponseWriter, r *http.Request) {
		// No embedded diffs: forces the diff-endpoint fallback.
		writeJSON(w, map[string]any{"stats": map[string]int{"additions": 30, "deletions": 10}})
	})
	mux.HandleFunc("/organizations/org-1/repositories/7/commits/shared1/diff", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"newPath": "svc/main.go", "additions": 25, "deletions": 10},
			{"newPath": "svc/util.go", "additions": 5, "deletions": 0},
		})
	})
	mux.HandleFunc("/organizations/org-1/repositories/7/commits/old1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"stats": map[string]int{"additions": 1, "deletions": 0}})
	})
	mux.HandleFunc("/organizations/org-1/repositories/7/commits/old1/diff", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newEnterpriseProvider(t *testing.T, baseURL string) *EnterpriseProvider {
	t.Helper()
	p, err := NewEnterprise(config.GitConfig{
		Token:             "tok",
		BaseURL:           baseURL,
		EnterpriseOrgID:   "org-1",
		EnterpriseProject: "platform",
	}, nil)
	require.NoError(t, err)
	return p
}

func TestEnterpriseConstructorValidation(t *testing.T) {
	_, err := NewEnterprise(config.GitConfig{BaseURL: "https://x", EnterpriseOrgID: "1"}, nil)
	assert.Error(t, err)

	_, err = NewEnterprise(config.GitConfig{Token: "t", BaseURL: "https://x"}, nil)
	assert.Error(t, err)
}

func TestEnterpriseListRepositoriesNamespaceFilter(t *testing.T) {
	srv := enterpriseFixture(t)
	p := newEnterpriseProvider(t, srv.URL)

	repos, err := p.ListRepositories(context.Background())
	require.NoError(t, err)

	// Archived and demo repos are skipped; the project filter admits
	// only paths containing /platform/.
	require.Len(t, repos, 1)
	assert.Equal(t, "7", repos[0].ID)
	assert.Equal(t, "core-service", repos[0].Name)
	assert.Equal(t, "https://git.example.com/org-1/core-service.git", repos[0].URL)
	assert.Equal(t, models.RepoTypeJava, repos[0].Type)
}

func TestEnterpriseConfiguredRepoBypassesNamespaceFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/organizations/org-1/repositories", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 7, "name": "core-service", "path": "core-service", "pathWithNamespace": "org-1/platform/core-service", "webUrl": "https://git.example.com/org-1/core-service", "defaultBranch": "main"},
			{"id": 11, "name": "side-tool", "path": "side-tool", "pathWithNamespace": "org-1/other/side-tool", "webUrl": "https://git.example.com/org-1/side-tool", "defaultBranch": "main"},
			{"id": 12, "name": "stray", "path": "stray", "pathWithNamespace": "org-1/other/stray", "webUrl": "https://git.example.com/org-1/stray", "defaultBranch": "main"},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := NewEnterprise(config.GitConfig{
		Token:             "tok",
		BaseURL:           srv.URL,
		EnterpriseOrgID:   "org-1",
		EnterpriseProject: "platform",
	}, []config.RepositoryConfig{{Name: "core-service"}, {Name: "side-tool"}})
	require.NoError(t, err)

	repos, err := p.ListRepositories(context.Background())
	require.NoError(t, err)

	// side-tool sits outside the platform namespace but is configured,
	// so it survives; stray is neither configured nor admitted.
	require.Len(t, repos, 2)
	assert.Equal(t, "core-service", repos[0].Name)
	assert.Equal(t, "side-tool", repos[1].Name)
}

func TestEnterpriseGetCommitsDedupesAcrossBranches(t *testing.T) {
	srv := enterpriseFixture(t)
	p := newEnterpriseProvider(t, srv.URL)

	window := models.TimeWindow{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	commits, err := p.GetCommits(context.Background(), "7", window, BranchAll)
	require.NoError(t, err)

	// shared1 appears on both branches but once in the result; old1 is
	// outside the window.
	require.Len(t, commits, 1)
	c := commits[0]
	assert.Equal(t, "shared1", c.Hash)
	assert.Equal(t, "feat: shared work", c.Message)

	// Fallback chain landed on the diff endpoint.
	require.Len(t, c.Files, 2)
	assert.Equal(t, "svc/main.go", c.Files[0].Path)
	assert.Equal(t, 30, c.LinesAdded())
	assert.Equal(t, 10, c.LinesDeleted())
}

func TestEnterpriseStatsOnlyFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/organizations/org-1/repositories/5/commits/solo", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"stats": map[string]int{"additions": 12, "deletions": 3}})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := newEnterpriseProvider(t, srv.URL)
	commit, err := p.buildCommit(context.Background(), "5", enterpriseCommitHead{
		ID: "solo", AuthorName: "Ada", AuthoredDate: "2025-01-10T12:00:00Z", Title: "fix: stats only",
	})
	require.NoError(t, err)

	require.Len(t, commit.Files, 1)
	assert.Equal(t, models.UnknownFile, commit.Files[0].Path)
	assert.Equal(t, 12, commit.Files[0].Added)
	assert.Equal(t, 3, commit.Files[0].Deleted)
}

func TestParseEnterpriseDate(t *testing.T) {
	for _, s := range []string{"2025-01-10T12:00:00Z", "2025-01-10 12:00:00", "2025-01-10"} {
		_, err := parseEnterpriseDate(s)
		assert.NoError(t, err, s)
	}
	_, err := parseEnterpriseDate("not a date")
	assert.Error(t, err)
}
