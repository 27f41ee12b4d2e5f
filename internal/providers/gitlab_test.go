package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/config"
)

func TestGitLabDiffPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v4/projects/7/repository/commits/abc/diff", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"new_path":"a.go","old_path":"a.go"},{"new_path":"","old_path":"gone.go"}]`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := NewGitLab(config.GitConfig{Token: "tok", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	paths, err := p.diffPaths(context.Background(), "7", "abc")
	require.NoError(t, err)

	// Deleted files fall back to their old path.
	assert.Equal(t, []string{"a.go", "gone.go"}, paths)
}

func TestNewGitLabRequiresToken(t *testing.T) {
	_, err := NewGitLab(config.GitConfig{}, nil)
	assert.Error(t, err)
}
