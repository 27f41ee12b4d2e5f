package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

// fakeProvider serves canned commits and fails on demand.
type fakeProvider struct {
	repos    []models.Repository
	commits  map[string][]models.Commit
	failing  map[string]bool
	cleaned  bool
	listErr  error
	delay    time.Duration
	cleanups int
}

func (f *fakeProvider) ListRepositories(ctx context.Context) ([]models.Repository, error) {
	return f.repos, f.listErr
}

func (f *fakeProvider) GetCommits(ctx context.Context, repoID string, window models.TimeWindow, branch string) ([]models.Commit, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failing[repoID] {
		return nil, pulseerr.Wrap(pulseerr.ErrTransport, "boom")
	}
	return f.commits[repoID], nil
}

func (f *fakeProvider) GetFileContent(ctx context.Context, repoID, path, ref string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeProvider) GetFileLineCount(ctx context.Context, repoID, path, ref string) (int, error) {
	return 0, nil
}

func (f *fakeProvider) GetFileHistory(ctx context.Context, repoID, path string, window models.TimeWindow) ([]models.Commit, error) {
	return nil, nil
}

func (f *fakeProvider) Cleanup() error {
	f.cleaned = true
	f.cleanups++
	return nil
}

func testWindow() models.TimeWindow {
	return models.TimeWindow{
		Start: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchAllAnnotatesAndSorts(t *testing.T) {
	window := testWindow()
	f := &fakeProvider{
		repos: []models.Repository{
			{ID: "a", Name: "alpha", Type: models.RepoTypeGo},
			{ID: "b", Name: "beta", Type: models.RepoTypeJava},
		},
		commits: map[string][]models.Commit{
			"a": {{Hash: "1", Timestamp: window.Start.Add(2 * time.Hour)}},
			"b": {{Hash: "2", Timestamp: window.Start.Add(5 * time.Hour)}},
		},
	}

	res, err := FetchAll(context.Background(), f, window, FetchOptions{Workers: 2})
	require.NoError(t, err)

	require.Len(t, res.Commits, 2)
	assert.Equal(t, "2", res.Commits[0].Hash)
	assert.Equal(t, "beta", res.Commits[0].RepoName)
	assert.Equal(t, models.RepoTypeJava, res.Commits[0].RepoType)
	assert.False(t, res.Partial)
	assert.Empty(t, res.Failed)
}

func TestFetchAllIsolatesRepoFailures(t *testing.T) {
	window := testWindow()
	f := &fakeProvider{
		repos: []models.Repository{
			{ID: "good", Name: "good"},
			{ID: "bad", Name: "bad"},
		},
		commits: map[string][]models.Commit{
			"good": {{Hash: "1", Timestamp: window.Start.Add(time.Hour)}},
		},
		failing: map[string]bool{"bad": true},
	}

	res, err := FetchAll(context.Background(), f, window, FetchOptions{})
	require.NoError(t, err)

	assert.Len(t, res.Commits, 1)
	assert.Equal(t, []string{"bad"}, res.Failed)
	assert.False(t, res.Partial)
}

func TestFetchAllDeadlineMarksPartial(t *testing.T) {
	window := testWindow()
	f := &fakeProvider{
		repos: []models.Repository{{ID: "slow", Name: "slow"}},
		delay: 200 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := FetchAll(ctx, f, window, FetchOptions{Timeout: time.Second})
	require.NoError(t, err)

	assert.True(t, res.Partial)
}

func TestFetchAllListFailureIsFatal(t *testing.T) {
	f := &fakeProvider{listErr: pulseerr.Wrap(pulseerr.ErrTransport, "down")}

	_, err := FetchAll(context.Background(), f, testWindow(), FetchOptions{})
	assert.Error(t, err)
}
