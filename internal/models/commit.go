package models

import (
	"sort"
	"time"
)

// RepoType buckets repositories by their dominant technology. Providers
// infer it from upstream metadata (language field or name keywords).
type RepoType string

const (
	RepoTypeJava    RepoType = "java"
	RepoTypePython  RepoType = "python"
	RepoTypeWeb     RepoType = "web-frontend"
	RepoTypeMobile  RepoType = "mobile"
	RepoTypeGo      RepoType = "go"
	RepoTypeRust    RepoType = "rust"
	RepoTypeInfra   RepoType = "infra"
	RepoTypeUnknown RepoType = "unknown"
)

// Repository describes one source repository as enumerated by a provider.
type Repository struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	DefaultBranch string   `json:"default_branch"`
	Type          RepoType `json:"type"`
	Archived      bool     `json:"archived"`
}

// FileChange is a single file touched by a commit.
type FileChange struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// Net returns added minus deleted lines.
func (f FileChange) Net() int { return f.Added - f.Deleted }

// UnknownFile is the synthetic path used when an upstream API exposes
// commit totals but no per-file numbers.
const UnknownFile = "(unknown)"

// Commit is the uniform commit record all providers emit. Equality is by
// Hash. RepoName and RepoType are annotated by the reporter after fetch.
type Commit struct {
	Hash      string       `json:"hash"`
	Author    string       `json:"author"`
	Email     string       `json:"email"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
	Files     []FileChange `json:"files"`
	RepoName  string       `json:"repo_name,omitempty"`
	RepoType  RepoType     `json:"repo_type,omitempty"`
}

// LinesAdded sums added lines across the commit's files.
func (c Commit) LinesAdded() int {
	n := 0
	for _, f := range c.Files {
		n += f.Added
	}
	return n
}

// LinesDeleted sums deleted lines across the commit's files.
func (c Commit) LinesDeleted() int {
	n := 0
	for _, f := range c.Files {
		n += f.Deleted
	}
	return n
}

// LinesNet returns LinesAdded minus LinesDeleted.
func (c Commit) LinesNet() int { return c.LinesAdded() - c.LinesDeleted() }

// SortCommits orders commits descending by timestamp; equal timestamps
// are ordered ascending by hash so the result is stable across runs.
func SortCommits(commits []Commit) {
	sort.SliceStable(commits, func(i, j int) bool {
		if commits[i].Timestamp.Equal(commits[j].Timestamp) {
			return commits[i].Hash < commits[j].Hash
		}
		return commits[i].Timestamp.After(commits[j].Timestamp)
	})
}

// DedupeByHash removes duplicate commits, keeping the first occurrence.
// Commits reachable from several branches appear once per report.
func DedupeByHash(commits []Commit) []Commit {
	seen := make(map[string]struct{}, len(commits))
	out := commits[:0]
	for _, c := range commits {
		if _, ok := seen[c.Hash]; ok {
			continue
		}
		seen[c.Hash] = struct{}{}
		out = append(out, c)
	}
	return out
}
