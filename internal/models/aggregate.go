package models

import "sort"

// AuthorAggregate accumulates one author's activity over a window.
type AuthorAggregate struct {
	Name      string
	Commits   int
	Added     int
	Deleted   int
	FileCount int
	Repos     map[string]struct{}
	Languages map[string]int
}

// Net returns added minus deleted lines.
func (a *AuthorAggregate) Net() int { return a.Added - a.Deleted }

// RepoNames returns the author's repositories sorted by name.
func (a *AuthorAggregate) RepoNames() []string {
	names := make([]string, 0, len(a.Repos))
	for r := range a.Repos {
		names = append(names, r)
	}
	sort.Strings(names)
	return names
}

// TopLanguages returns the author's languages ordered by file count desc,
// ties by name, capped at n.
func (a *AuthorAggregate) TopLanguages(n int) []string {
	type lc struct {
		name  string
		count int
	}
	all := make([]lc, 0, len(a.Languages))
	for name, count := range a.Languages {
		all = append(all, lc{name, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count == all[j].count {
			return all[i].name < all[j].name
		}
		return all[i].count > all[j].count
	})
	if n > len(all) {
		n = len(all)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].name
	}
	return out
}

// RepoAggregate accumulates one repository's activity over a window.
type RepoAggregate struct {
	Name    string
	Type    RepoType
	Commits int
	Added   int
	Deleted int
	Authors map[string]struct{}
}

// Net returns added minus deleted lines.
func (r *RepoAggregate) Net() int { return r.Added - r.Deleted }

// BuildAuthorAggregates groups commits per author. Empty input yields an
// empty map, never nil entries.
func BuildAuthorAggregates(commits []Commit) map[string]*AuthorAggregate {
	out := make(map[string]*AuthorAggregate)
	for _, c := range commits {
		agg, ok := out[c.Author]
		if !ok {
			agg = &AuthorAggregate{
				Name:      c.Author,
				Repos:     make(map[string]struct{}),
				Languages: make(map[string]int),
			}
			out[c.Author] = agg
		}
		agg.Commits++
		agg.Added += c.LinesAdded()
		agg.Deleted += c.LinesDeleted()
		agg.FileCount += len(c.Files)
		if c.RepoName != "" {
			agg.Repos[c.RepoName] = struct{}{}
		}
	}
	return out
}

// BuildRepoAggregates groups commits per repository.
func BuildRepoAggregates(commits []Commit) map[string]*RepoAggregate {
	out := make(map[string]*RepoAggregate)
	for _, c := range commits {
		agg, ok := out[c.RepoName]
		if !ok {
			agg = &RepoAggregate{
				Name:    c.RepoName,
				Type:    c.RepoType,
				Authors: make(map[string]struct{}),
			}
			out[c.RepoName] = agg
		}
		agg.Commits++
		agg.Added += c.LinesAdded()
		agg.Deleted += c.LinesDeleted()
		agg.Authors[c.Author] = struct{}{}
	}
	return out
}
