package models

import (
	"sort"
	"time"
)

// Repo is the normalized metadata of one organization repository.
// Name is the only identity.
type Repo struct {
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	Readme        *string  `json:"readme"`
	ReadmeFile    string   `json:"readme_file,omitempty"`
	Contributors  []string `json:"contributors"`
	RecentCommits []string `json:"recent_commits"`
	Languages     []string `json:"languages"`
	URL           string   `json:"url"`
}

// Commit is one entry of a repository's commit history, newest first.
type Commit struct {
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// RecentMessages returns the messages of the first limit commits.
func RecentMessages(commits []Commit, limit int) []string {
	limit = min(max(limit, 0), len(commits))
	msgs := make([]string, 0, limit)
	for _, c := range commits[:limit] {
		msgs = append(msgs, c.Message)
	}
	return msgs
}

// RepoSet is the working set of records keyed by name.
type RepoSet map[string]Repo

// NewRepoSet indexes repos by name. A later record replaces an earlier one
// with the same name.
func NewRepoSet(repos []Repo) RepoSet {
	set := make(RepoSet, len(repos))
	for _, r := range repos {
		set[r.Name] = r
	}
	return set
}

func (s RepoSet) Get(name string) (Repo, bool) {
	r, ok := s[name]
	return r, ok
}

// Names returns every repository name in lexical order.
func (s RepoSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
