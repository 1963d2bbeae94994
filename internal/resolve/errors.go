package resolve

import "fmt"

// RepoNotFoundError reports a query that matched no repository with enough
// confidence.
type RepoNotFoundError struct {
	Query string
}

func (e *RepoNotFoundError) Error() string {
	return fmt.Sprintf("Could not identify a repository from the query: '%s'", e.Query)
}
