package respond

import (
	"strings"

	"github.com/kevinmichaelchen/repobot/internal/models"
)

// Answer is the outcome of one query, ready to render.
type Answer struct {
	Query     string
	Repo      string
	Intent    models.Intent
	HasIntent bool
	Body      string
	// Notice explains why the query could not be fully answered.
	Notice string
}

// Style decorates the parts of a rendered answer. Nil fields leave text
// unchanged.
type Style struct {
	Intent  func(string) string
	Repo    func(string) string
	Failure func(string) string
}

func apply(f func(string) string, s string) string {
	if f == nil {
		return s
	}
	return f(s)
}

func (a Answer) Render() string {
	return a.RenderStyled(Style{})
}

// RenderStyled lays out the notice, intent, repository and body lines.
func (a Answer) RenderStyled(s Style) string {
	var lines []string
	if a.Notice != "" {
		lines = append(lines, apply(s.Failure, a.Notice))
	}
	if a.HasIntent {
		lines = append(lines, "Intent: "+apply(s.Intent, string(a.Intent)))
	} else {
		lines = append(lines, apply(s.Failure, "Intent not identified."))
	}
	if a.Repo != "" {
		lines = append(lines, "Repository: "+apply(s.Repo, a.Repo))
	} else {
		lines = append(lines, apply(s.Failure, "Repository not identified."))
	}
	if a.Body != "" {
		if a.HasIntent && a.Intent == models.IntentSummary {
			lines = append(lines, "Summary: "+a.Body)
		} else {
			lines = append(lines, a.Body)
		}
	}
	return strings.Join(lines, "\n")
}
