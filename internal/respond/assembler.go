// Package respond renders canned answers from repository records.
package respond

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kevinmichaelchen/repobot/internal/models"
	"github.com/kevinmichaelchen/repobot/internal/normalize"
)

const (
	NotFound       = "Repository not found."
	NoSummary      = "No summary available."
	NoContributors = "No contributors found."
	NoCommits      = "No recent commits found."
	UnknownLang    = "Unknown"
)

type Options struct {
	// BotAccount is never listed as a contributor.
	BotAccount string
	// Keywords mark sentences worth adding to a summary.
	Keywords            []string
	SummarySentences    int
	RecentActivityLimit int
}

func DefaultOptions() Options {
	return Options{
		BotAccount:          "Github",
		Keywords:            []string{"introduction", "overview", "purpose", "use", "functionality", "goal"},
		SummarySentences:    3,
		RecentActivityLimit: 5,
	}
}

// Assembler answers intents from a read-only repository set.
type Assembler struct {
	repos models.RepoSet
	opts  Options
}

func NewAssembler(repos models.RepoSet, opts Options) *Assembler {
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = 3
	}
	if opts.RecentActivityLimit <= 0 {
		opts.RecentActivityLimit = 5
	}
	return &Assembler{repos: repos, opts: opts}
}

// Respond dispatches to the accessor for intent.
func (a *Assembler) Respond(intent models.Intent, name string) string {
	switch intent {
	case models.IntentSummary:
		return a.Summary(name)
	case models.IntentContributors:
		return a.Contributors(name)
	case models.IntentLanguage:
		return a.Language(name)
	case models.IntentRecentActivity:
		return a.RecentActivity(name)
	default:
		return fmt.Sprintf("No answer for intent %q.", intent)
	}
}

// Summary is the description followed by the leading README sentences and
// the first sentences mentioning a keyword.
func (a *Assembler) Summary(name string) string {
	r, ok := a.repos.Get(name)
	if !ok {
		return NotFound
	}
	if r.Readme == nil || strings.TrimSpace(*r.Readme) == "" {
		return NoSummary
	}

	sentences := splitSentences(normalize.PlainText(*r.Readme))
	n := min(a.opts.SummarySentences, len(sentences))
	body := strings.Join(sentences[:n], ". ")

	var weighted []string
	for _, s := range sentences {
		if len(weighted) == a.opts.SummarySentences {
			break
		}
		if a.hasKeyword(s) {
			weighted = append(weighted, s)
		}
	}
	if len(weighted) > 0 {
		body += ". " + strings.Join(weighted, ". ")
	}
	if body != "" {
		body += "."
	}

	var desc string
	if r.Description != nil {
		desc = strings.TrimSpace(*r.Description)
	}
	switch {
	case desc != "" && body != "":
		return desc + "\n" + body
	case desc != "":
		return desc
	case body != "":
		return body
	default:
		return NoSummary
	}
}

func (a *Assembler) hasKeyword(sentence string) bool {
	for _, k := range a.opts.Keywords {
		if strings.Contains(sentence, k) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Contributors lists logins sorted, without the bot account (matched
// case-insensitively).
func (a *Assembler) Contributors(name string) string {
	r, ok := a.repos.Get(name)
	if !ok {
		return NotFound
	}
	logins := make([]string, 0, len(r.Contributors))
	for _, c := range r.Contributors {
		if !strings.EqualFold(c, a.opts.BotAccount) {
			logins = append(logins, c)
		}
	}
	if len(logins) == 0 {
		return NoContributors
	}
	slices.Sort(logins)
	return strings.Join(logins, ", ")
}

func (a *Assembler) Language(name string) string {
	r, ok := a.repos.Get(name)
	if !ok {
		return NotFound
	}
	if len(r.Languages) == 0 {
		return UnknownLang
	}
	return strings.Join(r.Languages, ", ")
}

// RecentActivity lists the newest commit messages, one per line.
func (a *Assembler) RecentActivity(name string) string {
	r, ok := a.repos.Get(name)
	if !ok {
		return NotFound
	}
	if len(r.RecentCommits) == 0 {
		return NoCommits
	}
	n := min(a.opts.RecentActivityLimit, len(r.RecentCommits))
	return strings.Join(r.RecentCommits[:n], "\n")
}
