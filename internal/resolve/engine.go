// Package resolve maps a free-text question to one repository name and one
// intent.
//
// Repository resolution tries, in order: an exact match of a hyphen-joined
// combination of the query's content words, an exact match of a single
// query word, and fuzzy matching against every known name. Close fuzzy
// results are handed to a Disambiguator.
package resolve

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kevinmichaelchen/repobot/internal/fuzzy"
	"github.com/kevinmichaelchen/repobot/internal/models"
)

// Thresholds are the scores (0-100) that drive resolution decisions.
type Thresholds struct {
	// DisambiguationGap: the top two fuzzy scores must differ by at least
	// this much for the top one to be picked without asking.
	DisambiguationGap int
	// Accept is the minimum fuzzy score for an unambiguous match.
	Accept int
	// Intent is the minimum score for an intent to be detected.
	Intent int
}

func DefaultThresholds() Thresholds {
	return Thresholds{DisambiguationGap: 10, Accept: 70, Intent: 80}
}

// IntentPhrases lists the phrases that signal one intent.
type IntentPhrases struct {
	Intent  models.Intent
	Phrases []string
}

// Vocabulary is ordered: on equal scores the earlier intent wins.
type Vocabulary []IntentPhrases

const (
	defaultMaxCombinationWords = 16
	fuzzyCandidates            = 3
)

type Options struct {
	Vocabulary Vocabulary
	// Thresholds defaults to DefaultThresholds when nil. Zero values in a
	// non-nil Thresholds are used as given.
	Thresholds *Thresholds
	// MaxCombinationWords caps how many content words feed combination
	// matching; the subset count grows as 2^n.
	MaxCombinationWords int
	Disambiguator       Disambiguator
	Logger              *zap.Logger
}

// Engine resolves queries against a fixed set of repository names. It never
// mutates its inputs and is safe for concurrent use if its Disambiguator is.
type Engine struct {
	names    []string
	byLower  map[string]string
	vocab    Vocabulary
	th       Thresholds
	maxWords int
	chooser  Disambiguator
	logger   *zap.Logger
}

func NewEngine(names []string, opts Options) *Engine {
	e := &Engine{
		names:    append([]string(nil), names...),
		byLower:  make(map[string]string, len(names)),
		vocab:    opts.Vocabulary,
		th:       DefaultThresholds(),
		maxWords: opts.MaxCombinationWords,
		chooser:  opts.Disambiguator,
		logger:   opts.Logger,
	}
	for _, n := range names {
		e.byLower[strings.ToLower(n)] = n
	}
	if opts.Thresholds != nil {
		e.th = *opts.Thresholds
	}
	if e.maxWords <= 0 {
		e.maxWords = defaultMaxCombinationWords
	}
	if e.chooser == nil {
		e.chooser = FirstCandidate{}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Result is the outcome of resolving one query. Err is a
// *RepoNotFoundError when no repository could be identified.
type Result struct {
	Repo      string
	Intent    models.Intent
	HasIntent bool
	Err       error
}

// Resolve resolves the repository and then the intent of q. Intent
// detection needs the repository, so it is skipped when none is found.
func (e *Engine) Resolve(q string) Result {
	repo, err := e.ResolveRepo(q)
	if err != nil {
		return Result{Err: err}
	}
	intent, ok := e.ResolveIntent(q, repo)
	return Result{Repo: repo, Intent: intent, HasIntent: ok}
}

// ResolveRepo returns the repository q refers to.
func (e *Engine) ResolveRepo(q string) (string, error) {
	if name, ok := e.matchCombination(q); ok {
		e.logger.Debug("combination match", zap.String("query", q), zap.String("repo", name))
		return name, nil
	}
	if name, ok := e.matchWord(q); ok {
		e.logger.Debug("word match", zap.String("query", q), zap.String("repo", name))
		return name, nil
	}

	matches := fuzzy.Extract(q, e.names, fuzzyCandidates)
	if len(matches) == 0 {
		return "", &RepoNotFoundError{Query: q}
	}
	candidates := make([]Candidate, len(matches))
	for i, m := range matches {
		candidates[i] = Candidate{Name: m.Choice, Score: m.Score}
	}
	e.logger.Debug("fuzzy candidates", zap.String("query", q), zap.Any("candidates", candidates))

	if len(candidates) > 1 && candidates[0].Score-candidates[1].Score < e.th.DisambiguationGap {
		chosen, err := e.chooser.Choose(candidates)
		if err != nil {
			return "", fmt.Errorf("disambiguating %q: %w", q, err)
		}
		return chosen.Name, nil
	}
	if candidates[0].Score >= e.th.Accept {
		return candidates[0].Name, nil
	}
	return "", &RepoNotFoundError{Query: q}
}

// matchCombination looks up every combination token of q and returns the
// longest known name, breaking ties lexically.
func (e *Engine) matchCombination(q string) (string, bool) {
	best := ""
	for _, token := range e.Combinations(q) {
		name, ok := e.byLower[strings.ToLower(token)]
		if !ok {
			continue
		}
		if l, bl := utf8.RuneCountInString(name), utf8.RuneCountInString(best); l > bl || (l == bl && name < best) {
			best = name
		}
	}
	return best, best != ""
}

// matchWord returns the first query word, stop words included, that names a
// repository.
func (e *Engine) matchWord(q string) (string, bool) {
	for _, w := range queryWords(q) {
		if name, ok := e.byLower[strings.ToLower(w)]; ok {
			return name, true
		}
	}
	return "", false
}

// Combinations returns every k-subset (k >= 2) of the content words of q,
// each joined with "-" and in query order. Subsets are listed by size and
// then lexicographically by word position.
func (e *Engine) Combinations(q string) []string {
	var words []string
	for _, w := range queryWords(q) {
		if !isStopWord(strings.ToLower(w)) {
			words = append(words, w)
		}
	}
	if len(words) > e.maxWords {
		words = words[:e.maxWords]
	}

	var out []string
	idx := make([]int, 0, len(words))
	var pick func(start, k int)
	pick = func(start, k int) {
		if len(idx) == k {
			parts := make([]string, k)
			for i, j := range idx {
				parts[i] = words[j]
			}
			out = append(out, strings.Join(parts, "-"))
			return
		}
		for i := start; i <= len(words)-(k-len(idx)); i++ {
			idx = append(idx, i)
			pick(i+1, k)
			idx = idx[:len(idx)-1]
		}
	}
	for k := 2; k <= len(words); k++ {
		pick(0, k)
	}
	return out
}

// ResolveIntent scores q, with the repository name removed, against every
// vocabulary phrase. The bool is false when no intent scores high enough.
func (e *Engine) ResolveIntent(q, repo string) (models.Intent, bool) {
	text := strings.ToLower(q)
	if repo != "" {
		text = strings.ReplaceAll(text, strings.ToLower(repo), "")
	}
	text = strings.TrimSpace(text)

	var best models.Intent
	bestScore := -1
	for _, entry := range e.vocab {
		for _, phrase := range entry.Phrases {
			if score := fuzzy.WRatio(text, phrase); score > bestScore {
				best, bestScore = entry.Intent, score
			}
		}
	}
	e.logger.Debug("intent scored", zap.String("query", q), zap.String("intent", string(best)), zap.Int("score", bestScore))

	if bestScore < e.th.Intent {
		return "", false
	}
	return best, true
}

// queryWords splits q on whitespace and trims punctuation around each word.
func queryWords(q string) []string {
	fields := strings.Fields(q)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}
