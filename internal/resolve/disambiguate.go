package resolve

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Candidate is a repository name with its similarity to the query.
type Candidate struct {
	Name  string
	Score int
}

// Disambiguator picks one repository when the best fuzzy matches are too
// close to call. Candidates are ordered best first.
type Disambiguator interface {
	Choose(candidates []Candidate) (Candidate, error)
}

// DisambiguatorFunc adapts a function to Disambiguator.
type DisambiguatorFunc func(candidates []Candidate) (Candidate, error)

func (f DisambiguatorFunc) Choose(candidates []Candidate) (Candidate, error) {
	return f(candidates)
}

var ErrNoCandidates = errors.New("no candidates to choose from")

// FirstCandidate always takes the best-scoring candidate. It is the
// non-interactive choice for batch use.
type FirstCandidate struct{}

func (FirstCandidate) Choose(candidates []Candidate) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, ErrNoCandidates
	}
	return candidates[0], nil
}

const defaultPromptAttempts = 3

// Prompt asks the user to pick a candidate by number. After MaxAttempts
// invalid answers, or when input ends, the best candidate is used.
type Prompt struct {
	in          *bufio.Reader
	out         io.Writer
	MaxAttempts int
}

// NewPrompt reads answers from in. Pass the same *bufio.Reader used for
// other input on the stream so buffered lines are not lost.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Prompt{in: br, out: out, MaxAttempts: defaultPromptAttempts}
}

func (p *Prompt) Choose(candidates []Candidate) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, ErrNoCandidates
	}

	_, _ = fmt.Fprintln(p.out, "Multiple repositories matched your query:")
	for i, c := range candidates {
		_, _ = fmt.Fprintf(p.out, "%d. %s (%d%%)\n", i+1, c.Name, c.Score)
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = defaultPromptAttempts
	}
	for range attempts {
		_, _ = fmt.Fprint(p.out, "Please select the correct repository by number: ")
		line, err := p.in.ReadString('\n')
		if n, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil && n >= 1 && n <= len(candidates) {
			return candidates[n-1], nil
		}
		if errors.Is(err, io.EOF) {
			_, _ = fmt.Fprintf(p.out, "\nNo selection made; using %s.\n", candidates[0].Name)
			return candidates[0], nil
		}
		if err != nil {
			return Candidate{}, fmt.Errorf("reading selection: %w", err)
		}
		_, _ = fmt.Fprintf(p.out, "Invalid selection. Enter a number between 1 and %d.\n", len(candidates))
	}

	_, _ = fmt.Fprintf(p.out, "Too many invalid attempts; using %s.\n", candidates[0].Name)
	return candidates[0], nil
}
