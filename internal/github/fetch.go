package github

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kevinmichaelchen/repobot/internal/models"
	"github.com/kevinmichaelchen/repobot/internal/normalize"
)

// Source produces the complete repository set in one pass.
type Source interface {
	FetchAll(ctx context.Context) ([]models.Repo, error)
}

type FetchOptions struct {
	Org               string
	ExcludeSuffix     string
	MaxCommits        int
	RecentCommitLimit int
	// Workers bounds concurrent enrichment. 1 keeps requests strictly
	// sequential, which is the safe choice against rate limits.
	Workers int
	Logger  *zap.Logger
}

// Fetcher performs a full fetch: list, filter, enrich every repository, then
// retry failed README fetches once more.
type Fetcher struct {
	client *Client
	opts   FetchOptions
	logger *zap.Logger
}

var _ Source = (*Fetcher)(nil)

func NewFetcher(c *Client, opts FetchOptions) *Fetcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RecentCommitLimit <= 0 {
		opts.RecentCommitLimit = 3
	}
	// Only RecentCommitLimit commits are kept, so fetching more costs quota
	// for nothing unless asked for.
	opts.MaxCommits = max(opts.MaxCommits, opts.RecentCommitLimit)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: c, opts: opts, logger: logger}
}

// FetchAll returns one enriched record per non-excluded repository. Listing
// failures abort the pass; enrichment failures leave the field empty.
func (f *Fetcher) FetchAll(ctx context.Context) ([]models.Repo, error) {
	raws, err := f.client.ListRepos(ctx, f.opts.Org)
	if err != nil {
		return nil, fmt.Errorf("listing repositories of %s: %w", f.opts.Org, err)
	}
	raws = Exclude(raws, f.opts.ExcludeSuffix)
	f.logger.Info("repositories listed", zap.Int("count", len(raws)))

	records := make([]models.Repo, len(raws))
	readmeFailed := make([]bool, len(raws))

	var done atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)

	for i, raw := range raws {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rec, readmeErr := f.enrich(gCtx, raw)
			records[i] = rec
			readmeFailed[i] = readmeErr != nil

			n := done.Add(1)
			if n%10 == 0 || int(n) == len(raws) {
				f.logger.Info("enriched repositories", zap.Int64("done", n), zap.Int("total", len(raws)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.retryReadmes(ctx, raws, records, readmeFailed)
	return records, nil
}

// Exclude drops repositories whose name ends with suffix.
func Exclude(raws []RawRepo, suffix string) []RawRepo {
	if suffix == "" {
		return raws
	}
	kept := make([]RawRepo, 0, len(raws))
	for _, r := range raws {
		if !strings.HasSuffix(r.Name, suffix) {
			kept = append(kept, r)
		}
	}
	return kept
}

func (f *Fetcher) enrich(ctx context.Context, raw RawRepo) (models.Repo, error) {
	rec := models.Repo{
		Name:          raw.Name,
		Description:   raw.Description,
		URL:           raw.HTMLURL,
		Contributors:  []string{},
		RecentCommits: []string{},
		Languages:     []string{},
	}
	log := f.logger.With(zap.String("repo", raw.Name))

	readmeErr := f.fillReadme(ctx, raw, &rec)

	if langs, err := f.client.Languages(ctx, raw); err != nil {
		log.Warn("languages unavailable", zap.Error(err))
	} else {
		rec.Languages = langs
	}

	commits, err := f.client.Commits(ctx, raw, f.opts.MaxCommits)
	if err != nil {
		log.Warn("commit history incomplete", zap.Int("fetched", len(commits)), zap.Error(err))
	}
	rec.RecentCommits = models.RecentMessages(commits, f.opts.RecentCommitLimit)

	contributors, err := f.client.Contributors(ctx, raw)
	if err != nil {
		log.Warn("contributors incomplete", zap.Int("fetched", len(contributors)), zap.Error(err))
	}
	rec.Contributors = contributors

	return rec, readmeErr
}

func (f *Fetcher) fillReadme(ctx context.Context, raw RawRepo, rec *models.Repo) error {
	filename, content, err := f.client.Readme(ctx, raw)
	if err != nil {
		f.logger.Warn("README fetch failed", zap.String("repo", raw.Name), zap.Error(err))
		return err
	}
	if filename == "" {
		f.logger.Debug("no README", zap.String("repo", raw.Name))
		return nil
	}
	text := normalize.Normalize(content, filename)
	rec.Readme = &text
	rec.ReadmeFile = filename
	return nil
}

// retryReadmes gives repositories whose README fetch failed one more chance
// after everything else has been processed.
func (f *Fetcher) retryReadmes(ctx context.Context, raws []RawRepo, records []models.Repo, failed []bool) {
	var pending []int
	for i, ok := range failed {
		if ok {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return
	}
	f.logger.Info("retrying README fetches", zap.Int("count", len(pending)))

	recovered := 0
	for _, i := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := f.fillReadme(ctx, raws[i], &records[i]); err == nil {
			recovered++
		}
	}
	f.logger.Info("README retry pass complete", zap.Int("recovered", recovered), zap.Int("attempted", len(pending)))
}
