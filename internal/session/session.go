// Package session ties the cache, the fetcher, the resolution engine and
// the response assembler together for one CLI invocation.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevinmichaelchen/repobot/internal/cache"
	"github.com/kevinmichaelchen/repobot/internal/config"
	"github.com/kevinmichaelchen/repobot/internal/github"
	"github.com/kevinmichaelchen/repobot/internal/models"
	"github.com/kevinmichaelchen/repobot/internal/resolve"
	"github.com/kevinmichaelchen/repobot/internal/respond"
)

type Options struct {
	Store         *cache.Store
	Source        github.Source
	Disambiguator resolve.Disambiguator
	Logger        *zap.Logger
}

// Session owns the loaded repository set. The set is replaced wholesale by
// Load and Refresh and is read-only otherwise.
type Session struct {
	cfg     *config.Config
	store   *cache.Store
	source  github.Source
	chooser resolve.Disambiguator
	logger  *zap.Logger
	now     func() time.Time

	repos     models.RepoSet
	fetchedAt time.Time
	engine    *resolve.Engine
	assembler *respond.Assembler
}

func New(cfg *config.Config, opts Options) *Session {
	s := &Session{
		cfg:     cfg,
		store:   opts.Store,
		source:  opts.Source,
		chooser: opts.Disambiguator,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.store == nil {
		s.store = cache.NewStore(cfg.CachePath, s.logger)
	}
	if s.chooser == nil {
		s.chooser = resolve.FirstCandidate{}
	}
	return s
}

// Load reads the cache, fetching and saving a fresh set when there is none.
// A stale cache is used as is, with a warning.
func (s *Session) Load(ctx context.Context) error {
	if snap, ok := s.store.Load(); ok {
		s.install(snap.Repos, snap.FetchedAt)
		if snap.Stale(s.cfg.CacheMaxAge, s.now()) {
			s.logger.Warn("cache is stale; run refresh to update it",
				zap.Time("fetched_at", snap.FetchedAt),
				zap.Duration("max_age", s.cfg.CacheMaxAge))
		}
		s.logger.Debug("loaded cache", zap.Int("repos", len(snap.Repos)))
		return nil
	}
	s.logger.Info("no usable cache, fetching repositories", zap.String("org", s.cfg.Org))
	return s.Refresh(ctx)
}

// Refresh fetches every repository and replaces both the cache file and
// the in-memory set. On error neither is touched.
func (s *Session) Refresh(ctx context.Context) error {
	if s.source == nil {
		return errors.New("no repository source configured")
	}
	repos, err := s.source.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("refreshing repositories: %w", err)
	}
	set := models.NewRepoSet(repos)
	at, err := s.store.Save(set)
	if err != nil {
		return fmt.Errorf("saving cache: %w", err)
	}
	s.install(set, at)
	s.logger.Info("refresh complete", zap.Int("repos", len(set)))
	return nil
}

func (s *Session) install(repos models.RepoSet, at time.Time) {
	s.repos = repos
	s.fetchedAt = at
	s.engine = resolve.NewEngine(repos.Names(), resolve.Options{
		Vocabulary: vocabulary(s.cfg.Intents),
		Thresholds: &resolve.Thresholds{
			DisambiguationGap: s.cfg.Resolution.DisambiguationGap,
			Accept:            s.cfg.Resolution.AcceptScore,
			Intent:            s.cfg.Resolution.IntentScore,
		},
		MaxCombinationWords: s.cfg.Resolution.MaxCombinationWords,
		Disambiguator:       s.chooser,
		Logger:              s.logger.Named("resolve"),
	})
	s.assembler = respond.NewAssembler(repos, respond.Options{
		BotAccount:          s.cfg.BotAccount,
		Keywords:            s.cfg.SummaryKeywords,
		RecentActivityLimit: s.cfg.RecentActivityLimit,
	})
}

func vocabulary(intents []config.IntentConfig) resolve.Vocabulary {
	v := make(resolve.Vocabulary, 0, len(intents))
	for _, ic := range intents {
		v = append(v, resolve.IntentPhrases{Intent: ic.Name, Phrases: ic.Phrases})
	}
	return v
}

// Ask answers one query. It never fails: problems become the answer's
// notice and the session stays usable.
func (s *Session) Ask(ctx context.Context, q string) (ans respond.Answer) {
	ans.Query = q
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("query handling panicked", zap.String("query", q), zap.Any("panic", r))
			ans = respond.Answer{Query: q, Notice: fmt.Sprintf("An unexpected error occurred: %v", r)}
		}
	}()

	if s.engine == nil {
		if err := s.Load(ctx); err != nil {
			s.logger.Error("loading repositories", zap.Error(err))
			ans.Notice = fmt.Sprintf("An unexpected error occurred: %v", err)
			return ans
		}
	}

	res := s.engine.Resolve(q)
	ans.Intent, ans.HasIntent = res.Intent, res.HasIntent
	if res.Err != nil {
		var notFound *resolve.RepoNotFoundError
		if !errors.As(res.Err, &notFound) {
			s.logger.Error("resolving query", zap.String("query", q), zap.Error(res.Err))
			ans.Notice = fmt.Sprintf("An unexpected error occurred: %v", res.Err)
			return ans
		}
		ans.Notice = notFound.Error()
		return ans
	}

	ans.Repo = res.Repo
	if ans.HasIntent {
		ans.Body = s.assembler.Respond(ans.Intent, ans.Repo)
	}
	return ans
}

// ResolveAndRespond answers q as plain text.
func (s *Session) ResolveAndRespond(ctx context.Context, q string) string {
	return s.Ask(ctx, q).Render()
}

type Stats struct {
	Repos     int
	FetchedAt time.Time
	Stale     bool
	CachePath string
}

func (s *Session) Stats() Stats {
	return Stats{
		Repos:     len(s.repos),
		FetchedAt: s.fetchedAt,
		Stale:     s.engine != nil && cache.Snapshot{FetchedAt: s.fetchedAt}.Stale(s.cfg.CacheMaxAge, s.now()),
		CachePath: s.store.Path(),
	}
}

// Repos returns the loaded set.
func (s *Session) Repos() models.RepoSet { return s.repos }
