package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kevinmichaelchen/repobot/internal/cache"
	"github.com/kevinmichaelchen/repobot/internal/config"
	"github.com/kevinmichaelchen/repobot/internal/github"
	"github.com/kevinmichaelchen/repobot/internal/resolve"
	"github.com/kevinmichaelchen/repobot/internal/session"
)

type app struct {
	verbose bool
	batch   bool
	logger  *zap.Logger
	stdin   *bufio.Reader
	styles  styles
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{stdin: bufio.NewReader(os.Stdin), styles: newStyles()}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "repobot [question]",
		Short: "Answer questions about an organization's GitHub repositories",
		Long: `repobot answers plain-English questions about the repositories of one GitHub
organization: what a repository is about, who works on it, which languages it
uses and what changed recently.

Arguments without a subcommand are treated as a question, so
"repobot who works on insights-core" is the same as "repobot ask ...".`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.ask(cmd, args)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.batch, "batch", false, "Never prompt; take the best match when repositories tie")

	root.AddCommand(askCmd(a), refreshCmd(a), chatCmd(a), statsCmd(a))
	return root
}

func (a *app) initLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if a.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// newSession wires config, GitHub client, cache and disambiguation for one
// invocation.
func (a *app) newSession(out io.Writer) (*session.Session, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.GitHubToken == "" {
		a.logger.Warn("no GitHub token found; API requests are unauthenticated", zap.String("token_path", cfg.TokenPath))
	}

	client := github.NewClient(cfg.GitHubToken, github.Options{
		BaseURL:           cfg.GitHubAPIURL,
		Timeout:           cfg.RequestTimeout,
		MaxRetries:        cfg.MaxRetries,
		RateLimitCooldown: cfg.RateLimitCooldown,
		Logger:            a.logger.Named("github"),
	})
	fetcher := github.NewFetcher(client, github.FetchOptions{
		Org:               cfg.Org,
		ExcludeSuffix:     cfg.ExcludeSuffix,
		MaxCommits:        cfg.MaxCommits,
		RecentCommitLimit: cfg.RecentCommitLimit,
		Workers:           cfg.Workers,
		Logger:            a.logger.Named("fetch"),
	})

	var chooser resolve.Disambiguator = resolve.NewPrompt(a.stdin, out)
	if a.batch {
		chooser = resolve.FirstCandidate{}
	}

	s := session.New(cfg, session.Options{
		Store:         cache.NewStore(cfg.CachePath, a.logger.Named("cache")),
		Source:        fetcher,
		Disambiguator: chooser,
		Logger:        a.logger,
	})
	return s, cfg, nil
}

func askCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ask(cmd, args)
		},
	}
}

func (a *app) ask(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	s, _, err := a.newSession(out)
	if err != nil {
		return err
	}
	if err := s.Load(cmd.Context()); err != nil {
		return err
	}
	ans := s.Ask(cmd.Context(), strings.Join(args, " "))
	_, _ = fmt.Fprintln(out, ans.RenderStyled(a.styles.answer()))
	return nil
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-fetch every repository from GitHub and rewrite the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, cfg, err := a.newSession(out)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Fetching repositories of %s...\n", cfg.Org)
			if err := s.Refresh(cmd.Context()); err != nil {
				return err
			}
			st := s.Stats()
			_, _ = fmt.Fprintf(out, "Cached %d repositories to %s\n", st.Repos, st.CachePath)
			return nil
		},
	}
}

func chatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively until exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, _, err := a.newSession(out)
			if err != nil {
				return err
			}
			if err := s.Load(cmd.Context()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, `Ask about a repository. Type "exit" or "quit" to leave.`)
			for {
				_, _ = fmt.Fprint(out, "> ")
				line, readErr := a.stdin.ReadString('\n')
				q := strings.TrimSpace(line)

				switch strings.ToLower(q) {
				case "exit", "quit":
					return nil
				case "":
				default:
					ans := s.Ask(cmd.Context(), q)
					_, _ = fmt.Fprintln(out, ans.RenderStyled(a.styles.answer()))
				}

				if readErr != nil {
					if errors.Is(readErr, io.EOF) {
						_, _ = fmt.Fprintln(out)
						return nil
					}
					return fmt.Errorf("reading input: %w", readErr)
				}
				if err := cmd.Context().Err(); err != nil {
					return nil
				}
			}
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, cfg, err := a.newSession(out)
			if err != nil {
				return err
			}
			if err := s.Load(cmd.Context()); err != nil {
				return err
			}

			st := s.Stats()
			_, _ = fmt.Fprintf(out, "Organization: %s\n", cfg.Org)
			_, _ = fmt.Fprintf(out, "Repositories: %d\n", st.Repos)
			_, _ = fmt.Fprintf(out, "Fetched:      %s\n", st.FetchedAt.Local().Format(time.DateTime))
			_, _ = fmt.Fprintf(out, "Cache:        %s\n", st.CachePath)
			if st.Stale {
				_, _ = fmt.Fprintln(out, a.styles.failure.Render("Cache is stale; run \"repobot refresh\"."))
			}
			return nil
		},
	}
}
