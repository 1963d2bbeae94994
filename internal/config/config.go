package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kevinmichaelchen/repobot/internal/models"
)

type Config struct {
	GitHubToken  string `yaml:"-"`
	GitHubAPIURL string `yaml:"github_api_url"`
	Org          string `yaml:"org"`

	TokenPath   string        `yaml:"token_path"`
	CachePath   string        `yaml:"cache_path"`
	CacheMaxAge time.Duration `yaml:"cache_max_age"`

	ExcludeSuffix     string        `yaml:"exclude_suffix"`
	MaxRetries        int           `yaml:"max_retries"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	// MaxCommits bounds the commit history fetched per repository. Below
	// RecentCommitLimit (including the default 0) it follows that limit.
	MaxCommits        int           `yaml:"max_commits"`
	RecentCommitLimit int           `yaml:"recent_commit_limit"`
	Workers           int           `yaml:"workers"`

	Resolution Resolution     `yaml:"resolution"`
	Intents    []IntentConfig `yaml:"intents"`

	BotAccount          string   `yaml:"bot_account"`
	SummaryKeywords     []string `yaml:"summary_keywords"`
	RecentActivityLimit int      `yaml:"recent_activity_limit"`
}

// Resolution holds the tunable scores of the query resolution engine.
type Resolution struct {
	DisambiguationGap   int `yaml:"disambiguation_gap"`
	AcceptScore         int `yaml:"accept_score"`
	IntentScore         int `yaml:"intent_score"`
	MaxCombinationWords int `yaml:"max_combination_words"`
}

// IntentConfig maps an intent to its representative phrases. Order matters:
// on equal scores the earlier intent wins.
type IntentConfig struct {
	Name    models.Intent `yaml:"name"`
	Phrases []string      `yaml:"phrases"`
}

// Dir is the directory holding the token, cache and config file.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repobot"
	}
	return filepath.Join(home, ".config", "repobot")
}

func Default() *Config {
	dir := Dir()
	return &Config{
		GitHubAPIURL: "https://api.github.com",
		Org:          "RedHatInsights",

		TokenPath:   filepath.Join(dir, "token"),
		CachePath:   filepath.Join(dir, "repos.json"),
		CacheMaxAge: 30 * 24 * time.Hour,

		ExcludeSuffix:     "-build",
		MaxRetries:        3,
		RequestTimeout:    10 * time.Second,
		RateLimitCooldown: time.Minute,
		RecentCommitLimit: 3,
		Workers:           1,

		Resolution: Resolution{
			DisambiguationGap:   10,
			AcceptScore:         70,
			IntentScore:         80,
			MaxCombinationWords: 16,
		},
		Intents: DefaultIntents(),

		BotAccount:          "Github",
		SummaryKeywords:     []string{"introduction", "overview", "purpose", "use", "functionality", "goal"},
		RecentActivityLimit: 5,
	}
}

func DefaultIntents() []IntentConfig {
	return []IntentConfig{
		{Name: models.IntentSummary, Phrases: []string{
			"summary", "describe", "explain", "what is", "tell me about", "details",
			"overview", "tell me a bit about", "does do",
		}},
		{Name: models.IntentContributors, Phrases: []string{
			"who works", "works", "contributors", "team members", "developers",
			"maintainers", "people", "team",
		}},
		{Name: models.IntentLanguage, Phrases: []string{
			"language", "written in", "coding language", "programmed in",
			"developed in", "coded in",
		}},
		{Name: models.IntentRecentActivity, Phrases: []string{
			"recent", "recently", "new", "changes", "updates", "happening",
			"going on", "changed",
		}},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment (including a .env file in the working directory).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path := os.Getenv("REPOBOT_CONFIG")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(Dir(), "config.yaml")
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if cfg.GitHubToken == "" {
		cfg.GitHubToken = readToken(cfg.TokenPath)
	}
	// The client appends paths itself.
	cfg.GitHubAPIURL = strings.TrimSuffix(cfg.GitHubAPIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHubToken = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		c.GitHubAPIURL = v
	}
	if v := os.Getenv("REPOBOT_ORG"); v != "" {
		c.Org = v
	}
	if v := os.Getenv("REPOBOT_CACHE_PATH"); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv("REPOBOT_TOKEN_PATH"); v != "" {
		c.TokenPath = v
	}
}

func readToken(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Validate rejects settings the engine cannot work with.
func (c *Config) Validate() error {
	if c.Org == "" {
		return errors.New("org must be set")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	for name, score := range map[string]int{
		"disambiguation_gap": c.Resolution.DisambiguationGap,
		"accept_score":       c.Resolution.AcceptScore,
		"intent_score":       c.Resolution.IntentScore,
	} {
		if score < 0 || score > 100 {
			return fmt.Errorf("resolution.%s must be within 0-100, got %d", name, score)
		}
	}
	if len(c.Intents) == 0 {
		return errors.New("at least one intent is required")
	}
	for _, ic := range c.Intents {
		if !ic.Name.Valid() {
			return fmt.Errorf("unknown intent %q", ic.Name)
		}
		if len(ic.Phrases) == 0 {
			return fmt.Errorf("intent %q has no phrases", ic.Name)
		}
	}
	return nil
}
