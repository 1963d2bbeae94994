package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinmichaelchen/repobot/internal/models"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("REPOBOT_CONFIG", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_API_URL", "")
	t.Setenv("REPOBOT_ORG", "")
	t.Setenv("REPOBOT_CACHE_PATH", "")
	t.Setenv("REPOBOT_TOKEN_PATH", "")
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "RedHatInsights", cfg.Org)
	assert.Equal(t, filepath.Join(home, ".config", "repobot", "repos.json"), cfg.CachePath)
	assert.Equal(t, 30*24*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "-build", cfg.ExcludeSuffix)
	assert.Equal(t, 10, cfg.Resolution.DisambiguationGap)
	assert.Equal(t, 70, cfg.Resolution.AcceptScore)
	assert.Equal(t, 80, cfg.Resolution.IntentScore)
	assert.Empty(t, cfg.GitHubToken)

	require.Len(t, cfg.Intents, 4)
	assert.Equal(t, models.IntentSummary, cfg.Intents[0].Name)
	assert.Equal(t, models.IntentRecentActivity, cfg.Intents[3].Name)
}

func TestLoad_TokenFile(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "repobot")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte("  file-token\n"), 0o600))

	t.Run("read from token path", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "file-token", cfg.GitHubToken)
	})

	t.Run("GITHUB_TOKEN wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.GitHubToken)
	})
}

func TestLoad_YAMLOverlay(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.yaml")
	yml := `
org: acme
cache_max_age: 48h
github_api_url: http://localhost:9999/
resolution:
  accept_score: 60
intents:
  - name: language
    phrases: [stack, tech]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("REPOBOT_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.Org)
	assert.Equal(t, 48*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, "http://localhost:9999", cfg.GitHubAPIURL)
	assert.Equal(t, 60, cfg.Resolution.AcceptScore)
	assert.Equal(t, 10, cfg.Resolution.DisambiguationGap, "unset keys keep defaults")
	assert.Equal(t, []IntentConfig{{Name: models.IntentLanguage, Phrases: []string{"stack", "tech"}}}, cfg.Intents)

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("REPOBOT_ORG", "globex")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "globex", cfg.Org)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		home := isolate(t)
		t.Setenv("REPOBOT_CONFIG", filepath.Join(home, "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		home := isolate(t)
		path := filepath.Join(home, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("org: [unterminated"), 0o644))
		t.Setenv("REPOBOT_CONFIG", path)
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("unknown intent", func(t *testing.T) {
		home := isolate(t)
		path := filepath.Join(home, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("intents:\n  - name: weather\n    phrases: [rain]\n"), 0o644))
		t.Setenv("REPOBOT_CONFIG", path)
		_, err := Load()
		assert.ErrorContains(t, err, "weather")
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.MaxRetries = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Resolution.AcceptScore = 101
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Intents[0].Phrases = nil
	assert.Error(t, cfg.Validate())
}
