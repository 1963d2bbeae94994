// Package cache persists the repository set as a single JSON file.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kevinmichaelchen/repobot/internal/models"
)

// naiveLayout is the timezone-less ISO-8601 form found in older cache files.
const naiveLayout = "2006-01-02T15:04:05.999999"

// Snapshot is the content of one cache file.
type Snapshot struct {
	Repos     models.RepoSet
	FetchedAt time.Time
}

// Stale reports whether the snapshot is older than maxAge. A zero maxAge
// never goes stale.
func (s Snapshot) Stale(maxAge time.Duration, now time.Time) bool {
	return maxAge > 0 && now.Sub(s.FetchedAt) > maxAge
}

type fileFormat struct {
	Repos     map[string]models.Repo `json:"repos"`
	Timestamp string                 `json:"timestamp"`
}

// Store reads and writes the cache file. It assumes a single writer.
type Store struct {
	path   string
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger, now: time.Now}
}

func (s *Store) Path() string { return s.path }

// Load returns the cached snapshot. Any problem reading or decoding the file
// is logged and reported as a miss.
func (s *Store) Load() (Snapshot, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("no cache file", zap.String("path", s.path))
		} else {
			s.logger.Warn("reading cache", zap.String("path", s.path), zap.Error(err))
		}
		return Snapshot{}, false
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		s.logger.Warn("malformed cache", zap.String("path", s.path), zap.Error(err))
		return Snapshot{}, false
	}
	if f.Repos == nil {
		s.logger.Warn("malformed cache", zap.String("path", s.path), zap.String("reason", "missing repos"))
		return Snapshot{}, false
	}
	ts, err := parseTimestamp(f.Timestamp)
	if err != nil {
		s.logger.Warn("malformed cache", zap.String("path", s.path), zap.Error(err))
		return Snapshot{}, false
	}

	repos := make(models.RepoSet, len(f.Repos))
	for name, r := range f.Repos {
		// The map key is authoritative.
		r.Name = name
		repos[name] = r
	}
	return Snapshot{Repos: repos, FetchedAt: ts}, true
}

// Save replaces the cache file with repos stamped with the current time and
// returns that time. The file is written next to the target and renamed
// over it, so readers never observe a partial file.
func (s *Store) Save(repos models.RepoSet) (time.Time, error) {
	now := s.now()
	data, err := json.MarshalIndent(fileFormat{
		Repos:     repos,
		Timestamp: now.Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return time.Time{}, fmt.Errorf("encoding cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return time.Time{}, fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return time.Time{}, fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return time.Time{}, fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return time.Time{}, fmt.Errorf("writing cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return time.Time{}, fmt.Errorf("replacing cache: %w", err)
	}

	s.logger.Info("cache written", zap.String("path", s.path), zap.Int("repos", len(repos)))
	return now, nil
}

func parseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(naiveLayout, v, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", v, err)
	}
	return t, nil
}
