package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevinmichaelchen/repobot/internal/models"
)

const (
	defaultBaseURL = "https://api.github.com"
	perPage        = 100
)

// Client is a thin wrapper around the GitHub REST API. Every call is
// retried a bounded number of times and pages are followed sequentially.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	cooldown   time.Duration
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	MaxRetries        int
	RateLimitCooldown time.Duration
	Logger            *zap.Logger
}

func NewClient(token string, opts Options) *Client {
	c := &Client{
		token:      token,
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		cooldown:   opts.RateLimitCooldown,
		logger:     opts.Logger,
		sleep:      sleepContext,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.maxRetries < 1 {
		c.maxRetries = 3
	}
	if c.cooldown <= 0 {
		c.cooldown = time.Minute
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// RawRepo is one entry of the organization repository listing.
type RawRepo struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	HTMLURL         string  `json:"html_url"`
	ContentsURL     string  `json:"contents_url"`
	LanguagesURL    string  `json:"languages_url"`
	CommitsURL      string  `json:"commits_url"`
	ContributorsURL string  `json:"contributors_url"`
}

// ListRepos returns every repository of org, following pagination.
func (c *Client) ListRepos(ctx context.Context, org string) ([]RawRepo, error) {
	u := fmt.Sprintf("%s/orgs/%s/repos", c.baseURL, url.PathEscape(org))
	return getAll[RawRepo](ctx, c, withPerPage(u, perPage), 0, func(page, total int) {
		c.logger.Info("fetched repository page", zap.Int("page", page), zap.Int("repos", total))
	})
}

type contentEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// RootFiles lists the names of the entries in a repository's root directory.
func (c *Client) RootFiles(ctx context.Context, repo RawRepo) ([]string, error) {
	resp, err := c.get(ctx, expandTemplate(repo.ContentsURL))
	if err != nil {
		return nil, err
	}
	var entries []contentEntry
	if err := json.Unmarshal(resp.body, &entries); err != nil {
		return nil, &FatalFetchError{URL: repo.ContentsURL, Err: fmt.Errorf("parsing contents: %w", err)}
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

var readmeNames = map[string]bool{
	"readme.md":   true,
	"readme.adoc": true,
	"readme.rst":  true,
	"readme.txt":  true,
}

// FindReadme returns the exact name of the first recognized README file.
func FindReadme(files []string) string {
	for _, f := range files {
		if readmeNames[strings.ToLower(f)] {
			return f
		}
	}
	return ""
}

type fileContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// FileContent fetches and decodes one file from the repository root.
func (c *Client) FileContent(ctx context.Context, repo RawRepo, path string) (string, error) {
	u := expandTemplate(repo.ContentsURL) + url.PathEscape(path)
	resp, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}
	var fc fileContent
	if err := json.Unmarshal(resp.body, &fc); err != nil {
		return "", &FatalFetchError{URL: u, Err: fmt.Errorf("parsing file content: %w", err)}
	}
	if fc.Encoding != "base64" {
		return fc.Content, nil
	}
	data, err := base64.StdEncoding.DecodeString(fc.Content)
	if err != nil {
		return "", &FatalFetchError{URL: u, Err: fmt.Errorf("decoding %s: %w", path, err)}
	}
	return string(data), nil
}

// Readme detects and fetches the repository README. An empty filename with
// a nil error means the repository has none.
func (c *Client) Readme(ctx context.Context, repo RawRepo) (filename, content string, err error) {
	files, err := c.RootFiles(ctx, repo)
	if err != nil {
		return "", "", fmt.Errorf("listing root of %s: %w", repo.Name, err)
	}
	filename = FindReadme(files)
	if filename == "" {
		return "", "", nil
	}
	content, err = c.FileContent(ctx, repo, filename)
	if err != nil {
		return "", "", fmt.Errorf("fetching %s of %s: %w", filename, repo.Name, err)
	}
	return filename, content, nil
}

// Languages returns the repository languages in the order the API reports
// them (largest first).
func (c *Client) Languages(ctx context.Context, repo RawRepo) ([]string, error) {
	resp, err := c.get(ctx, repo.LanguagesURL)
	if err != nil {
		return nil, err
	}
	langs, err := orderedKeys(resp.body)
	if err != nil {
		return nil, &FatalFetchError{URL: repo.LanguagesURL, Err: fmt.Errorf("parsing languages: %w", err)}
	}
	return langs, nil
}

type commitNode struct {
	Commit struct {
		Author struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
		Message string `json:"message"`
	} `json:"commit"`
}

// Commits returns up to limit of the most recent commits, newest first.
// On a mid-pagination failure the commits gathered so far are returned
// together with the error.
func (c *Client) Commits(ctx context.Context, repo RawRepo, limit int) ([]models.Commit, error) {
	size := perPage
	if limit > 0 && limit < size {
		size = limit
	}
	nodes, err := getAll[commitNode](ctx, c, withPerPage(expandTemplate(repo.CommitsURL), size), limit, nil)
	commits := make([]models.Commit, 0, len(nodes))
	for _, n := range nodes {
		commits = append(commits, models.Commit{
			Author:  n.Commit.Author.Name,
			Date:    n.Commit.Author.Date,
			Message: n.Commit.Message,
		})
	}
	return commits, err
}

type contributorNode struct {
	Login string `json:"login"`
}

// Contributors returns contributor logins, following pagination. Partial
// results are returned alongside an error.
func (c *Client) Contributors(ctx context.Context, repo RawRepo) ([]string, error) {
	nodes, err := getAll[contributorNode](ctx, c, withPerPage(repo.ContributorsURL, perPage), 0, nil)
	logins := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Login != "" {
			logins = append(logins, n.Login)
		}
	}
	return logins, err
}

// --- internal ---

type response struct {
	body   []byte
	header http.Header
}

// getAll decodes every page of a JSON array resource. limit <= 0 means no
// limit. onPage, when set, is called after each page.
func getAll[T any](ctx context.Context, c *Client, u string, limit int, onPage func(page, total int)) ([]T, error) {
	var all []T
	for page := 1; u != ""; page++ {
		resp, err := c.get(ctx, u)
		if err != nil {
			return all, err
		}
		if len(bytes.TrimSpace(resp.body)) == 0 {
			break
		}
		var items []T
		if err := json.Unmarshal(resp.body, &items); err != nil {
			return all, &FatalFetchError{URL: u, Err: fmt.Errorf("parsing page %d: %w", page, err)}
		}
		all = append(all, items...)
		if onPage != nil {
			onPage(page, len(all))
		}
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		u = nextLink(resp.header.Get("Link"))
	}
	return all, nil
}

// get performs a GET with bounded retries. Rate-limit responses wait out a
// cooldown before the next attempt.
func (c *Client) get(ctx context.Context, u string) (*response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.do(ctx, u)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		lastErr = err
		c.logger.Warn("request failed",
			zap.String("url", u),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxRetries),
			zap.Error(err))

		var te *TransientFetchError
		if errors.As(err, &te) && te.RateLimited && attempt < c.maxRetries {
			wait := te.RetryAfter
			if wait <= 0 {
				wait = c.cooldown
			}
			c.logger.Info("rate limited, cooling down", zap.Duration("wait", wait))
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, u string) (*response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FatalFetchError{URL: u, Err: fmt.Errorf("creating request: %w", err)}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientFetchError{URL: u, Err: fmt.Errorf("executing request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientFetchError{URL: u, Err: fmt.Errorf("reading response: %w", err)}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return &response{body: body, header: resp.Header}, nil
	case http.StatusNoContent:
		// Contributors of an empty repository.
		return &response{header: resp.Header}, nil
	}
	return nil, statusError(u, resp, body)
}

func statusError(u string, resp *http.Response, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	err := fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, msg)

	rateLimited := resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0")
	switch {
	case rateLimited:
		return &TransientFetchError{
			URL:         u,
			StatusCode:  resp.StatusCode,
			RateLimited: true,
			RetryAfter:  retryAfter(resp.Header),
			Err:         err,
		}
	case resp.StatusCode >= 500:
		return &TransientFetchError{URL: u, StatusCode: resp.StatusCode, Err: err}
	default:
		return &FatalFetchError{URL: u, StatusCode: resp.StatusCode, Err: err}
	}
}

func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func withPerPage(u string, n int) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	q := parsed.Query()
	q.Set("per_page", strconv.Itoa(n))
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// orderedKeys returns the keys of a JSON object in document order.
func orderedKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	keys := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
