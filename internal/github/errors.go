package github

import (
	"fmt"
	"time"
)

// TransientFetchError is a network failure, rate limit or server error that
// persisted through every retry. Callers may try again later.
type TransientFetchError struct {
	URL         string
	StatusCode  int
	RateLimited bool
	RetryAfter  time.Duration
	Err         error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient fetch error for %s: %v", e.URL, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// FatalFetchError is an HTTP status that retrying will not fix, or a payload
// that cannot be decoded. It aborts a full fetch.
type FatalFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FatalFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fatal fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fatal fetch error for %s: %v", e.URL, e.Err)
}

func (e *FatalFetchError) Unwrap() error { return e.Err }
