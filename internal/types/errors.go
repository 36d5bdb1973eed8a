package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrSoftBlock        = errors.New("anti-automation challenge page returned")
	ErrRetriesExhausted = errors.New("max fetch attempts exceeded")
	ErrNoPrompts        = errors.New("no prompts available")
	ErrMissingAPIKey    = errors.New("missing required API key")
)

// FetchError wraps errors from the scraping backend.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	SoftBlock  bool // challenge page detected in otherwise well-formed response
	Retryable  bool // another attempt may succeed
}

func (e *FetchError) Error() string {
	if e.SoftBlock {
		return fmt.Sprintf("fetch error for %s: soft block: %v", e.URL, e.Err)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
