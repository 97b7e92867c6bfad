package scraper

import (
	"errors"
	"fmt"
	"time"
)

// RenderTimeoutError means hydration never produced enough listing cards.
type RenderTimeoutError struct {
	URL     string
	Found   int
	Want    int
	Timeout time.Duration
}

func (e *RenderTimeoutError) Error() string {
	return fmt.Sprintf("render timeout: %s showed %d/%d cards after %s", e.URL, e.Found, e.Want, e.Timeout)
}

// NavigationError means the browser session could not reach the target at all.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// ExtractionError is a per-record failure to resolve listing-level fields.
// When Fatal is set no record at all could be extracted.
type ExtractionError struct {
	Index  int
	Reason string
	Fatal  bool
}

func (e *ExtractionError) Error() string {
	if e.Fatal {
		return "extraction failed: " + e.Reason
	}
	return fmt.Sprintf("listing %d dropped: %s", e.Index, e.Reason)
}

// DetailFetchError is a per-record failure on the detail page; the record is kept.
type DetailFetchError struct {
	URL string
	Err error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("detail fetch %s: %v", e.URL, e.Err)
}

func (e *DetailFetchError) Unwrap() error { return e.Err }

// IsFallbackEligible reports whether the fixture source may replace the live batch.
func IsFallbackEligible(err error) bool {
	var rt *RenderTimeoutError
	if errors.As(err, &rt) {
		return true
	}
	var nav *NavigationError
	if errors.As(err, &nav) {
		return true
	}
	var ex *ExtractionError
	return errors.As(err, &ex) && ex.Fatal
}
