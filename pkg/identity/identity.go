// Package identity defines the common types for directory identity resolution.
package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by directory backends.
var (
	ErrNoCredentials = errors.New("no directory credentials configured")
	ErrRateLimited   = errors.New("rate limited by directory backend")
	ErrNotFound      = errors.New("profile not found")
)

// RequestError wraps a transport or protocol failure from a directory backend.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("directory %s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("directory %s: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Resolved is the best-guess directory match for one crew member.
// Confidence is nil when a candidate was selected without any job-token
// overlap; callers should treat that as low trust, not as a failure.
type Resolved struct {
	URL         string
	ProfileName string
	Headline    string
	Confidence  *float64
}

// Key builds the cache key for one lookup. It is a total function of the
// inputs: two distinct catalog person IDs never collide even when the
// name/job pair is identical.
func Key(name, job, personID string) string {
	return strings.Join([]string{
		personID,
		strings.ToLower(strings.TrimSpace(name)),
		strings.ToLower(strings.TrimSpace(job)),
	}, "|")
}
