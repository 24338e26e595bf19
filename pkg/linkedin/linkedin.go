// Package linkedin provides directory-search backends for resolving people
// to LinkedIn profiles. Three interchangeable clients exist: a session-cookie
// Voyager client, a bearer-token API client, and an async actor-run client.
// All of them normalize raw responses into the same Candidate shape.
package linkedin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/crewlink/crewlink/pkg/identity"
)

// Backend kinds selectable via configuration.
const (
	KindVoyager = "voyager"
	KindToken   = "token"
	KindActor   = "actor"
)

// Position is one entry of a candidate's work history.
type Position struct {
	Title       string
	Company     string
	Description string
}

// Candidate is a normalized directory search result. Every field is
// optional; scoring reads whatever text is present.
type Candidate struct {
	PublicID string
	Name     string
	Headline string
	Summary  string
	Industry string
	Location string

	Positions []Position
}

// Text aggregates all free-text fields into one lowercase string for
// token matching.
func (c *Candidate) Text() string {
	var b strings.Builder
	for _, s := range []string{c.Headline, c.Summary, c.Industry} {
		if s != "" {
			b.WriteString(s)
			b.WriteByte(' ')
		}
	}
	for _, p := range c.Positions {
		for _, s := range []string{p.Title, p.Company, p.Description} {
			if s != "" {
				b.WriteString(s)
				b.WriteByte(' ')
			}
		}
	}
	return strings.ToLower(strings.TrimSpace(b.String()))
}

// ProfileURL returns the public profile URL for a candidate ID.
func ProfileURL(publicID string) string {
	return "https://www.linkedin.com/in/" + publicID
}

// SearchQuery carries the free-text keyword plus structured hints for a
// people search.
type SearchQuery struct {
	Keywords  string
	FirstName string
	LastName  string
	Title     string
}

// Backend is the contract every directory client satisfies.
type Backend interface {
	// SearchPeople returns zero or more candidates for the query. Zero
	// results is an empty slice, not an error.
	SearchPeople(ctx context.Context, q SearchQuery) ([]Candidate, error)

	// Profile fetches richer text for one candidate. Optional step; callers
	// must cope with it failing.
	Profile(ctx context.Context, publicID string) (*Candidate, error)
}

// Config selects and parameterizes a backend variant.
type Config struct {
	Kind           string
	Cookies        map[string]string
	BrowserCookies bool
	Token          string
	ActorID        string
	BaseURL        string
	MaxResults     int
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// New creates the configured backend variant.
func New(ctx context.Context, cfg Config) (Backend, error) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	switch cfg.Kind {
	case KindVoyager, "":
		var opts []VoyagerOption
		if len(cfg.Cookies) > 0 {
			opts = append(opts, WithCookies(cfg.Cookies))
		}
		if cfg.BrowserCookies {
			opts = append(opts, WithBrowserCookies())
		}
		if cfg.BaseURL != "" {
			opts = append(opts, WithVoyagerBaseURL(cfg.BaseURL))
		}
		opts = append(opts, WithVoyagerLogger(cfg.Logger), WithVoyagerMaxResults(cfg.MaxResults))
		if cfg.HTTPClient != nil {
			opts = append(opts, WithVoyagerHTTPClient(cfg.HTTPClient))
		}
		return NewVoyager(ctx, opts...)
	case KindToken:
		return NewTokenClient(cfg.Token, cfg.BaseURL, cfg.MaxResults, cfg.HTTPClient, cfg.Logger)
	case KindActor:
		return NewActorClient(cfg.Token, cfg.ActorID, cfg.BaseURL, cfg.MaxResults, cfg.HTTPClient, cfg.Logger)
	default:
		return nil, fmt.Errorf("unknown directory backend %q", cfg.Kind)
	}
}

// fetchJSON executes a request with a single retry on transient failures and
// maps error statuses onto the identity error taxonomy.
func fetchJSON(ctx context.Context, client *http.Client, req *http.Request, op string, logger *slog.Logger) ([]byte, error) {
	body, err := retry.DoWithData(
		func() ([]byte, error) {
			// Rewind the body so a retried POST is not sent empty.
			if req.GetBody != nil {
				b, berr := req.GetBody()
				if berr != nil {
					return nil, berr
				}
				req.Body = b
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			switch resp.StatusCode {
			case http.StatusOK, http.StatusCreated:
				return io.ReadAll(resp.Body)
			case http.StatusTooManyRequests:
				return nil, identity.ErrRateLimited
			case http.StatusNotFound:
				return nil, identity.ErrNotFound
			default:
				return nil, &identity.RequestError{Op: op, StatusCode: resp.StatusCode}
			}
		},
		retry.Context(ctx),
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.MaxJitter(100*time.Millisecond),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying directory request", "op", op, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		var reqErr *identity.RequestError
		if errors.As(err, &reqErr) || errors.Is(err, identity.ErrRateLimited) || errors.Is(err, identity.ErrNotFound) {
			return nil, err
		}
		return nil, &identity.RequestError{Op: op, Err: err}
	}
	return body, nil
}

func isTransient(err error) bool {
	if errors.Is(err, identity.ErrNotFound) {
		return false
	}
	var reqErr *identity.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode != 0 {
		return reqErr.StatusCode >= http.StatusInternalServerError
	}
	// Rate limits and network errors get the one retry.
	return true
}
