// Package resolve matches filmography crew members to professional-directory
// profiles. One Resolver owns the result cache, the global request throttle,
// and the concurrency permit shared by every lookup in the process.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/crewlink/crewlink/pkg/crew"
	"github.com/crewlink/crewlink/pkg/identity"
	"github.com/crewlink/crewlink/pkg/linkedin"
	"github.com/crewlink/crewlink/pkg/textutil"
)

// Config holds the static settings for a Resolver. Supplied once at process
// start; there is no runtime reconfiguration.
type Config struct {
	Backend     linkedin.Config
	Interval    time.Duration // minimum spacing between directory call completions
	Concurrency int64         // simultaneous in-flight lookups
	Logger      *slog.Logger
}

// Resolver is the public entry point for identity resolution.
type Resolver struct {
	logger   *slog.Logger
	throttle *Throttle
	sem      *semaphore.Weighted
	cache    *resultCache
	backend  func() (linkedin.Backend, error)
}

// New creates a Resolver. The directory backend is initialized lazily on the
// first lookup; if initialization fails (no credentials, bad config), the
// failure is logged once and every lookup resolves to no-match without
// touching the network.
func New(cfg Config) *Resolver {
	r := newResolver(cfg)
	r.backend = sync.OnceValues(func() (linkedin.Backend, error) {
		b, err := linkedin.New(context.Background(), cfg.Backend)
		if err != nil {
			r.logger.Warn("directory backend disabled, lookups will resolve to no-match", "error", err)
			return nil, err
		}
		return b, nil
	})
	return r
}

// NewWithBackend creates a Resolver around an already-constructed backend.
func NewWithBackend(b linkedin.Backend, cfg Config) *Resolver {
	r := newResolver(cfg)
	r.backend = func() (linkedin.Backend, error) { return b, nil }
	return r
}

func newResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = 1500 * time.Millisecond
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		logger:   logger,
		throttle: NewThrottle(interval),
		sem:      semaphore.NewWeighted(concurrency),
		cache:    newResultCache(),
	}
}

// CacheSize reports how many identity keys have been resolved so far.
func (r *Resolver) CacheSize() int {
	return r.cache.size()
}

// Resolve looks up one person and returns the best-guess identity, or nil
// for no match. It never returns an error: backend failures resolve to
// no-match and are cached, so known-bad keys are not re-queried. Concurrent
// calls for the same key share a single backend lookup.
func (r *Resolver) Resolve(ctx context.Context, name, job, personID string) *identity.Resolved {
	key := identity.Key(name, job, personID)
	if v, ok := r.cache.get(key); ok {
		return v
	}

	backend, err := r.backend()
	if err != nil {
		r.cache.put(key, nil)
		return nil
	}

	return r.cache.resolve(key, func() (*identity.Resolved, error) {
		return r.lookup(ctx, backend, name, job)
	})
}

// lookup runs the uncached path: permit, throttle, search, score, optional
// detail fetch. The returned error is non-nil only when the lookup was
// abandoned (context cancelled before the search completed); those results
// must not be cached.
func (r *Resolver) lookup(ctx context.Context, backend linkedin.Backend, name, job string) (*identity.Resolved, error) {
	first, last := textutil.SplitName(name)
	if first == "" && last == "" {
		return nil, nil
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer r.sem.Release(1)

	query := linkedin.SearchQuery{
		Keywords:  strings.TrimSpace(name + " " + job),
		FirstName: first,
		LastName:  last,
		Title:     job,
	}

	var candidates []linkedin.Candidate
	err := r.throttle.Do(ctx, func() error {
		var serr error
		candidates, serr = backend.SearchPeople(ctx, query)
		return serr
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		r.logger.Warn("directory search failed", "name", name, "error", err)
		return nil, nil
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	jobTokens := textutil.TokenizeJob(job)
	bestIdx, bestScore := selectBest(candidates, jobTokens)
	best := candidates[bestIdx]

	// Fetch the full profile for the winner only. A richer text body can
	// raise the winner's own score; a failure here keeps the search-level
	// result rather than discarding the pick.
	profileName := best.Name
	headline := best.Headline
	if best.PublicID != "" {
		var prof *linkedin.Candidate
		derr := r.throttle.Do(ctx, func() error {
			var perr error
			prof, perr = backend.Profile(ctx, best.PublicID)
			return perr
		})
		switch {
		case derr != nil:
			r.logger.Debug("profile fetch failed, keeping search-level result",
				"public_id", best.PublicID, "error", derr)
		case prof != nil:
			if s := Score(*prof, jobTokens); s > bestScore {
				bestScore = s
			}
			if prof.Name != "" {
				profileName = prof.Name
			}
			if prof.Headline != "" {
				headline = prof.Headline
			}
		}
	}

	res := &identity.Resolved{
		ProfileName: profileName,
		Headline:    headline,
	}
	if best.PublicID != "" {
		res.URL = linkedin.ProfileURL(best.PublicID)
	}
	if bestScore > 0 {
		confidence := math.Round(bestScore*100) / 100
		res.Confidence = &confidence
	}
	return res, nil
}

// Enrich resolves every record concurrently and writes the identity fields
// in place. It never fails: individual lookup errors, panics included, are
// logged and leave that record's fields unset. A context deadline abandons
// pending lookups; completed ones keep their cache entries.
func (r *Resolver) Enrich(ctx context.Context, records []*crew.Record) {
	if len(records) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, rec := range records {
		wg.Add(1)
		go func(rec *crew.Record) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					r.logger.Error("lookup panicked", "name", rec.Name, "panic", p)
				}
			}()

			res := r.Resolve(ctx, rec.Name, rec.Job, rec.TMDBPersonID)
			if res == nil {
				return
			}
			if res.URL != "" {
				rec.LinkedInURL = ptr(res.URL)
			}
			if res.ProfileName != "" {
				rec.LinkedInProfileName = ptr(res.ProfileName)
			}
			if res.Headline != "" {
				rec.LinkedInHeadline = ptr(res.Headline)
			}
			rec.LinkedInConfidence = res.Confidence
		}(rec)
	}
	wg.Wait()
}

func ptr[T any](v T) *T { return &v }
