// Package tmdb provides a client for The Movie Database API, covering the
// lookups the crew pipeline needs: IMDB ID resolution, credits, details,
// and title search.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/crewlink/crewlink/pkg/httpcache"
)

// DefaultBaseURL is the public TMDB API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// ErrNotFound is returned when TMDB has no results for a lookup.
var ErrNotFound = errors.New("tmdb: no results")

// MediaKind distinguishes the result types of an external-ID lookup.
type MediaKind string

const (
	KindMovie     MediaKind = "movie"
	KindTV        MediaKind = "tv"
	KindTVEpisode MediaKind = "tv_episode"
)

// FindResult describes what an IMDB ID resolved to. For tv_episode the ID is
// the parent show's ID and the season/episode numbers locate the episode.
type FindResult struct {
	Kind          MediaKind
	ID            int64
	SeasonNumber  int
	EpisodeNumber int
	EpisodeName   string
}

// CrewCredit is one crew entry from a credits payload.
type CrewCredit struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits is the crew portion of a credits response. Cast is not used by the
// pipeline and is not decoded.
type Credits struct {
	ID   int64        `json:"id"`
	Crew []CrewCredit `json:"crew"`
}

// Details holds the subset of movie/TV detail fields the service surfaces.
type Details struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
}

// DisplayTitle returns the movie title or TV name, whichever is set.
func (d *Details) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Name
}

// SearchResult is a single title-search match.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
}

// SearchResponse models the paginated search payload.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	fetcher    *httpcache.Fetcher
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*config)

type config struct {
	baseURL    string
	language   string
	httpClient *http.Client
	cache      httpcache.Cacher
	pace       rate.Limit
	logger     *slog.Logger
}

// WithBaseURL overrides the API root.
func WithBaseURL(base string) Option {
	return func(c *config) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithLanguage sets the language query parameter on all requests.
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// WithCache enables response caching.
func WithCache(cache httpcache.Cacher) Option {
	return func(c *config) { c.cache = cache }
}

// WithPace sets the outbound request rate. TMDB allows roughly 50 req/s;
// the default stays well under that.
func WithPace(pace rate.Limit) Option {
	return func(c *config) { c.pace = pace }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// New creates a TMDB client.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}

	cfg := &config{
		baseURL: DefaultBaseURL,
		pace:    rate.Limit(10),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    cfg.baseURL,
		language:   cfg.language,
		httpClient: cfg.httpClient,
		fetcher:    httpcache.NewFetcher(cfg.cache, cfg.pace, cfg.logger),
		logger:     cfg.logger,
	}, nil
}

// FindByIMDB resolves an IMDB ID to a TMDB entity. Movies win over episodes,
// episodes over series, matching how ambiguous IDs should be interpreted for
// credit lookups.
func (c *Client) FindByIMDB(ctx context.Context, imdbID string) (*FindResult, error) {
	body, err := c.get(ctx, "/find/"+url.PathEscape(imdbID), url.Values{"external_source": {"imdb_id"}})
	if err != nil {
		return nil, err
	}

	var payload struct {
		MovieResults []struct {
			ID int64 `json:"id"`
		} `json:"movie_results"`
		TVEpisodeResults []struct {
			ShowID        int64  `json:"show_id"`
			SeasonNumber  int    `json:"season_number"`
			EpisodeNumber int    `json:"episode_number"`
			Name          string `json:"name"`
		} `json:"tv_episode_results"`
		TVResults []struct {
			ID int64 `json:"id"`
		} `json:"tv_results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode find response: %w", err)
	}

	switch {
	case len(payload.MovieResults) > 0:
		return &FindResult{Kind: KindMovie, ID: payload.MovieResults[0].ID}, nil
	case len(payload.TVEpisodeResults) > 0:
		ep := payload.TVEpisodeResults[0]
		return &FindResult{
			Kind:          KindTVEpisode,
			ID:            ep.ShowID,
			SeasonNumber:  ep.SeasonNumber,
			EpisodeNumber: ep.EpisodeNumber,
			EpisodeName:   ep.Name,
		}, nil
	case len(payload.TVResults) > 0:
		return &FindResult{Kind: KindTV, ID: payload.TVResults[0].ID}, nil
	default:
		return nil, fmt.Errorf("%w for IMDB ID %s", ErrNotFound, imdbID)
	}
}

// MovieCredits fetches the crew list for a movie.
func (c *Client) MovieCredits(ctx context.Context, movieID int64) (*Credits, error) {
	return c.credits(ctx, fmt.Sprintf("/movie/%d/credits", movieID))
}

// TVCredits fetches the aggregate crew list for a TV series.
func (c *Client) TVCredits(ctx context.Context, showID int64) (*Credits, error) {
	return c.credits(ctx, fmt.Sprintf("/tv/%d/credits", showID))
}

// EpisodeCredits fetches the crew list for one episode.
func (c *Client) EpisodeCredits(ctx context.Context, showID int64, season, episode int) (*Credits, error) {
	return c.credits(ctx, fmt.Sprintf("/tv/%d/season/%d/episode/%d/credits", showID, season, episode))
}

func (c *Client) credits(ctx context.Context, path string) (*Credits, error) {
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var payload Credits
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode credits: %w", err)
	}
	return &payload, nil
}

// Details fetches movie or TV metadata. Episode lookups use the parent show.
func (c *Client) Details(ctx context.Context, id int64, kind MediaKind) (*Details, error) {
	media := "movie"
	if kind == KindTV || kind == KindTVEpisode {
		media = "tv"
	}
	body, err := c.get(ctx, fmt.Sprintf("/%s/%d", media, id), nil)
	if err != nil {
		return nil, err
	}
	var payload Details
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}
	return &payload, nil
}

// SearchMovie searches TMDB for a movie title.
func (c *Client) SearchMovie(ctx context.Context, query string) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	body, err := c.get(ctx, "/search/movie", url.Values{"query": {query}})
	if err != nil {
		return nil, err
	}
	var payload SearchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.fetcher.Fetch(ctx, c.httpClient, req)
}
