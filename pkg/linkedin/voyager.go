package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crewlink/crewlink/pkg/auth"
	"github.com/crewlink/crewlink/pkg/httpcache"
	"github.com/crewlink/crewlink/pkg/identity"
)

const defaultVoyagerBase = "https://www.linkedin.com"

// Voyager is the session-cookie authenticated client against LinkedIn's
// internal JSON API.
type Voyager struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	csrfToken  string
	maxResults int
}

// VoyagerOption configures a Voyager client.
type VoyagerOption func(*voyagerConfig)

type voyagerConfig struct {
	cookies        map[string]string
	browserCookies bool
	baseURL        string
	maxResults     int
	httpClient     *http.Client
	logger         *slog.Logger
}

// WithCookies sets explicit cookie values.
func WithCookies(cookies map[string]string) VoyagerOption {
	return func(c *voyagerConfig) { c.cookies = cookies }
}

// WithBrowserCookies enables reading cookies from browser stores.
func WithBrowserCookies() VoyagerOption {
	return func(c *voyagerConfig) { c.browserCookies = true }
}

// WithVoyagerBaseURL overrides the API base URL.
func WithVoyagerBaseURL(base string) VoyagerOption {
	return func(c *voyagerConfig) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithVoyagerMaxResults bounds the number of search results.
func WithVoyagerMaxResults(n int) VoyagerOption {
	return func(c *voyagerConfig) { c.maxResults = n }
}

// WithVoyagerHTTPClient overrides the HTTP client (cookie jar is still installed).
func WithVoyagerHTTPClient(client *http.Client) VoyagerOption {
	return func(c *voyagerConfig) { c.httpClient = client }
}

// WithVoyagerLogger sets a custom logger.
func WithVoyagerLogger(logger *slog.Logger) VoyagerOption {
	return func(c *voyagerConfig) { c.logger = logger }
}

// NewVoyager creates a session-cookie client.
// Cookie sources are checked in order: explicit > environment > browser.
func NewVoyager(ctx context.Context, opts ...VoyagerOption) (*Voyager, error) {
	cfg := &voyagerConfig{logger: slog.Default(), baseURL: defaultVoyagerBase, maxResults: 3}
	for _, opt := range opts {
		opt(cfg)
	}

	var sources []auth.Source
	if len(cfg.cookies) > 0 {
		sources = append(sources, auth.NewStaticSource(cfg.cookies))
	}
	sources = append(sources, auth.EnvSource{})
	if cfg.browserCookies {
		sources = append(sources, auth.NewBrowserSource(cfg.logger))
	}

	cookies, err := auth.Chain(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("cookie retrieval failed: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: set %v or supply cookies in the config",
			identity.ErrNoCredentials, auth.EnvVars())
	}

	jar, err := auth.NewCookieJar(cookies)
	if err != nil {
		return nil, fmt.Errorf("cookie jar creation failed: %w", err)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	httpClient.Jar = jar

	cfg.logger.InfoContext(ctx, "voyager client created", "cookie_count", len(cookies))

	return &Voyager{
		httpClient: httpClient,
		logger:     cfg.logger,
		baseURL:    cfg.baseURL,
		csrfToken:  strings.Trim(cookies["JSESSIONID"], `"`),
		maxResults: cfg.maxResults,
	}, nil
}

// SearchPeople queries the blended-search endpoint.
func (v *Voyager) SearchPeople(ctx context.Context, q SearchQuery) ([]Candidate, error) {
	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("count", strconv.Itoa(v.maxResults))
	params.Set("origin", "GLOBAL_SEARCH_HEADER")
	params.Set("filters", searchFilters(q))

	endpoint := v.baseURL + "/voyager/api/search/blended?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}
	v.setHeaders(req)

	v.logger.DebugContext(ctx, "voyager people search", "keywords", q.Keywords)

	body, err := fetchJSON(ctx, v.httpClient, req, "search", v.logger)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Included []voyagerEntity `json:"included"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}

	var candidates []Candidate
	for _, e := range payload.Included {
		if e.PublicIdentifier == "" {
			continue
		}
		candidates = append(candidates, e.candidate())
		if len(candidates) >= v.maxResults {
			break
		}
	}
	return candidates, nil
}

// Profile fetches the full profile view for one candidate.
func (v *Voyager) Profile(ctx context.Context, publicID string) (*Candidate, error) {
	endpoint := v.baseURL + "/voyager/api/identity/profiles/" + url.PathEscape(publicID) + "/profileView"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &identity.RequestError{Op: "profile", Err: err}
	}
	v.setHeaders(req)

	body, err := fetchJSON(ctx, v.httpClient, req, "profile", v.logger)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Profile struct {
			FirstName       string `json:"firstName"`
			LastName        string `json:"lastName"`
			Headline        string `json:"headline"`
			Summary         string `json:"summary"`
			IndustryName    string `json:"industryName"`
			GeoLocationName string `json:"geoLocationName"`
		} `json:"profile"`
		PositionView struct {
			Elements []struct {
				Title       string `json:"title"`
				CompanyName string `json:"companyName"`
				Description string `json:"description"`
			} `json:"elements"`
		} `json:"positionView"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &identity.RequestError{Op: "profile", Err: err}
	}

	c := &Candidate{
		PublicID: publicID,
		Name:     joinName(payload.Profile.FirstName, payload.Profile.LastName),
		Headline: payload.Profile.Headline,
		Summary:  payload.Profile.Summary,
		Industry: payload.Profile.IndustryName,
		Location: payload.Profile.GeoLocationName,
	}
	for _, p := range payload.PositionView.Elements {
		c.Positions = append(c.Positions, Position{
			Title:       p.Title,
			Company:     p.CompanyName,
			Description: p.Description,
		})
	}
	return c, nil
}

func (v *Voyager) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", httpcache.UserAgent)
	req.Header.Set("Accept", "application/vnd.linkedin.normalized+json+2.1")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("X-RestLi-Protocol-Version", "2.0.0")
	if v.csrfToken != "" {
		req.Header.Set("Csrf-Token", v.csrfToken)
	}
}

// searchFilters renders the structured hint list the blended endpoint expects.
func searchFilters(q SearchQuery) string {
	parts := []string{"resultType->PEOPLE"}
	if q.FirstName != "" {
		parts = append(parts, "firstName->"+q.FirstName)
	}
	if q.LastName != "" {
		parts = append(parts, "lastName->"+q.LastName)
	}
	if q.Title != "" {
		parts = append(parts, "title->"+q.Title)
	}
	return "List(" + strings.Join(parts, ",") + ")"
}

// voyagerEntity is one entry of the "included" sidecar array. Only the
// fields the engine reads are declared; everything else is ignored.
type voyagerEntity struct {
	PublicIdentifier string `json:"publicIdentifier"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Occupation       string `json:"occupation"`
	Headline         string `json:"headline"`
}

func (e voyagerEntity) candidate() Candidate {
	headline := e.Occupation
	if headline == "" {
		headline = e.Headline
	}
	return Candidate{
		PublicID: e.PublicIdentifier,
		Name:     joinName(e.FirstName, e.LastName),
		Headline: headline,
	}
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
