package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crewlink/crewlink/pkg/identity"
)

// TokenClient talks to a hosted people-enrichment API authenticated with a
// long-lived bearer token.
type TokenClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	token      string
	baseURL    string
	maxResults int
}

// NewTokenClient creates a bearer-token client. baseURL is the provider's
// API root and must be set.
func NewTokenClient(token, baseURL string, maxResults int, httpClient *http.Client, logger *slog.Logger) (*TokenClient, error) {
	if token == "" {
		return nil, identity.ErrNoCredentials
	}
	if baseURL == "" {
		return nil, errors.New("token backend requires a base URL")
	}
	if maxResults <= 0 {
		maxResults = 3
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenClient{
		httpClient: httpClient,
		logger:     logger,
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
	}, nil
}

// tokenPerson is the provider's person payload, shared by search and
// profile responses.
type tokenPerson struct {
	PublicID string `json:"public_id"`
	Name     string `json:"name"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Industry string `json:"industry"`
	Location string `json:"location"`
	Jobs     []struct {
		Title       string `json:"title"`
		Company     string `json:"company"`
		Description string `json:"description"`
	} `json:"positions"`
}

func (p tokenPerson) candidate() Candidate {
	c := Candidate{
		PublicID: p.PublicID,
		Name:     p.Name,
		Headline: p.Headline,
		Summary:  p.Summary,
		Industry: p.Industry,
		Location: p.Location,
	}
	for _, j := range p.Jobs {
		c.Positions = append(c.Positions, Position{
			Title:       j.Title,
			Company:     j.Company,
			Description: j.Description,
		})
	}
	return c
}

// SearchPeople queries the provider's people-search endpoint.
func (t *TokenClient) SearchPeople(ctx context.Context, q SearchQuery) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", q.Keywords)
	params.Set("limit", strconv.Itoa(t.maxResults))
	if q.FirstName != "" {
		params.Set("first_name", q.FirstName)
	}
	if q.LastName != "" {
		params.Set("last_name", q.LastName)
	}
	if q.Title != "" {
		params.Set("title", q.Title)
	}

	req, err := t.newRequest(ctx, "/v1/people/search?"+params.Encode())
	if err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}

	body, err := fetchJSON(ctx, t.httpClient, req, "search", t.logger)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Results []tokenPerson `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}

	var candidates []Candidate
	for _, p := range payload.Results {
		if p.PublicID == "" {
			continue
		}
		candidates = append(candidates, p.candidate())
		if len(candidates) >= t.maxResults {
			break
		}
	}
	return candidates, nil
}

// Profile fetches one person's full record.
func (t *TokenClient) Profile(ctx context.Context, publicID string) (*Candidate, error) {
	req, err := t.newRequest(ctx, "/v1/people/"+url.PathEscape(publicID))
	if err != nil {
		return nil, &identity.RequestError{Op: "profile", Err: err}
	}

	body, err := fetchJSON(ctx, t.httpClient, req, "profile", t.logger)
	if err != nil {
		return nil, err
	}

	var person tokenPerson
	if err := json.Unmarshal(body, &person); err != nil {
		return nil, &identity.RequestError{Op: "profile", Err: err}
	}
	if person.PublicID == "" {
		person.PublicID = publicID
	}
	c := person.candidate()
	return &c, nil
}

func (t *TokenClient) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
