package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crewlink/crewlink/pkg/identity"
)

// Actor run states reported by the scraping platform.
const (
	runSucceeded = "SUCCEEDED"
	runFailed    = "FAILED"
	runAborted   = "ABORTED"
	runTimedOut  = "TIMED-OUT"
)

// ActorClient submits people-search jobs to a hosted scraping actor and
// polls for the result dataset. Searches are slow but need no session
// cookies of our own.
type ActorClient struct {
	httpClient   *http.Client
	logger       *slog.Logger
	token        string
	actorID      string
	baseURL      string
	maxResults   int
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewActorClient creates an actor-run client. baseURL is the platform's API
// root and must be set.
func NewActorClient(token, actorID, baseURL string, maxResults int, httpClient *http.Client, logger *slog.Logger) (*ActorClient, error) {
	if token == "" {
		return nil, identity.ErrNoCredentials
	}
	if actorID == "" {
		return nil, errors.New("actor backend requires an actor ID")
	}
	if baseURL == "" {
		return nil, errors.New("actor backend requires a base URL")
	}
	if maxResults <= 0 {
		maxResults = 3
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActorClient{
		httpClient:   httpClient,
		logger:       logger,
		token:        token,
		actorID:      actorID,
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxResults:   maxResults,
		pollInterval: 2 * time.Second,
		pollTimeout:  90 * time.Second,
	}, nil
}

// actorRun is the platform's run envelope.
type actorRun struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// actorItem is one dataset row produced by the actor.
type actorItem struct {
	PublicID   string `json:"publicIdentifier"`
	FullName   string `json:"fullName"`
	Headline   string `json:"headline"`
	About      string `json:"about"`
	Industry   string `json:"industry"`
	Location   string `json:"location"`
	Experience []struct {
		Title       string `json:"title"`
		Company     string `json:"company"`
		Description string `json:"description"`
	} `json:"experience"`
}

func (it actorItem) candidate() Candidate {
	c := Candidate{
		PublicID: it.PublicID,
		Name:     it.FullName,
		Headline: it.Headline,
		Summary:  it.About,
		Industry: it.Industry,
		Location: it.Location,
	}
	for _, e := range it.Experience {
		c.Positions = append(c.Positions, Position{
			Title:       e.Title,
			Company:     e.Company,
			Description: e.Description,
		})
	}
	return c
}

// SearchPeople submits a search job and waits for its dataset.
func (a *ActorClient) SearchPeople(ctx context.Context, q SearchQuery) ([]Candidate, error) {
	input := map[string]any{
		"keywords":   q.Keywords,
		"firstName":  q.FirstName,
		"lastName":   q.LastName,
		"title":      q.Title,
		"maxResults": a.maxResults,
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs?token=%s", a.baseURL, url.PathEscape(a.actorID), url.QueryEscape(a.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := fetchJSON(ctx, a.httpClient, req, "search", a.logger)
	if err != nil {
		return nil, err
	}

	var started struct {
		Data actorRun `json:"data"`
	}
	if err := json.Unmarshal(body, &started); err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}
	if started.Data.ID == "" {
		return nil, &identity.RequestError{Op: "search", Err: errors.New("run submission returned no run ID")}
	}

	a.logger.DebugContext(ctx, "actor run submitted", "run", started.Data.ID)

	run, err := a.awaitRun(ctx, started.Data.ID)
	if err != nil {
		return nil, err
	}
	return a.datasetItems(ctx, run.DefaultDatasetID)
}

// Profile submits a single-profile job keyed by public ID.
func (a *ActorClient) Profile(ctx context.Context, publicID string) (*Candidate, error) {
	candidates, err := a.SearchPeople(ctx, SearchQuery{Keywords: ProfileURL(publicID)})
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if candidates[i].PublicID == publicID {
			return &candidates[i], nil
		}
	}
	if len(candidates) > 0 {
		return &candidates[0], nil
	}
	return nil, identity.ErrNotFound
}

// awaitRun polls the run until it reaches a terminal state.
func (a *ActorClient) awaitRun(ctx context.Context, runID string) (*actorRun, error) {
	deadline := time.NewTimer(a.pollTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(a.pollInterval)
	defer tick.Stop()

	for {
		run, err := a.runStatus(ctx, runID)
		if err != nil {
			return nil, err
		}
		switch run.Status {
		case runSucceeded:
			return run, nil
		case runFailed, runAborted, runTimedOut:
			return nil, &identity.RequestError{Op: "search", Err: fmt.Errorf("actor run %s ended %s", runID, run.Status)}
		}

		select {
		case <-ctx.Done():
			return nil, &identity.RequestError{Op: "search", Err: ctx.Err()}
		case <-deadline.C:
			return nil, &identity.RequestError{Op: "search", Err: fmt.Errorf("actor run %s did not finish within %s", runID, a.pollTimeout)}
		case <-tick.C:
		}
	}
}

func (a *ActorClient) runStatus(ctx context.Context, runID string) (*actorRun, error) {
	endpoint := fmt.Sprintf("%s/v2/actor-runs/%s?token=%s", a.baseURL, url.PathEscape(runID), url.QueryEscape(a.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}

	body, err := fetchJSON(ctx, a.httpClient, req, "search", a.logger)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data actorRun `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}
	return &payload.Data, nil
}

func (a *ActorClient) datasetItems(ctx context.Context, datasetID string) ([]Candidate, error) {
	if datasetID == "" {
		return nil, nil
	}
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?token=%s", a.baseURL, url.PathEscape(datasetID), url.QueryEscape(a.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}

	body, err := fetchJSON(ctx, a.httpClient, req, "search", a.logger)
	if err != nil {
		return nil, err
	}

	var items []actorItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &identity.RequestError{Op: "search", Err: err}
	}

	var candidates []Candidate
	for _, it := range items {
		if it.PublicID == "" {
			continue
		}
		candidates = append(candidates, it.candidate())
		if len(candidates) >= a.maxResults {
			break
		}
	}
	return candidates, nil
}
