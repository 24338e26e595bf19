package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/crewlink/crewlink/pkg/crew"
	"github.com/crewlink/crewlink/pkg/identity"
	"github.com/crewlink/crewlink/pkg/tmdb"
)

type stubCatalog struct {
	found   *tmdb.FindResult
	findErr error
	credits *tmdb.Credits
	details *tmdb.Details
	search  *tmdb.SearchResponse
}

func (s *stubCatalog) FindByIMDB(context.Context, string) (*tmdb.FindResult, error) {
	return s.found, s.findErr
}

func (s *stubCatalog) MovieCredits(context.Context, int64) (*tmdb.Credits, error) {
	return s.credits, nil
}

func (s *stubCatalog) TVCredits(context.Context, int64) (*tmdb.Credits, error) {
	return s.credits, nil
}

func (s *stubCatalog) EpisodeCredits(context.Context, int64, int, int) (*tmdb.Credits, error) {
	return s.credits, nil
}

func (s *stubCatalog) Details(context.Context, int64, tmdb.MediaKind) (*tmdb.Details, error) {
	return s.details, nil
}

func (s *stubCatalog) SearchMovie(context.Context, string) (*tmdb.SearchResponse, error) {
	return s.search, nil
}

type stubResolver struct {
	result *identity.Resolved
}

func (s *stubResolver) Resolve(context.Context, string, string, string) *identity.Resolved {
	return s.result
}

func (s *stubResolver) Enrich(_ context.Context, records []*crew.Record) {
	for _, rec := range records {
		if s.result == nil {
			continue
		}
		url := s.result.URL
		rec.LinkedInURL = &url
		rec.LinkedInConfidence = s.result.Confidence
	}
}

func matrixCatalog() *stubCatalog {
	return &stubCatalog{
		found:   &tmdb.FindResult{Kind: tmdb.KindMovie, ID: 603},
		details: &tmdb.Details{ID: 603, Title: "The Matrix"},
		credits: &tmdb.Credits{
			ID: 603,
			Crew: []tmdb.CrewCredit{
				{ID: 7624, Name: "John Gaeta", Job: "Visual Effects Supervisor", Department: "Visual Effects"},
				{ID: 9340, Name: "Joel Silver", Job: "Producer", Department: "Production"},
			},
		},
	}
}

func testServer(catalog Catalog, resolver Resolver) *httptest.Server {
	s := New(catalog, resolver, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return httptest.NewServer(s.Handler())
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck // test
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func TestSearchMovieByIMDB(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/search-movie", `{"imdb_id": "https://www.imdb.com/title/tt0133093/"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	movie, ok := payload["movie"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "The Matrix", movie["title"])
	assert.Equal(t, "tt0133093", movie["imdb_id"])
	assert.EqualValues(t, 2, payload["total"])
}

func TestSearchMovieFilterApplied(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/search-movie", `{"imdb_id": "tt0133093", "filter": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	// The Production-department producer is filtered out.
	assert.EqualValues(t, 1, payload["total"])
}

func TestSearchMovieNotFound(t *testing.T) {
	catalog := &stubCatalog{findErr: tmdb.ErrNotFound}
	srv := testServer(catalog, &stubResolver{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/search-movie", `{"imdb_id": "tt0000000"}`)
	defer resp.Body.Close() //nolint:errcheck // test
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchMovieRequiresInput(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/search-movie", `{}`)
	defer resp.Body.Close() //nolint:errcheck // test
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLookupFound(t *testing.T) {
	confidence := 0.67
	resolver := &stubResolver{result: &identity.Resolved{
		URL:         "https://www.linkedin.com/in/jane-doe",
		ProfileName: "Jane Doe",
		Headline:    "VFX Supervisor",
		Confidence:  &confidence,
	}}
	srv := testServer(matrixCatalog(), resolver)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/lookup", `{"name": "Jane Doe", "job": "Visual Effects Supervisor"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, true, payload["found"])
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", payload["url"])
	assert.InDelta(t, 0.67, payload["confidence"], 1e-9)
}

func TestLookupNoMatch(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/lookup", `{"name": "Nobody", "job": "Key Grip"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, false, payload["found"])
}

func TestEnrich(t *testing.T) {
	confidence := 1.0
	resolver := &stubResolver{result: &identity.Resolved{
		URL:        "https://www.linkedin.com/in/jane-doe",
		Confidence: &confidence,
	}}
	srv := testServer(matrixCatalog(), resolver)
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/enrich",
		`[{"name": "Jane Doe", "job": "VFX Supervisor", "department": "Visual Effects", "movie_title": "The Matrix", "imdb_id": "tt0133093"}]`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.NotEmpty(t, payload["batch_id"])
	crewList, ok := payload["crew"].([]any)
	require.True(t, ok)
	require.Len(t, crewList, 1)
	first, ok := crewList[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", first["linkedin_url"])
}

func TestExport(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/export",
		`[{"name": "Jane Doe", "job": "VFX Supervisor", "department": "Visual Effects", "movie_title": "The Matrix", "imdb_id": "tt0133093"}]`)
	defer resp.Body.Close() //nolint:errcheck // test
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck // test

	rows, err := f.GetRows("VFX Crew")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jane Doe", rows[1][0])
}

func TestUploadCSV(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "movies.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Title,IMDB URL\nThe Matrix,tt0133093\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, true, payload["success"])
	processed, ok := payload["processed_movies"].([]any)
	require.True(t, ok)
	require.Len(t, processed, 1)
	first, ok := processed[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "success", first["status"])
	assert.Equal(t, "The Matrix", first["title"])
	assert.EqualValues(t, 2, payload["total"])
}

func TestHealth(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, "ok", payload["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(matrixCatalog(), &stubResolver{})
	defer srv.Close()

	// Drive one lookup so the counter exists with a value.
	resp := postJSON(t, srv.URL+"/api/lookup", `{"name": "Jane Doe", "job": "VFX Supervisor"}`)
	resp.Body.Close() //nolint:errcheck // test

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close() //nolint:errcheck // test
	require.Equal(t, http.StatusOK, mresp.StatusCode)

	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "crewlink_lookups_total 1")
}
