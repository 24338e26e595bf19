package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New("test-key",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithPace(rate.Inf),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("New() with blank key should fail")
	}
}

func TestFindByIMDBMovie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/find/tt0133093" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("external_source") != "imdb_id" {
			t.Errorf("missing external_source, query %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Errorf("missing api_key")
		}
		_, _ = w.Write([]byte(`{"movie_results": [{"id": 603}], "tv_results": [{"id": 999}]}`))
	}))
	defer srv.Close()

	got, err := testClient(t, srv).FindByIMDB(context.Background(), "tt0133093")
	if err != nil {
		t.Fatalf("FindByIMDB() error = %v", err)
	}
	want := &FindResult{Kind: KindMovie, ID: 603}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindByIMDB() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindByIMDBEpisodeBeatsSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"tv_episode_results": [{"show_id": 1399, "season_number": 3, "episode_number": 9, "name": "The Rains of Castamere"}],
			"tv_results": [{"id": 1399}]
		}`))
	}))
	defer srv.Close()

	got, err := testClient(t, srv).FindByIMDB(context.Background(), "tt2178784")
	if err != nil {
		t.Fatalf("FindByIMDB() error = %v", err)
	}
	want := &FindResult{Kind: KindTVEpisode, ID: 1399, SeasonNumber: 3, EpisodeNumber: 9, EpisodeName: "The Rains of Castamere"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindByIMDB() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindByIMDBNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv).FindByIMDB(context.Background(), "tt0000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByIMDB() error = %v, want ErrNotFound", err)
	}
}

func TestMovieCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603/credits" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"id": 603,
			"crew": [
				{"id": 7624, "name": "John Gaeta", "job": "Visual Effects Supervisor", "department": "Visual Effects"},
				{"id": 9340, "name": "Joel Silver", "job": "Producer", "department": "Production"}
			]
		}`))
	}))
	defer srv.Close()

	got, err := testClient(t, srv).MovieCredits(context.Background(), 603)
	if err != nil {
		t.Fatalf("MovieCredits() error = %v", err)
	}
	want := &Credits{
		ID: 603,
		Crew: []CrewCredit{
			{ID: 7624, Name: "John Gaeta", Job: "Visual Effects Supervisor", Department: "Visual Effects"},
			{ID: 9340, Name: "Joel Silver", Job: "Producer", Department: "Production"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MovieCredits() mismatch (-want +got):\n%s", diff)
	}
}

func TestEpisodeCreditsPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id": 63056, "crew": []}`))
	}))
	defer srv.Close()

	if _, err := testClient(t, srv).EpisodeCredits(context.Background(), 1399, 3, 9); err != nil {
		t.Fatalf("EpisodeCredits() error = %v", err)
	}
	if gotPath != "/tv/1399/season/3/episode/9/credits" {
		t.Errorf("EpisodeCredits() path = %q", gotPath)
	}
}

func TestDetailsUsesShowForEpisodes(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id": 1399, "name": "Game of Thrones"}`))
	}))
	defer srv.Close()

	d, err := testClient(t, srv).Details(context.Background(), 1399, KindTVEpisode)
	if err != nil {
		t.Fatalf("Details() error = %v", err)
	}
	if gotPath != "/tv/1399" {
		t.Errorf("Details() path = %q, want /tv/1399", gotPath)
	}
	if d.DisplayTitle() != "Game of Thrones" {
		t.Errorf("DisplayTitle() = %q", d.DisplayTitle())
	}
}

func TestSearchMovie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "The Matrix" {
			t.Errorf("query = %q", r.URL.Query().Get("query"))
		}
		_, _ = w.Write([]byte(`{"page": 1, "results": [{"id": 603, "title": "The Matrix", "release_date": "1999-03-30"}], "total_results": 1}`))
	}))
	defer srv.Close()

	got, err := testClient(t, srv).SearchMovie(context.Background(), "The Matrix")
	if err != nil {
		t.Fatalf("SearchMovie() error = %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].ID != 603 {
		t.Errorf("SearchMovie() results = %+v", got.Results)
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	c, err := New("test-key", WithPace(rate.Inf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.SearchMovie(context.Background(), "   "); err == nil {
		t.Fatal("SearchMovie() with blank query should fail")
	}
}
