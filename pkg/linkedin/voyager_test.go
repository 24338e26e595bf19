package linkedin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testVoyager(t *testing.T, srv *httptest.Server) *Voyager {
	t.Helper()
	v, err := NewVoyager(context.Background(),
		WithCookies(map[string]string{"li_at": "token", "JSESSIONID": `"ajax:123"`}),
		WithVoyagerBaseURL(srv.URL),
		WithVoyagerHTTPClient(srv.Client()),
		WithVoyagerMaxResults(3),
	)
	if err != nil {
		t.Fatalf("NewVoyager() error = %v", err)
	}
	return v
}

func TestVoyagerSearchPeople(t *testing.T) {
	var gotCSRF string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCSRF = r.Header.Get("Csrf-Token")
		_, _ = w.Write([]byte(`{
			"included": [
				{"publicIdentifier": "jane-doe", "firstName": "Jane", "lastName": "Doe", "occupation": "VFX Supervisor at StudioX"},
				{"entityUrn": "urn:li:company:1", "name": "StudioX"},
				{"publicIdentifier": "jane-doe-2", "firstName": "Jane", "lastName": "Doe", "headline": "Accountant"}
			]
		}`))
	}))
	defer srv.Close()

	v := testVoyager(t, srv)
	candidates, err := v.SearchPeople(context.Background(), SearchQuery{
		Keywords:  "Jane Doe Visual Effects Supervisor",
		FirstName: "Jane",
		LastName:  "Doe",
		Title:     "Visual Effects Supervisor",
	})
	if err != nil {
		t.Fatalf("SearchPeople() error = %v", err)
	}

	want := []Candidate{
		{PublicID: "jane-doe", Name: "Jane Doe", Headline: "VFX Supervisor at StudioX"},
		{PublicID: "jane-doe-2", Name: "Jane Doe", Headline: "Accountant"},
	}
	if diff := cmp.Diff(want, candidates); diff != "" {
		t.Errorf("SearchPeople() mismatch (-want +got):\n%s", diff)
	}
	if gotCSRF != "ajax:123" {
		t.Errorf("Csrf-Token header = %q, want %q", gotCSRF, "ajax:123")
	}
}

func TestVoyagerSearchEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"included": []}`))
	}))
	defer srv.Close()

	v := testVoyager(t, srv)
	candidates, err := v.SearchPeople(context.Background(), SearchQuery{Keywords: "Nobody"})
	if err != nil {
		t.Fatalf("SearchPeople() with zero hits should not error, got %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("SearchPeople() = %d candidates, want 0", len(candidates))
	}
}

func TestVoyagerSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	v := testVoyager(t, srv)
	if _, err := v.SearchPeople(context.Background(), SearchQuery{Keywords: "Jane"}); err == nil {
		t.Fatal("SearchPeople() should surface HTTP 403")
	}
}

func TestVoyagerProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voyager/api/identity/profiles/jane-doe/profileView" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"profile": {
				"firstName": "Jane", "lastName": "Doe",
				"headline": "VFX Supervisor at StudioX",
				"summary": "Visual effects for feature films.",
				"industryName": "Motion Pictures",
				"geoLocationName": "Wellington"
			},
			"positionView": {
				"elements": [
					{"title": "VFX Supervisor", "companyName": "StudioX", "description": "Supervising visual effects"}
				]
			}
		}`))
	}))
	defer srv.Close()

	v := testVoyager(t, srv)
	c, err := v.Profile(context.Background(), "jane-doe")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}

	want := &Candidate{
		PublicID: "jane-doe",
		Name:     "Jane Doe",
		Headline: "VFX Supervisor at StudioX",
		Summary:  "Visual effects for feature films.",
		Industry: "Motion Pictures",
		Location: "Wellington",
		Positions: []Position{
			{Title: "VFX Supervisor", Company: "StudioX", Description: "Supervising visual effects"},
		},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Profile() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewVoyagerWithoutCookies(t *testing.T) {
	t.Setenv("LINKEDIN_LI_AT", "")
	t.Setenv("LINKEDIN_JSESSIONID", "")
	t.Setenv("LINKEDIN_LIDC", "")
	t.Setenv("LINKEDIN_BCOOKIE", "")
	t.Setenv("LINKEDIN_COOKIES_JSON", "")
	t.Setenv("LINKEDIN_COOKIES_PATH", "")

	if _, err := NewVoyager(context.Background()); err == nil {
		t.Fatal("NewVoyager() without any cookie source should fail")
	}
}
