// Package server exposes the crew extraction and enrichment pipeline over
// HTTP: movie search, spreadsheet upload, identity lookup and enrichment,
// and XLSX export.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crewlink/crewlink/pkg/crew"
	"github.com/crewlink/crewlink/pkg/identity"
	"github.com/crewlink/crewlink/pkg/sheet"
	"github.com/crewlink/crewlink/pkg/tmdb"
)

const maxUploadBytes = 16 << 20

// Catalog is the filmography lookup surface the server needs.
type Catalog interface {
	FindByIMDB(ctx context.Context, imdbID string) (*tmdb.FindResult, error)
	MovieCredits(ctx context.Context, movieID int64) (*tmdb.Credits, error)
	TVCredits(ctx context.Context, showID int64) (*tmdb.Credits, error)
	EpisodeCredits(ctx context.Context, showID int64, season, episode int) (*tmdb.Credits, error)
	Details(ctx context.Context, id int64, kind tmdb.MediaKind) (*tmdb.Details, error)
	SearchMovie(ctx context.Context, query string) (*tmdb.SearchResponse, error)
}

// Resolver is the identity-resolution surface the server needs.
type Resolver interface {
	Resolve(ctx context.Context, name, job, personID string) *identity.Resolved
	Enrich(ctx context.Context, records []*crew.Record)
}

// Server is the HTTP API.
type Server struct {
	router   *chi.Mux
	logger   *slog.Logger
	catalog  Catalog
	resolver Resolver
	metrics  *metrics
}

// New creates a Server around the catalog and resolver.
func New(catalog Catalog, resolver Resolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		catalog:  catalog,
		resolver: resolver,
		metrics:  newMetrics(),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/search-movie", s.handleSearchMovie)
		r.Post("/upload", s.handleUpload)
		r.Post("/lookup", s.handleLookup)
		r.Post("/enrich", s.handleEnrich)
		r.Post("/export", s.handleExport)
		r.Get("/health", s.handleHealth)
	})
	s.router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
}

type movieRequest struct {
	IMDBID string `json:"imdb_id"`
	Title  string `json:"title"`
	Filter bool   `json:"filter"`
}

type movieSummary struct {
	Title     string `json:"title"`
	IMDBID    string `json:"imdb_id"`
	MediaType string `json:"media_type"`
}

func (s *Server) handleSearchMovie(w http.ResponseWriter, r *http.Request) {
	var req movieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.apiError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IMDBID == "" && req.Title == "" {
		s.apiError(w, http.StatusBadRequest, "imdb_id or title is required")
		return
	}

	s.metrics.moviesSearched.Inc()

	movie, records, err := s.movieCrew(r.Context(), req.IMDBID, req.Title, req.Filter)
	if errors.Is(err, tmdb.ErrNotFound) {
		s.apiError(w, http.StatusNotFound, "movie not found")
		return
	}
	if err != nil {
		s.logger.Error("movie search failed", "imdb_id", req.IMDBID, "title", req.Title, "error", err)
		s.apiError(w, http.StatusBadGateway, "catalog lookup failed")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"movie":   movie,
		"crew":    records,
		"total":   len(records),
	})
}

// movieCrew resolves a movie reference to its crew list. An IMDB ID takes
// priority over a title search.
func (s *Server) movieCrew(ctx context.Context, imdbID, title string, filter bool) (*movieSummary, []*crew.Record, error) {
	if imdbID != "" {
		if extracted := crew.ExtractIMDBID(imdbID); extracted != "" {
			imdbID = extracted
		}
		return s.crewByIMDB(ctx, imdbID, title, filter)
	}

	search, err := s.catalog.SearchMovie(ctx, title)
	if err != nil {
		return nil, nil, err
	}
	if len(search.Results) == 0 {
		return nil, nil, tmdb.ErrNotFound
	}
	hit := search.Results[0]
	credits, err := s.catalog.MovieCredits(ctx, hit.ID)
	if err != nil {
		return nil, nil, err
	}

	displayTitle := hit.Title
	if displayTitle == "" {
		displayTitle = title
	}
	movie := &movieSummary{Title: displayTitle, IMDBID: "N/A", MediaType: string(tmdb.KindMovie)}
	return movie, crew.FromCredits(credits, displayTitle, "N/A", filter), nil
}

func (s *Server) crewByIMDB(ctx context.Context, imdbID, fallbackTitle string, filter bool) (*movieSummary, []*crew.Record, error) {
	found, err := s.catalog.FindByIMDB(ctx, imdbID)
	if err != nil {
		return nil, nil, err
	}

	details, err := s.catalog.Details(ctx, found.ID, found.Kind)
	if err != nil {
		return nil, nil, err
	}
	title := details.DisplayTitle()
	if title == "" {
		title = fallbackTitle
	}
	if found.Kind == tmdb.KindTVEpisode && found.EpisodeName != "" {
		title = fmt.Sprintf("%s S%02dE%02d %s", title, found.SeasonNumber, found.EpisodeNumber, found.EpisodeName)
	}

	var credits *tmdb.Credits
	switch found.Kind {
	case tmdb.KindMovie:
		credits, err = s.catalog.MovieCredits(ctx, found.ID)
	case tmdb.KindTVEpisode:
		credits, err = s.catalog.EpisodeCredits(ctx, found.ID, found.SeasonNumber, found.EpisodeNumber)
	case tmdb.KindTV:
		credits, err = s.catalog.TVCredits(ctx, found.ID)
	default:
		err = fmt.Errorf("unsupported media kind %q", found.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	movie := &movieSummary{Title: title, IMDBID: imdbID, MediaType: string(found.Kind)}
	return movie, crew.FromCredits(credits, title, imdbID, filter), nil
}

type processedMovie struct {
	Title     string `json:"title"`
	IMDBID    string `json:"imdb_id"`
	Status    string `json:"status"`
	CrewCount int    `json:"crew_count"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.apiError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.apiError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close() //nolint:errcheck // read-only

	movies, err := sheet.ParseMovieList(file, header.Filename)
	if err != nil {
		s.apiError(w, http.StatusBadRequest, "error reading file: "+err.Error())
		return
	}

	s.metrics.uploadsTotal.Inc()

	var processed []processedMovie
	var allRecords []*crew.Record
	filter := r.FormValue("filter") == "true"
	for _, m := range movies {
		entry := processedMovie{Title: m.Title, IMDBID: m.IMDBID}
		if entry.Title == "" {
			entry.Title = "Unknown"
		}
		if entry.IMDBID == "" {
			entry.IMDBID = "N/A"
		}

		if m.IMDBID == "" {
			// Title-only rows still resolve through search.
			movie, records, cerr := s.movieCrew(r.Context(), "", m.Title, filter)
			if cerr != nil {
				entry.Status = "not_found"
				processed = append(processed, entry)
				continue
			}
			entry.Title = movie.Title
			entry.Status = "success"
			entry.CrewCount = len(records)
			allRecords = append(allRecords, records...)
			processed = append(processed, entry)
			continue
		}

		movie, records, cerr := s.crewByIMDB(r.Context(), m.IMDBID, m.Title, filter)
		switch {
		case errors.Is(cerr, tmdb.ErrNotFound):
			entry.Status = "not_found"
		case cerr != nil:
			s.logger.Warn("upload row failed", "imdb_id", m.IMDBID, "error", cerr)
			entry.Status = "no_credits"
		default:
			entry.Title = movie.Title
			entry.Status = "success"
			entry.CrewCount = len(records)
			allRecords = append(allRecords, records...)
		}
		processed = append(processed, entry)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"batch_id":         uuid.NewString(),
		"processed_movies": processed,
		"crew":             allRecords,
		"total":            len(allRecords),
	})
}

type lookupRequest struct {
	Name     string `json:"name"`
	Job      string `json:"job"`
	PersonID string `json:"person_id"`
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.apiError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.apiError(w, http.StatusBadRequest, "name is required")
		return
	}

	s.metrics.lookupsTotal.Inc()

	res := s.resolver.Resolve(r.Context(), req.Name, req.Job, req.PersonID)
	if res == nil {
		s.metrics.lookupNoMatch.Inc()
		s.writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"found":        true,
		"url":          res.URL,
		"profile_name": res.ProfileName,
		"headline":     res.Headline,
		"confidence":   res.Confidence,
	})
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var records []*crew.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.apiError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(records) == 0 {
		s.apiError(w, http.StatusBadRequest, "no records to enrich")
		return
	}

	s.metrics.enrichBatchSize.Observe(float64(len(records)))
	s.resolver.Enrich(r.Context(), records)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"batch_id": uuid.NewString(),
		"crew":     records,
		"total":    len(records),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var records []*crew.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.apiError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(records) == 0 {
		s.apiError(w, http.StatusBadRequest, "no data to export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="vfx_crew_export.xlsx"`)
	if err := sheet.ExportRecords(w, records); err != nil {
		s.logger.Error("export failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) apiError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
