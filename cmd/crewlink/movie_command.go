package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crewlink/crewlink/pkg/crew"
	"github.com/crewlink/crewlink/pkg/tmdb"
)

func newMovieCommand(app *appContext) *cobra.Command {
	var filter, enrich bool

	cmd := &cobra.Command{
		Use:   "movie <imdb-id|title>",
		Short: "Fetch the crew list for one movie or episode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := app.catalog()
			if err != nil {
				return err
			}

			ref := strings.Join(args, " ")
			title, records, err := fetchCrew(cmd.Context(), catalog, ref, filter)
			if err != nil {
				return err
			}

			if enrich {
				app.logger.Info("enriching crew", "count", len(records))
				app.resolver().Enrich(cmd.Context(), records)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d crew)\n", title, len(records))
			fmt.Fprintln(cmd.OutOrStdout(), renderCrewTable(records))
			return nil
		},
	}

	cmd.Flags().BoolVar(&filter, "filter", false, "keep only VFX-classified crew")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "resolve directory identities for the crew")
	return cmd
}

// fetchCrew resolves an IMDB ID or free-text title to a crew list.
func fetchCrew(ctx context.Context, catalog *tmdb.Client, ref string, filter bool) (string, []*crew.Record, error) {
	if imdbID := crew.ExtractIMDBID(ref); imdbID != "" {
		return fetchCrewByIMDB(ctx, catalog, imdbID, filter)
	}

	search, err := catalog.SearchMovie(ctx, ref)
	if err != nil {
		return "", nil, err
	}
	if len(search.Results) == 0 {
		return "", nil, fmt.Errorf("no movie found for %q", ref)
	}
	hit := search.Results[0]
	credits, err := catalog.MovieCredits(ctx, hit.ID)
	if err != nil {
		return "", nil, err
	}
	title := hit.Title
	if title == "" {
		title = ref
	}
	return title, crew.FromCredits(credits, title, "N/A", filter), nil
}

func fetchCrewByIMDB(ctx context.Context, catalog *tmdb.Client, imdbID string, filter bool) (string, []*crew.Record, error) {
	found, err := catalog.FindByIMDB(ctx, imdbID)
	if err != nil {
		return "", nil, err
	}
	details, err := catalog.Details(ctx, found.ID, found.Kind)
	if err != nil {
		return "", nil, err
	}
	title := details.DisplayTitle()
	if found.Kind == tmdb.KindTVEpisode && found.EpisodeName != "" {
		title = fmt.Sprintf("%s S%02dE%02d %s", title, found.SeasonNumber, found.EpisodeNumber, found.EpisodeName)
	}

	var credits *tmdb.Credits
	switch found.Kind {
	case tmdb.KindMovie:
		credits, err = catalog.MovieCredits(ctx, found.ID)
	case tmdb.KindTVEpisode:
		credits, err = catalog.EpisodeCredits(ctx, found.ID, found.SeasonNumber, found.EpisodeNumber)
	default:
		credits, err = catalog.TVCredits(ctx, found.ID)
	}
	if err != nil {
		return "", nil, err
	}
	return title, crew.FromCredits(credits, title, imdbID, filter), nil
}
