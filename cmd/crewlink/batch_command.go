package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crewlink/crewlink/pkg/crew"
	"github.com/crewlink/crewlink/pkg/sheet"
)

func newBatchCommand(app *appContext) *cobra.Command {
	var output string
	var filter, enrich bool

	cmd := &cobra.Command{
		Use:   "batch <movies.csv|movies.xlsx>",
		Short: "Process a movie list: fetch crew, enrich, export to XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close() //nolint:errcheck // read-only

			movies, err := sheet.ParseMovieList(f, args[0])
			if err != nil {
				return err
			}
			app.logger.Info("movie list parsed", "movies", len(movies))

			catalog, err := app.catalog()
			if err != nil {
				return err
			}

			var all []*crew.Record
			for _, m := range movies {
				ref := m.IMDBID
				if ref == "" {
					ref = m.Title
				}
				title, records, cerr := fetchCrew(cmd.Context(), catalog, ref, filter)
				if cerr != nil {
					app.logger.Warn("skipping movie", "ref", ref, "error", cerr)
					continue
				}
				app.logger.Info("crew fetched", "title", title, "count", len(records))
				all = append(all, records...)
			}
			if len(all) == 0 {
				return fmt.Errorf("no crew found for any movie in %s", args[0])
			}

			if enrich {
				app.logger.Info("enriching crew", "count", len(all))
				app.resolver().Enrich(cmd.Context(), all)
			}

			out, err := os.Create(output)
			if err != nil {
				return err
			}
			defer out.Close() //nolint:errcheck // flushed by Write below

			if err := sheet.ExportRecords(out, all); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d crew records to %s\n", len(all), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "crew_export.xlsx", "output XLSX path")
	cmd.Flags().BoolVar(&filter, "filter", true, "keep only VFX-classified crew")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "resolve directory identities for the crew")
	return cmd
}
