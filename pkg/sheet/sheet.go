// Package sheet reads uploaded movie lists from CSV or XLSX files and
// exports crew records as XLSX workbooks.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/crewlink/crewlink/pkg/crew"
)

// MovieRow is one entry from an uploaded movie list. Either field may be
// empty; rows with neither are skipped during parsing.
type MovieRow struct {
	IMDBID string
	Title  string
}

// ParseMovieList reads a CSV or XLSX movie list. The format is chosen by
// filename extension, matching how uploads arrive. Column roles are detected
// heuristically from the header row: columns mentioning imdb/url/link carry
// IMDB IDs, columns mentioning title/name/film/movie carry titles.
func ParseMovieList(r io.Reader, filename string) ([]MovieRow, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return parseXLSX(r)
	}
	return parseCSV(r)
}

func parseCSV(r io.Reader) ([]MovieRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsFromCells(rows)
}

func parseXLSX(r io.Reader) ([]MovieRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rowsFromCells(rows)
}

func rowsFromCells(rows [][]string) ([]MovieRow, error) {
	if len(rows) == 0 {
		return nil, errors.New("file is empty")
	}

	idCols, titleCols := detectColumns(rows[0])
	if len(idCols) == 0 && len(titleCols) == 0 {
		return nil, errors.New("no imdb or title column found in header")
	}

	var movies []MovieRow
	for _, cells := range rows[1:] {
		var m MovieRow
		for _, i := range idCols {
			if i < len(cells) {
				if id := crew.ExtractIMDBID(cells[i]); id != "" {
					m.IMDBID = id
				}
			}
		}
		for _, i := range titleCols {
			if i < len(cells) && strings.TrimSpace(cells[i]) != "" {
				m.Title = strings.TrimSpace(cells[i])
			}
		}
		if m.IMDBID == "" && m.Title == "" {
			continue
		}
		movies = append(movies, m)
	}
	return movies, nil
}

func detectColumns(header []string) (idCols, titleCols []int) {
	for i, name := range header {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "imdb") || strings.Contains(lower, "url") || strings.Contains(lower, "link") {
			idCols = append(idCols, i)
		}
		if strings.Contains(lower, "title") || strings.Contains(lower, "name") ||
			strings.Contains(lower, "film") || strings.Contains(lower, "movie") {
			titleCols = append(titleCols, i)
		}
	}
	return idCols, titleCols
}

// exportHeader is the column order of exported workbooks.
var exportHeader = []string{
	"Name", "Job", "Department", "Movie Title", "IMDB ID",
	"LinkedIn URL", "LinkedIn Name", "LinkedIn Headline", "LinkedIn Confidence",
}

// ExportRecords writes crew records to w as a single-sheet XLSX workbook.
func ExportRecords(w io.Writer, records []*crew.Record) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory

	const sheetName = "VFX Crew"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	if err := setRow(f, sheetName, 1, exportHeader); err != nil {
		return err
	}
	for i, rec := range records {
		row := []string{
			rec.Name,
			rec.Job,
			rec.Department,
			rec.MovieTitle,
			rec.IMDBID,
			deref(rec.LinkedInURL),
			deref(rec.LinkedInProfileName),
			deref(rec.LinkedInHeadline),
			confidenceString(rec.LinkedInConfidence),
		}
		if err := setRow(f, sheetName, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("set row %d: %w", row, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func confidenceString(c *float64) string {
	if c == nil {
		return ""
	}
	return strconv.FormatFloat(*c, 'f', 2, 64)
}
