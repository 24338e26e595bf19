package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crewlink/crewlink/pkg/crew"
)

func renderCrewTable(records []*crew.Record) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Job", "Department", "LinkedIn", "Confidence"})

	for _, rec := range records {
		url := ""
		if rec.LinkedInURL != nil {
			url = *rec.LinkedInURL
		}
		confidence := ""
		if rec.LinkedInConfidence != nil {
			confidence = strconv.FormatFloat(*rec.LinkedInConfidence, 'f', 2, 64)
		}
		tw.AppendRow(table.Row{rec.Name, rec.Job, rec.Department, url, confidence})
	}

	return tw.Render()
}
