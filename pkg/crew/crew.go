// Package crew models filmography crew records and the VFX job
// classification used to filter credits down to effects-relevant roles.
package crew

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/crewlink/crewlink/pkg/tmdb"
)

// Record is one crew member on one title. The LinkedIn fields start unset
// and are populated in place by identity enrichment; they stay nil on
// no-match or failure.
type Record struct {
	Name                string   `json:"name"`
	Job                 string   `json:"job"`
	Department          string   `json:"department"`
	MovieTitle          string   `json:"movie_title"`
	IMDBID              string   `json:"imdb_id"`
	TMDBPersonID        string   `json:"tmdb_person_id,omitempty"`
	LinkedInURL         *string  `json:"linkedin_url,omitempty"`
	LinkedInProfileName *string  `json:"linkedin_profile_name,omitempty"`
	LinkedInHeadline    *string  `json:"linkedin_headline,omitempty"`
	LinkedInConfidence  *float64 `json:"linkedin_confidence,omitempty"`
}

// Departments whose entire crew is included.
var vfxDepartments = map[string]bool{
	"Visual Effects": true,
}

// Departments excluded even when the job matches a keyword. Keeps general
// production roles like Producer and Executive Producer out.
var excludedDepartments = map[string]bool{
	"Production": true,
}

// Jobs included regardless of department.
var vfxSpecificJobs = map[string]bool{
	"Visual Effects Supervisor":         true,
	"Visual Effects Producer":           true,
	"Special Effects Supervisor":        true,
	"Animation Supervisor":              true,
	"Compositing Supervisor":            true,
	"Character Designer":                true,
	"Special Effects Technician":        true,
	"Special Effects Manager":           true,
	"Special Effects Makeup Artist":     true,
	"Executive Visual Effects Producer": true,
	"Production Design":                 true,
	"Set Designer":                      true,
	"Concept Artist":                    true,
	"Prop Designer":                     true,
	"Set Decoration":                    true,
	"Director of Photography":           true,
	"Gaffer":                            true,
	"Sound Designer":                    true,
	"Sound Effects Editor":              true,
	"Music Editor":                      true,
	"Original Music Composer":           true,
}

// Substrings matched against "job department" lowercased. "supervisor" and
// "producer" are deliberately absent: too generic on their own.
var vfxKeywords = []string{
	"vfx",
	"visual effects",
	"animator",
	"composit",
	"effects",
	"digital",
	"cg",
	"3d",
	"tracking",
	"rendering",
	"fx",
}

// IsVFXJob reports whether a job/department pair counts as VFX crew.
// Checks run in priority order: VFX departments always in, excluded
// departments always out, then the specific-job set, then keywords.
func IsVFXJob(job, department string) bool {
	if vfxDepartments[department] {
		return true
	}
	if excludedDepartments[department] {
		return false
	}
	if vfxSpecificJobs[job] {
		return true
	}
	text := strings.ToLower(job + " " + department)
	for _, keyword := range vfxKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// FromCredits converts a credits payload into records for one title.
// With filter set, only VFX-classified crew is kept; otherwise every crew
// member is returned.
func FromCredits(credits *tmdb.Credits, title, imdbID string, filter bool) []*Record {
	if credits == nil {
		return nil
	}
	var records []*Record
	for _, member := range credits.Crew {
		if filter && !IsVFXJob(member.Job, member.Department) {
			continue
		}
		r := &Record{
			Name:       member.Name,
			Job:        member.Job,
			Department: member.Department,
			MovieTitle: title,
			IMDBID:     imdbID,
		}
		if member.ID > 0 {
			r.TMDBPersonID = strconv.FormatInt(member.ID, 10)
		}
		records = append(records, r)
	}
	return records
}

var imdbIDPattern = regexp.MustCompile(`(tt\d+)`)

// ExtractIMDBID pulls a tt-prefixed IMDB ID out of a URL or raw ID string.
// Returns "" when no ID is present.
func ExtractIMDBID(s string) string {
	return imdbIDPattern.FindString(s)
}
