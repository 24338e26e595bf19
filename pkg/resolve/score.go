package resolve

import (
	"strings"

	"github.com/crewlink/crewlink/pkg/linkedin"
)

// Score returns the fraction of job tokens found as substrings of the
// candidate's aggregated profile text. No tokens or no text scores zero; a
// name-only match carries no job signal.
func Score(c linkedin.Candidate, jobTokens []string) float64 {
	if len(jobTokens) == 0 {
		return 0
	}
	text := c.Text()
	if text == "" {
		return 0
	}
	matches := 0
	for _, token := range jobTokens {
		if strings.Contains(text, token) {
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	return float64(matches) / float64(len(jobTokens))
}

// selectBest picks the winning candidate. The first candidate starts as the
// running best and is only displaced by a strictly greater score, so on an
// all-zero batch the search engine's own ranking decides.
func selectBest(candidates []linkedin.Candidate, jobTokens []string) (best int, score float64) {
	score = Score(candidates[0], jobTokens)
	for i := 1; i < len(candidates); i++ {
		if s := Score(candidates[i], jobTokens); s > score {
			best = i
			score = s
		}
	}
	return best, score
}
