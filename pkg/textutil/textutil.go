// Package textutil provides name splitting and job-title tokenization.
package textutil

import "strings"

// SplitName splits a full name into first and last parts.
// A single-token name has no last part; the last part of a multi-token
// name is everything after the first token.
func SplitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// TokenizeJob lowercases a job title and splits it on non-alphanumeric runs,
// dropping tokens of length 2 or less. Order follows the input.
func TokenizeJob(job string) []string {
	lower := strings.ToLower(job)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !isAlnum(r)
	})

	var tokens []string
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
