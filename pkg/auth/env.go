package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// envVarCookies maps environment variable names to cookie names.
var envVarCookies = map[string]string{
	"LINKEDIN_LI_AT":      "li_at",
	"LINKEDIN_JSESSIONID": "JSESSIONID",
	"LINKEDIN_LIDC":       "lidc",
	"LINKEDIN_BCOOKIE":    "bcookie",
}

// EnvSource reads cookies from environment variables. Individual cookie
// variables take precedence; LINKEDIN_COOKIES_JSON (a JSON object of
// name -> value) and LINKEDIN_COOKIES_PATH (a file holding the same) are
// checked as fallbacks.
type EnvSource struct{}

// Cookies returns cookies found in the environment.
func (EnvSource) Cookies(_ context.Context) (map[string]string, error) {
	cookies := make(map[string]string)
	for envVar, cookieName := range envVarCookies {
		if value := os.Getenv(envVar); value != "" {
			cookies[cookieName] = value
		}
	}
	if len(cookies) > 0 {
		return cookies, nil
	}

	if blob := os.Getenv("LINKEDIN_COOKIES_JSON"); blob != "" {
		return parseCookieJSON([]byte(blob))
	}
	if path := os.Getenv("LINKEDIN_COOKIES_PATH"); path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path supplied by operator
		if err != nil {
			return nil, fmt.Errorf("read cookie file %s: %w", path, err)
		}
		return parseCookieJSON(data)
	}

	return nil, nil //nolint:nilnil // no env vars set is not an error
}

// EnvVars returns the recognized environment variable names, for help text.
func EnvVars() []string {
	vars := make([]string, 0, len(envVarCookies)+2)
	for envVar := range envVarCookies {
		vars = append(vars, envVar)
	}
	sort.Strings(vars)
	return append(vars, "LINKEDIN_COOKIES_JSON", "LINKEDIN_COOKIES_PATH")
}

func parseCookieJSON(data []byte) (map[string]string, error) {
	var cookies map[string]string
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookie JSON: %w", err)
	}
	if len(cookies) == 0 {
		return nil, nil //nolint:nilnil // empty cookie object is not an error
	}
	return cookies, nil
}
