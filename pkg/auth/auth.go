// Package auth provides session-cookie management for the directory backend.
package auth

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// Domain is the cookie domain for the professional-network directory.
const Domain = "linkedin.com"

// EssentialCookies are the session cookies required for authenticated calls.
var EssentialCookies = []string{"li_at", "JSESSIONID", "lidc", "bcookie"}

// Source represents one place session cookies can come from.
type Source interface {
	// Cookies returns the available cookies, or an empty map when this
	// source has nothing. Only hard failures return an error.
	Cookies(ctx context.Context) (map[string]string, error)
}

// Chain returns cookies from the first source that provides them.
func Chain(ctx context.Context, sources ...Source) (map[string]string, error) {
	for _, src := range sources {
		cookies, err := src.Cookies(ctx)
		if err != nil {
			return nil, err
		}
		if len(cookies) > 0 {
			return cookies, nil
		}
	}
	return nil, nil //nolint:nilnil // no source had cookies, but this is not an error
}

// NewCookieJar creates an http.CookieJar populated with the given cookies.
func NewCookieJar(cookies map[string]string) (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse("https://" + Domain)
	if err != nil {
		return nil, err
	}

	var httpCookies []*http.Cookie
	for name, value := range cookies {
		if value != "" {
			httpCookies = append(httpCookies, &http.Cookie{
				Name:   name,
				Value:  value,
				Domain: "." + Domain,
				Path:   "/",
			})
		}
	}

	jar.SetCookies(u, httpCookies)
	return jar, nil
}
