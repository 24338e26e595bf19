package auth

import (
	"context"
	"log/slog"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register all browser cookie stores
)

// BrowserSource reads directory session cookies from local browser stores.
type BrowserSource struct {
	logger *slog.Logger
}

// NewBrowserSource creates a new browser cookie source.
func NewBrowserSource(logger *slog.Logger) *BrowserSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserSource{logger: logger}
}

// Cookies returns the essential session cookies found in any browser store.
func (s *BrowserSource) Cookies(ctx context.Context) (map[string]string, error) {
	kookies, err := kooky.ReadCookies(ctx, kooky.Valid, kooky.DomainHasSuffix(Domain))
	if err != nil {
		s.logger.Debug("failed to read browser cookies", "error", err)
		return nil, nil //nolint:nilnil // failed browser read is not fatal
	}
	if len(kookies) == 0 {
		return nil, nil //nolint:nilnil // no browser cookies is not an error
	}

	essential := make(map[string]bool, len(EssentialCookies))
	for _, name := range EssentialCookies {
		essential[name] = true
	}

	cookies := make(map[string]string)
	for _, c := range kookies {
		if essential[c.Name] {
			cookies[c.Name] = c.Value
			s.logger.Debug("found essential cookie", "name", c.Name, "len", len(c.Value))
		}
	}
	return cookies, nil
}
