// Package config loads the static process configuration from a TOML file
// with environment-variable overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// TMDB configures the filmography catalog client.
type TMDB struct {
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Language string `toml:"language"`
}

// LinkedIn configures the directory backend. Exactly one backend kind is
// active per process.
type LinkedIn struct {
	Backend         string  `toml:"backend"` // voyager | token | actor
	Token           string  `toml:"token"`
	ActorID         string  `toml:"actor_id"`
	BaseURL         string  `toml:"base_url"`
	BrowserCookies  bool    `toml:"browser_cookies"`
	MaxResults      int     `toml:"max_results"`
	RequestInterval float64 `toml:"request_interval"` // seconds between call completions
	Concurrency     int64   `toml:"concurrency"`
}

// Server configures the HTTP API.
type Server struct {
	Bind string `toml:"bind"`
}

// Config is the full process configuration.
type Config struct {
	TMDB     TMDB     `toml:"tmdb"`
	LinkedIn LinkedIn `toml:"linkedin"`
	Server   Server   `toml:"server"`
}

// Default returns a configuration with all defaults applied and no secrets.
func Default() Config {
	return Config{
		TMDB: TMDB{
			BaseURL:  "https://api.themoviedb.org/3",
			Language: "en-US",
		},
		LinkedIn: LinkedIn{
			Backend:         "voyager",
			MaxResults:      3,
			RequestInterval: 1.5,
			Concurrency:     1,
		},
		Server: Server{
			Bind: "127.0.0.1:8000",
		},
	}
}

// Load reads the TOML file at path, applies environment overrides, and
// validates the result. A missing file is not an error; defaults plus
// environment are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv lets environment variables override file values. Secrets usually
// arrive this way rather than through the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		c.TMDB.APIKey = v
	}
	if v := os.Getenv("LINKEDIN_BACKEND"); v != "" {
		c.LinkedIn.Backend = v
	}
	if v := os.Getenv("LINKEDIN_TOKEN"); v != "" {
		c.LinkedIn.Token = v
	}
	if v := os.Getenv("LINKEDIN_ACTOR_ID"); v != "" {
		c.LinkedIn.ActorID = v
	}
	if v := os.Getenv("LINKEDIN_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LinkedIn.MaxResults = n
		}
	}
	if v := os.Getenv("LINKEDIN_REQUEST_INTERVAL"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.LinkedIn.RequestInterval = f
		}
	}
	if v := os.Getenv("LINKEDIN_CONCURRENCY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.LinkedIn.Concurrency = n
		}
	}
	if v := os.Getenv("CREWLINK_BIND"); v != "" {
		c.Server.Bind = v
	}
}

// Validate checks settings that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	switch c.LinkedIn.Backend {
	case "voyager", "token", "actor":
	default:
		return fmt.Errorf("linkedin.backend must be voyager, token, or actor, got %q", c.LinkedIn.Backend)
	}
	if c.LinkedIn.Backend == "actor" && c.LinkedIn.ActorID == "" {
		return errors.New("linkedin.actor_id is required for the actor backend")
	}
	if c.LinkedIn.MaxResults < 1 {
		return errors.New("linkedin.max_results must be at least 1")
	}
	if c.LinkedIn.Concurrency < 1 {
		return errors.New("linkedin.concurrency must be at least 1")
	}
	if c.LinkedIn.RequestInterval < 0 {
		return errors.New("linkedin.request_interval must not be negative")
	}
	if c.Server.Bind == "" {
		return errors.New("server.bind must not be empty")
	}
	return nil
}

// Interval returns the request interval as a duration.
func (c *LinkedIn) Interval() time.Duration {
	return time.Duration(c.RequestInterval * float64(time.Second))
}
