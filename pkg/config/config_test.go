package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "voyager", cfg.LinkedIn.Backend)
	assert.Equal(t, 3, cfg.LinkedIn.MaxResults)
	assert.Equal(t, int64(1), cfg.LinkedIn.Concurrency)
	assert.Equal(t, 1500*time.Millisecond, cfg.LinkedIn.Interval())
	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Bind)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crewlink.toml")
	content := `
[tmdb]
api_key = "file-key"

[linkedin]
backend = "token"
token = "file-token"
base_url = "https://api.example.com"
max_results = 5
request_interval = 0.5
concurrency = 2

[server]
bind = "0.0.0.0:9000"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.TMDB.APIKey)
	assert.Equal(t, "token", cfg.LinkedIn.Backend)
	assert.Equal(t, 5, cfg.LinkedIn.MaxResults)
	assert.Equal(t, 500*time.Millisecond, cfg.LinkedIn.Interval())
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Bind)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crewlink.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tmdb]\napi_key = \"file-key\"\n"), 0o600))

	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("LINKEDIN_CONCURRENCY", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.TMDB.APIKey)
	assert.Equal(t, int64(4), cfg.LinkedIn.Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.LinkedIn.Backend = "carrier-pigeon" }, wantErr: true},
		{name: "actor without actor id", mutate: func(c *Config) { c.LinkedIn.Backend = "actor" }, wantErr: true},
		{name: "zero max results", mutate: func(c *Config) { c.LinkedIn.MaxResults = 0 }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.LinkedIn.Concurrency = 0 }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.LinkedIn.RequestInterval = -1 }, wantErr: true},
		{name: "empty bind", mutate: func(c *Config) { c.Server.Bind = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
