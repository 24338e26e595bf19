package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/crewlink/crewlink/pkg/config"
	"github.com/crewlink/crewlink/pkg/httpcache"
	"github.com/crewlink/crewlink/pkg/linkedin"
	"github.com/crewlink/crewlink/pkg/resolve"
	"github.com/crewlink/crewlink/pkg/tmdb"
)

// appContext carries the lazily-built dependencies shared by subcommands.
type appContext struct {
	configPath string
	logLevel   string
	noCache    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:           "crewlink",
		Short:         "Film crew extraction and identity enrichment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return app.setup()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", defaultConfigPath(), "configuration file path")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&app.noCache, "no-cache", false, "disable the catalog response cache")

	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newMovieCommand(app))
	rootCmd.AddCommand(newBatchCommand(app))

	return rootCmd
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/crewlink/crewlink.toml"
	}
	return "crewlink.toml"
}

func (a *appContext) setup() error {
	var level slog.Level
	switch strings.ToLower(a.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = &cfg
	return nil
}

// catalog builds the TMDB client, with a day of disk-backed response caching
// unless disabled.
func (a *appContext) catalog() (*tmdb.Client, error) {
	opts := []tmdb.Option{
		tmdb.WithBaseURL(a.cfg.TMDB.BaseURL),
		tmdb.WithLanguage(a.cfg.TMDB.Language),
		tmdb.WithLogger(a.logger),
	}
	if !a.noCache {
		cache, err := httpcache.New(24 * time.Hour)
		if err != nil {
			a.logger.Warn("response cache unavailable, continuing without", "error", err)
		} else {
			opts = append(opts, tmdb.WithCache(cache))
		}
	}
	return tmdb.New(a.cfg.TMDB.APIKey, opts...)
}

// resolver builds the identity resolver from the static configuration. The
// backend itself initializes lazily on the first lookup.
func (a *appContext) resolver() *resolve.Resolver {
	li := a.cfg.LinkedIn
	return resolve.New(resolve.Config{
		Backend: linkedin.Config{
			Kind:           li.Backend,
			BrowserCookies: li.BrowserCookies,
			Token:          li.Token,
			ActorID:        li.ActorID,
			BaseURL:        li.BaseURL,
			MaxResults:     li.MaxResults,
			Logger:         a.logger,
		},
		Interval:    li.Interval(),
		Concurrency: li.Concurrency,
		Logger:      a.logger,
	})
}
