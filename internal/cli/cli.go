// Package cli implements the worldmap command-line interface.
//
// The commands lay out world files, open the interactive map editor, manage
// persisted layout documents and the layout cache, and run the HTTP server.
// The CLI is built using cobra and logs through charmbracelet/log; --verbose
// switches to debug output.
//
// # Commands
//
//   - layout: Compute positions and routed exits for a world file
//   - edit: Interactive terminal map editor
//   - overrides: Show, list and delete stored layout documents
//   - serve: Run the HTTP facade used by the browser editor
//   - cache: Inspect and clear the layout cache
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/worldmap/internal/config"
	"github.com/matzehuels/worldmap/pkg/buildinfo"
	"github.com/matzehuels/worldmap/pkg/cache"
	"github.com/matzehuels/worldmap/pkg/pipeline"
	"github.com/matzehuels/worldmap/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "worldmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Worldmap lays out MUD world maps",
		Long: `Worldmap turns rooms and areas connected by compass exits into a readable
2D map: nodes placed on a grid that follows the exit directions, exits routed
as orthogonal paths, and user-locked positions kept across relayouts.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/worldmap/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the layout cache")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.overridesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration file once per process.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.cfg = &cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "engine", cfg.Layout.Engine, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	return cfg, nil
}

// =============================================================================
// Runner, Cache and Store Factories
// =============================================================================

// newRunner creates a pipeline runner over the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
	}
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	return newFileCache(cfg)
}

func newFileCache(cfg config.Config) (*cache.FileCache, error) {
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return nil, fmt.Errorf("get cache dir: %w", err)
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// newStore opens the configured layout document store.
func (c *CLI) newStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.Store.Backend == config.StoreMongo {
		st, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.Database,
			Collection: cfg.Store.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("connect store: %w", err)
		}
		return st, nil
	}
	return store.NewFileStore(cfg.Store.Dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/worldmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
