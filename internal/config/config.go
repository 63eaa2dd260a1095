// Package config loads the worldmap configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/worldmap/config.toml unless
// a path is given with --config. A missing file yields the defaults.
//
//	[layout]
//	engine = "grid"
//	node_width = 160
//	node_height = 60
//
//	[route]
//	stub = 20
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/pipeline"
)

// Backend names.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"

	StoreFile  = "file"
	StoreMongo = "mongo"
)

// Config is the whole configuration file.
type Config struct {
	Layout Layout `toml:"layout"`
	Route  Route  `toml:"route"`
	Cache  Cache  `toml:"cache"`
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
}

// Layout configures the layout engines.
type Layout struct {
	Engine       string   `toml:"engine"`
	NodeWidth    float64  `toml:"node_width"`
	NodeHeight   float64  `toml:"node_height"`
	MarginX      float64  `toml:"margin_x"`
	MarginY      float64  `toml:"margin_y"`
	ComponentGap int      `toml:"component_gap"`
	SpiralRadius int      `toml:"spiral_radius"`
	RankDir      string   `toml:"rank_dir"`
	Timeout      Duration `toml:"timeout"`
}

// Route configures the edge router.
type Route struct {
	Stub       float64 `toml:"stub"`
	Clearance  float64 `toml:"clearance"`
	Detour     float64 `toml:"detour"`
	PortSpread float64 `toml:"port_spread"`
}

// Cache selects the layout cache backend.
type Cache struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
	Prefix    string `toml:"prefix"`
}

// Store selects the layout document backend.
type Store struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Server configures `worldmap serve`.
type Server struct {
	Addr           string   `toml:"addr"`
	RequestTimeout Duration `toml:"request_timeout"`
	MaxBodyBytes   int64    `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Layout: Layout{
			Engine:  pipeline.DefaultEngine,
			RankDir: pipeline.DefaultRankDir,
			Timeout: Duration{pipeline.DefaultTimeout},
		},
		Cache:  Cache{Backend: CacheFile},
		Store:  Store{Backend: StoreFile},
		Server: Server{Addr: ":8080", RequestTimeout: Duration{time.Minute}, MaxBodyBytes: 8 << 20},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/worldmap/config.toml, or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "worldmap", "config.toml"), nil
}

// Load reads the configuration at path over the defaults. An empty path
// means DefaultPath. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg and validates the result. Keys missing
// from data keep their current values.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks the configuration and fills empty fields with defaults.
func (c *Config) Validate() error {
	def := Default()
	if c.Layout.Engine == "" {
		c.Layout.Engine = def.Layout.Engine
	}
	if err := layout.ValidateEngine(c.Layout.Engine); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if c.Layout.Timeout.Duration <= 0 {
		c.Layout.Timeout = def.Layout.Timeout
	}

	switch c.Cache.Backend {
	case "":
		c.Cache.Backend = def.Cache.Backend
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New("cache: redis backend needs redis_addr")
		}
	default:
		return fmt.Errorf("cache: unknown backend %q (want file, redis or none)", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case "":
		c.Store.Backend = def.Store.Backend
	case StoreFile:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return errors.New("store: mongo backend needs mongo_uri")
		}
	default:
		return fmt.Errorf("store: unknown backend %q (want file or mongo)", c.Store.Backend)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.RequestTimeout.Duration <= 0 {
		c.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = def.Server.MaxBodyBytes
	}

	// Layout and route values are checked by the pipeline.
	opts := c.PipelineOptions()
	return opts.ValidateAndSetDefaults()
}

// PipelineOptions converts the layout and route sections to pipeline
// options. Callers set Logger and Refresh.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Engine:       c.Layout.Engine,
		NodeWidth:    c.Layout.NodeWidth,
		NodeHeight:   c.Layout.NodeHeight,
		MarginX:      c.Layout.MarginX,
		MarginY:      c.Layout.MarginY,
		ComponentGap: c.Layout.ComponentGap,
		SpiralRadius: c.Layout.SpiralRadius,
		RankDir:      c.Layout.RankDir,
		Timeout:      c.Layout.Timeout.Duration,
		Stub:         c.Route.Stub,
		Clearance:    c.Route.Clearance,
		Detour:       c.Route.Detour,
		PortSpread:   c.Route.PortSpread,
	}
}

// Write encodes cfg as TOML to path, creating parent directories.
func Write(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
