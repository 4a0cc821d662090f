// Package config loads forcegraph settings from TOML.
//
// Settings are layered: built-in defaults, then the config file (the
// --config flag, or ~/.config/forcegraph/config.toml when present), then
// environment variables. A .env file in the working directory is loaded
// into the environment first, so secrets such as a Redis address can live
// outside the config file.
//
// Example config.toml:
//
//	[physics]
//	attraction = 75.0
//	repulsion = 10000.0
//
//	[crawl]
//	workers = 4
//	rate = 2.0
//	reconnect = true
//
//	[cache]
//	backend = "redis"
//	prefix = "team-a:"
//	ttl = "72h"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/crawl"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/frame"
	"github.com/matzehuels/forcegraph/pkg/interact"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

// Environment variables that override file settings.
const (
	EnvRedisAddr    = "FORCEGRAPH_REDIS_ADDR"
	EnvUserAgent    = "FORCEGRAPH_USER_AGENT"
	EnvCacheBackend = "FORCEGRAPH_CACHE_BACKEND"
	EnvBaseURL      = "FORCEGRAPH_BASE_URL"
)

// Config is the full set of settings.
type Config struct {
	Physics physics.Params `toml:"physics"`
	View    View           `toml:"view"`
	Crawl   Crawl          `toml:"crawl"`
	Cache   Cache          `toml:"cache"`
	Server  Server         `toml:"server"`
}

// View configures the frame driver and the initial viewport.
type View struct {
	Scale        float64 `toml:"scale"`         // world units per pixel
	Framerate    float64 `toml:"framerate"`     // target frames per second
	MinFramerate float64 `toml:"min_framerate"` // floor that caps dt after stalls
	History      int     `toml:"history"`       // frames averaged for dt
	ZoomFactor   float64 `toml:"zoom_factor"`   // scale change per wheel step
	HideNames    bool    `toml:"hide_names"`
}

// Crawl configures the link crawler.
type Crawl struct {
	BaseURL       string  `toml:"base_url"`
	UserAgent     string  `toml:"user_agent"`
	Workers       int     `toml:"workers"`
	Queue         int     `toml:"queue"`
	Rate          float64 `toml:"rate"` // requests per second, 0 for unlimited
	Burst         int     `toml:"burst"`
	InitialReveal int     `toml:"initial_reveal"`
	SpawnDist     float64 `toml:"spawn_dist"`
	Reconnect     bool    `toml:"reconnect"`
}

// Cache configures the link cache.
type Cache struct {
	Backend   string   `toml:"backend"` // file, redis or none
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	Prefix    string   `toml:"prefix"` // key prefix, for sharing one Redis
	TTL       Duration `toml:"ttl"`
}

// Server configures the HTTP snapshot server.
type Server struct {
	Addr     string  `toml:"addr"`
	TickRate float64 `toml:"tick_rate"` // simulation ticks per second
}

// Duration is a time.Duration written as a string ("24h", "90m") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Physics: physics.DefaultParams(),
		View: View{
			Scale:        0.1,
			Framerate:    frame.DefaultFramerate,
			MinFramerate: frame.DefaultMinFramerate,
			History:      frame.DefaultHistoryLen,
			ZoomFactor:   interact.DefaultZoomFactor,
		},
		Crawl: Crawl{
			BaseURL:       crawl.DefaultBaseURL,
			Workers:       crawl.DefaultWorkers,
			Queue:         crawl.DefaultQueue,
			Rate:          5,
			Burst:         1,
			InitialReveal: crawl.DefaultInitialReveal,
			SpawnDist:     crawl.DefaultSpawnDist,
		},
		Cache: Cache{
			Backend:   cache.BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       Duration{7 * 24 * time.Hour},
		},
		Server: Server{
			Addr:     "127.0.0.1:8080",
			TickRate: 50,
		},
	}
}

// DefaultPath returns ~/.config/forcegraph/config.toml, honouring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "forcegraph", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "forcegraph", "config.toml"), nil
}

// Load builds a Config from defaults, the file at path and the environment.
// An empty path falls back to DefaultPath when that file exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path, explicit); err != nil {
			return nil, err
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string, required bool) error {
	md, err := toml.DecodeFile(path, c)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	sort.Strings(names)
	return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(names, ", "))
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvCacheBackend); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		c.Crawl.UserAgent = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Crawl.BaseURL = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Physics.Validate(); err != nil {
		return err
	}

	v := c.View
	switch {
	case !(v.Scale > 0):
		return invalid("view.scale must be positive, got %v", v.Scale)
	case !(v.Framerate > 0):
		return invalid("view.framerate must be positive, got %v", v.Framerate)
	case !(v.MinFramerate > 0) || v.MinFramerate > v.Framerate:
		return invalid("view.min_framerate must be in (0, framerate], got %v", v.MinFramerate)
	case v.History < 1:
		return invalid("view.history must be at least 1, got %d", v.History)
	case !(v.ZoomFactor > 1):
		return invalid("view.zoom_factor must be greater than 1, got %v", v.ZoomFactor)
	}

	cr := c.Crawl
	if err := errors.ValidateURL(cr.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "crawl.base_url")
	}
	switch {
	case cr.Workers < 1:
		return invalid("crawl.workers must be at least 1, got %d", cr.Workers)
	case cr.Queue < 1:
		return invalid("crawl.queue must be at least 1, got %d", cr.Queue)
	case cr.Rate < 0:
		return invalid("crawl.rate must not be negative, got %v", cr.Rate)
	case !(cr.SpawnDist > 0):
		return invalid("crawl.spawn_dist must be positive, got %v", cr.SpawnDist)
	}

	backends := []string{cache.BackendFile, cache.BackendRedis, cache.BackendNone}
	if !slices.Contains(backends, c.Cache.Backend) {
		return invalid("cache.backend must be one of %s, got %q", strings.Join(backends, ", "), c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return invalid("cache.ttl must not be negative")
	}

	if !(c.Server.TickRate > 0) {
		return invalid("server.tick_rate must be positive, got %v", c.Server.TickRate)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

// CacheOptions converts the cache section for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		Dir:       c.Cache.Dir,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
	}
}

// CrawlOptions converts the crawl section for crawl.New. Logger and Rand
// are left for the caller.
func (c *Config) CrawlOptions() crawl.Options {
	reveal := c.Crawl.InitialReveal
	if reveal == 0 {
		reveal = -1
	}
	return crawl.Options{
		Workers:       c.Crawl.Workers,
		Queue:         c.Crawl.Queue,
		InitialReveal: reveal,
		SpawnDist:     c.Crawl.SpawnDist,
		Reconnect:     c.Crawl.Reconnect,
	}
}

// String renders the effective configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return b.String()
}
