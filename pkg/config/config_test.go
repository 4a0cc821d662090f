package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/physics"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Physics != physics.DefaultParams() {
		t.Errorf("Physics = %+v, want defaults", cfg.Physics)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
[physics]
attraction = 50.0

[crawl]
workers = 2
reconnect = true

[cache]
backend = "none"
prefix = "team-a:"
ttl = "90m"
`)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Physics.Attraction != 50 {
		t.Errorf("Attraction = %v, want 50", cfg.Physics.Attraction)
	}
	if cfg.Physics.Repulsion != physics.DefaultRepulsion {
		t.Errorf("Repulsion = %v, want default kept", cfg.Physics.Repulsion)
	}
	if cfg.Crawl.Workers != 2 || !cfg.Crawl.Reconnect {
		t.Errorf("Crawl = %+v", cfg.Crawl)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("TTL = %v, want 90m", cfg.Cache.TTL)
	}
	if cfg.Cache.Prefix != "team-a:" {
		t.Errorf("Prefix = %q", cfg.Cache.Prefix)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"Syntax", `[physics`},
		{"UnknownKey", "[physics]\ngravity = 9.8"},
		{"BadDuration", "[cache]\nttl = \"soon\""},
		{"ZeroMinCloseness", "[physics]\nmin_closeness = 0.0"},
		{"FrictionOutOfRange", "[physics]\nfriction = 1.5"},
		{"NegativeScale", "[view]\nscale = -1.0"},
		{"ZoomBelowOne", "[view]\nzoom_factor = 0.5"},
		{"MinAboveTarget", "[view]\nframerate = 30.0\nmin_framerate = 40.0"},
		{"NoWorkers", "[crawl]\nworkers = 0"},
		{"BadBaseURL", "[crawl]\nbase_url = \"ftp://example.com\""},
		{"UnknownBackend", "[cache]\nbackend = \"memcached\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvCacheBackend, "")
	t.Setenv(EnvUserAgent, "")
	t.Setenv(EnvBaseURL, "")

	t.Run("NoFile", func(t *testing.T) {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Crawl.Workers != Default().Crawl.Workers {
			t.Errorf("Workers = %d, want default", cfg.Crawl.Workers)
		}
	})

	t.Run("ExplicitMissing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidConfig)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[server]\naddr = \":9000\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Server.Addr != ":9000" {
			t.Errorf("Addr = %q, want :9000", cfg.Server.Addr)
		}
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv(EnvRedisAddr, "redis.internal:6380")
		t.Setenv(EnvCacheBackend, "redis")
		t.Setenv(EnvUserAgent, "forcegraph-test/1.0")
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Cache.RedisAddr != "redis.internal:6380" || cfg.Cache.Backend != "redis" {
			t.Errorf("Cache = %+v", cfg.Cache)
		}
		if cfg.Crawl.UserAgent != "forcegraph-test/1.0" {
			t.Errorf("UserAgent = %q", cfg.Crawl.UserAgent)
		}
	})

	t.Run("DefaultPath", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		if err := os.MkdirAll(filepath.Join(dir, "forcegraph"), 0o755); err != nil {
			t.Fatal(err)
		}
		body := []byte("[view]\nhide_names = true\n")
		if err := os.WriteFile(filepath.Join(dir, "forcegraph", "config.toml"), body, 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if !cfg.View.HideNames {
			t.Error("HideNames not read from the default path")
		}
	})
}

func TestCrawlOptions(t *testing.T) {
	cfg := Default()
	if got := cfg.CrawlOptions().InitialReveal; got != cfg.Crawl.InitialReveal {
		t.Errorf("InitialReveal = %d, want %d", got, cfg.Crawl.InitialReveal)
	}
	cfg.Crawl.InitialReveal = 0
	if got := cfg.CrawlOptions().InitialReveal; got >= 0 {
		t.Errorf("InitialReveal = %d, want negative for none", got)
	}
}

func TestString(t *testing.T) {
	s := Default().String()
	for _, want := range []string{"[physics]", "attraction = 75.0", "ttl = \"168h0m0s\""} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}
