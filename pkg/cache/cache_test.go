package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	t.Run("Miss", func(t *testing.T) {
		_, hit, err := c.Get(ctx, "absent")
		if err != nil || hit {
			t.Errorf("Get(absent) = %v, %v", hit, err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		if err := c.Set(ctx, "k", []byte(`["A","B"]`), time.Hour); err != nil {
			t.Fatal(err)
		}
		data, hit, err := c.Get(ctx, "k")
		if err != nil || !hit || string(data) != `["A","B"]` {
			t.Errorf("Get = %q, %v, %v", data, hit, err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
		if _, hit, _ := c.Get(ctx, "old"); hit {
			t.Error("expired entry returned")
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		if err := os.MkdirAll(filepath.Dir(c.path("bad")), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
			t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_ = c.Set(ctx, "gone", []byte("x"), 0)
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Fatal(err)
		}
		if _, hit, _ := c.Get(ctx, "gone"); hit {
			t.Error("deleted entry returned")
		}
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Errorf("deleting a missing key: %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		for _, k := range []string{"a", "b", "c"} {
			_ = c.Set(ctx, k, []byte(k), 0)
		}
		n, err := c.Clear(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n < 3 {
			t.Errorf("Clear removed %d entries, want at least 3", n)
		}
		entries, _ := os.ReadDir(c.Dir())
		if len(entries) != 0 {
			t.Errorf("%d entries left in cache dir", len(entries))
		}
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, Options{Backend: BackendNone})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Errorf("none backend = %T", c)
	}

	c, err = Open(ctx, Options{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("default backend = %T", c)
	}

	if _, err := Open(ctx, Options{Backend: "memcached"}); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("FORCEGRAPH_TEST_REDIS")
	if addr == "" {
		t.Skip("FORCEGRAPH_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "forcegraph-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	if _, err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Clear")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	en := k.LinksKey("https://en.wikipedia.org", "Go")
	if !strings.HasPrefix(en, "links:") {
		t.Errorf("LinksKey unexpected: %s", en)
	}
	if en != k.LinksKey("https://en.wikipedia.org/", "Go") {
		t.Error("trailing slash should not change the key")
	}
	if en == k.LinksKey("https://de.wikipedia.org", "Go") {
		t.Error("different wikis should produce different keys")
	}
	if en == k.LinksKey("https://en.wikipedia.org", "Rust") {
		t.Error("different pages should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "user:123:")

	key := scoped.LinksKey("https://en.wikipedia.org", "Go")
	if key != "user:123:"+inner.LinksKey("https://en.wikipedia.org", "Go") {
		t.Errorf("ScopedKeyer LinksKey unexpected: %s", key)
	}

	// Falls back to DefaultKeyer when inner is nil
	if got := NewScopedKeyer(nil, "p:").LinksKey("u", "x"); got != "p:"+inner.LinksKey("u", "x") {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}
